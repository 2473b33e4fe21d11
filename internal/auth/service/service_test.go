package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/saldoapp/saldo/internal/auth/domain"
	"github.com/saldoapp/saldo/internal/auth/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAuthService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&domain.User{}, &domain.Session{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	svc := NewService(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Users:    repository.ProvideUserRepository(),
		Sessions: repository.ProvideSessionRepository(),
	})
	return svc, db
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := setupAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, domain.RegisterRequest{
		UserName: "Ana",
		Email:    "Ana@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "Ana", user.UserName)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	result, err := svc.Login(ctx, domain.LoginRequest{
		Email:    "ana@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotEmpty(t, result.RawToken)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	session, err := svc.Authenticate(ctx, result.RawToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)

	_, err = svc.Login(ctx, domain.LoginRequest{
		Email:    "ana@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRegisterDefaultsUserName(t *testing.T) {
	svc, _ := setupAuthService(t)

	user, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "bob@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", user.UserName)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterRequest{Email: "not-an-email", Password: "longenough"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Register(ctx, domain.RegisterRequest{Email: "ok@example.com", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	_, err = svc.Register(ctx, domain.RegisterRequest{Email: "dup@example.com", Password: "longenough"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, domain.RegisterRequest{Email: "DUP@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, _ := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterRequest{Email: "c@example.com", Password: "longenough"})
	require.NoError(t, err)
	result, err := svc.Login(ctx, domain.LoginRequest{Email: "c@example.com", Password: "longenough"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.RawToken))

	_, err = svc.Authenticate(ctx, result.RawToken)
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestAuthenticateExpiredSession(t *testing.T) {
	svc, db := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterRequest{Email: "d@example.com", Password: "longenough"})
	require.NoError(t, err)
	result, err := svc.Login(ctx, domain.LoginRequest{Email: "d@example.com", Password: "longenough"})
	require.NoError(t, err)

	expired := time.Now().UTC().Add(-time.Minute)
	err = db.Exec(`UPDATE sessions SET expires_at = ?`, expired).Error
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, result.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestResolveDisplayNames(t *testing.T) {
	svc, _ := setupAuthService(t)
	ctx := context.Background()

	ana, err := svc.Register(ctx, domain.RegisterRequest{UserName: "ana", Email: "a@example.com", Password: "longenough"})
	require.NoError(t, err)
	bob, err := svc.Register(ctx, domain.RegisterRequest{UserName: "bob", Email: "b@example.com", Password: "longenough"})
	require.NoError(t, err)

	names, err := svc.ResolveDisplayNames(ctx, []snowflake.ID{ana.ID, bob.ID})
	require.NoError(t, err)
	assert.Equal(t, map[snowflake.ID]string{ana.ID: "ana", bob.ID: "bob"}, names)
}
