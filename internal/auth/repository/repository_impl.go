package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/saldoapp/saldo/internal/auth/domain"
	"gorm.io/gorm"
)

type userRepo struct{}

func ProvideUserRepository() domain.Repository {
	return &userRepo{}
}

func (r *userRepo) Insert(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (id, user_name, email, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.UserName,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	).Error
}

func (r *userRepo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_name, email, password_hash, created_at FROM users WHERE email = ?`,
		email,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *userRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_name, email, password_hash, created_at FROM users WHERE id = ?`,
		id,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *userRepo) ListByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []*domain.User
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id IN ?", ids).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

type sessionRepo struct{}

func ProvideSessionRepository() domain.SessionRepository {
	return &sessionRepo{}
}

func (r *sessionRepo) Insert(ctx context.Context, db *gorm.DB, session *domain.Session) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO sessions (id, user_id, token_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.ExpiresAt,
		session.CreatedAt,
	).Error
}

func (r *sessionRepo) FindByTokenHash(ctx context.Context, db *gorm.DB, tokenHash string) (*domain.Session, error) {
	var session domain.Session
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, token_hash, expires_at, created_at FROM sessions WHERE token_hash = ?`,
		tokenHash,
	).Scan(&session).Error
	if err != nil {
		return nil, err
	}
	if session.ID == 0 {
		return nil, nil
	}
	return &session, nil
}

func (r *sessionRepo) DeleteByTokenHash(ctx context.Context, db *gorm.DB, tokenHash string) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM sessions WHERE token_hash = ?`,
		tokenHash,
	).Error
}
