package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/saldoapp/saldo/internal/year/domain"
	"github.com/saldoapp/saldo/internal/year/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type resolverStub struct {
	names map[snowflake.ID]string
}

func (r *resolverStub) ResolveDisplayNames(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]string, error) {
	out := make(map[snowflake.ID]string, len(ids))
	for _, id := range ids {
		if name, ok := r.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func setupYearService(t *testing.T, resolver DisplayNameResolver) (domain.Service, *snowflake.Node) {
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

	if err := db.AutoMigrate(&domain.Year{}); err != nil {
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
		Repo:     repository.Provide(),
		Resolver: resolver,
	})
	return svc, node
}

func TestCreateYearNormalizesMonths(t *testing.T) {
	svc, node := setupYearService(t, &resolverStub{})
	ctx := context.Background()
	actor := node.Generate()

	year, err := svc.Create(ctx, domain.CreateRequest{
		Year:    2026,
		Months:  []int{3, 1, 3, 2},
		ActorID: actor,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, year.Months())

	all, err := svc.Create(ctx, domain.CreateRequest{
		Year:      2027,
		AllMonths: true,
		ActorID:   actor,
	})
	require.NoError(t, err)
	assert.Len(t, all.Months(), 12)
}

func TestCreateYearRejectsBadInput(t *testing.T) {
	svc, node := setupYearService(t, &resolverStub{})
	ctx := context.Background()
	actor := node.Generate()

	_, err := svc.Create(ctx, domain.CreateRequest{Year: 1800, AllMonths: true, ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrInvalidYear)

	_, err = svc.Create(ctx, domain.CreateRequest{Year: 2026, Months: []int{0}, ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrInvalidMonths)

	_, err = svc.Create(ctx, domain.CreateRequest{Year: 2026, Months: []int{13}, ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrInvalidMonths)

	_, err = svc.Create(ctx, domain.CreateRequest{Year: 2026, ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrInvalidMonths)
}

func TestCreateDuplicateYearConflicts(t *testing.T) {
	svc, node := setupYearService(t, &resolverStub{})
	ctx := context.Background()
	actor := node.Generate()

	_, err := svc.Create(ctx, domain.CreateRequest{Year: 2026, AllMonths: true, ActorID: actor})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateRequest{Year: 2026, Months: []int{1}, ActorID: actor})
	assert.ErrorIs(t, err, domain.ErrYearExists)
}

func TestIsPeriodEnabled(t *testing.T) {
	svc, node := setupYearService(t, &resolverStub{})
	ctx := context.Background()
	actor := node.Generate()

	_, err := svc.Create(ctx, domain.CreateRequest{
		Year:    2026,
		Months:  []int{1, 2, 6},
		ActorID: actor,
	})
	require.NoError(t, err)

	enabled, err := svc.IsPeriodEnabled(ctx, 2026, 2)
	require.NoError(t, err)
	assert.True(t, enabled)

	enabled, err = svc.IsPeriodEnabled(ctx, 2026, 3)
	require.NoError(t, err)
	assert.False(t, enabled)

	// An unregistered year has no enabled months.
	enabled, err = svc.IsPeriodEnabled(ctx, 2031, 1)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestListEnrichesCreator(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	actor := node.Generate()

	svc, _ := setupYearService(t, &resolverStub{names: map[snowflake.ID]string{actor: "ana"}})
	ctx := context.Background()

	_, err = svc.Create(ctx, domain.CreateRequest{Year: 2025, AllMonths: true, ActorID: actor})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateRequest{Year: 2026, AllMonths: true, ActorID: actor})
	require.NoError(t, err)

	views, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, "ana", v.CreatedBy)
	}
}
