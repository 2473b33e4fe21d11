package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PeriodRepository persists BalancePeriod aggregates. Lookups return
// (nil, nil) when the row is absent.
type PeriodRepository interface {
	Insert(ctx context.Context, db *gorm.DB, period *BalancePeriod) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BalancePeriod, error)
	FindByYearMonth(ctx context.Context, db *gorm.DB, year, month int) (*BalancePeriod, error)
	ListByYear(ctx context.Context, db *gorm.DB, year int) ([]*BalancePeriod, error)

	// ApplyDelta atomically adds delta to current_balance (and to
	// manual_adjustment when touchManual is set) in a single conditional
	// update. It is the only way the cache is ever advanced.
	ApplyDelta(ctx context.Context, db *gorm.DB, id snowflake.ID, delta decimal.Decimal, touchManual bool) (*BalancePeriod, error)

	// SetOpeningBalance rebases the period on newOpening while preserving
	// every previously applied delta, and returns the signed opening delta
	// so the caller can emit a matching correction entry.
	SetOpeningBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, newOpening decimal.Decimal) (*BalancePeriod, decimal.Decimal, error)

	// SetCurrentBalance overwrites the cached aggregate. Reconciliation only.
	SetCurrentBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, value decimal.Decimal) error
}

// EntryRepository persists the append-only transaction log.
type EntryRepository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *TransactionEntry) error

	// ListByPeriod returns entries newest-first; limit <= 0 means unbounded.
	ListByPeriod(ctx context.Context, db *gorm.DB, balanceID snowflake.ID, limit int) ([]*TransactionEntry, error)

	// ListByActor returns the actor's entries across all periods, newest-first.
	ListByActor(ctx context.Context, db *gorm.DB, userID snowflake.ID, limit int) ([]*TransactionEntry, error)

	// SumSignedByPeriod returns the signed sum of every entry owned by the
	// period. The authoritative input for reconciliation.
	SumSignedByPeriod(ctx context.Context, db *gorm.DB, balanceID snowflake.ID) (decimal.Decimal, error)
}
