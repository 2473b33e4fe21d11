package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PeriodRegistry gates writes: a (year, month) must be enabled before the
// ledger accepts entries against it.
type PeriodRegistry interface {
	IsPeriodEnabled(ctx context.Context, year, month int) (bool, error)
}

// DisplayNameResolver looks up user display names for read-path enrichment.
type DisplayNameResolver interface {
	ResolveDisplayNames(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]string, error)
}

type OpenOrReviseRequest struct {
	Year        int
	Month       int
	Opening     decimal.Decimal
	Description string // optional; defaulted for corrections
	ActorID     snowflake.ID
}

type AdjustRequest struct {
	PeriodID    snowflake.ID
	Delta       decimal.Decimal
	Description string
	ActorID     snowflake.ID
}

type RecordTransactionRequest struct {
	Year        int
	Month       int
	Kind        TransactionKind
	Amount      decimal.Decimal
	Description string
	ActorID     snowflake.ID
}

// Service is the ledger operations layer. Every mutation keeps the cached
// aggregate equal to opening_balance plus the signed sum of the period's log.
type Service interface {
	OpenOrRevise(ctx context.Context, req OpenOrReviseRequest) (*BalancePeriod, error)
	ApplyAdjustment(ctx context.Context, req AdjustRequest) (*BalancePeriod, error)
	RecordTransaction(ctx context.Context, req RecordTransactionRequest) (*BalancePeriod, *TransactionEntry, error)
	ListPeriods(ctx context.Context, year int) ([]PeriodView, error)
	ListEntries(ctx context.Context, periodID snowflake.ID, limit int) ([]*TransactionEntry, error)
	ListEntriesByActor(ctx context.Context, actorID snowflake.ID, limit int) ([]*TransactionEntry, error)
	Reconcile(ctx context.Context, periodID snowflake.ID) (*BalancePeriod, error)
}
