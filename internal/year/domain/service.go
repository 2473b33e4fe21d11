package domain

import "context"

// Service manages the year registry and answers period-enabled checks for
// the ledger.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Year, error)
	List(ctx context.Context) ([]YearView, error)
	IsPeriodEnabled(ctx context.Context, year, month int) (bool, error)
}
