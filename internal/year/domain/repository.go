package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository persists year registry rows. Lookups return (nil, nil) when the
// row is absent.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, year *Year) error
	FindByYear(ctx context.Context, db *gorm.DB, year int) (*Year, error)
	List(ctx context.Context, db *gorm.DB) ([]*Year, error)
}
