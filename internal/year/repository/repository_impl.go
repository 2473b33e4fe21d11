package repository

import (
	"context"

	"github.com/saldoapp/saldo/internal/year/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, year *domain.Year) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO years (id, user_id, year, months_enabled, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		year.ID,
		year.UserID,
		year.Year,
		year.MonthsEnabled,
		year.CreatedAt,
	).Error
}

func (r *repo) FindByYear(ctx context.Context, db *gorm.DB, year int) (*domain.Year, error) {
	var row domain.Year
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, year, months_enabled, created_at FROM years WHERE year = ?`,
		year,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.Year, error) {
	var rows []*domain.Year
	err := db.WithContext(ctx).
		Model(&domain.Year{}).
		Order("year desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
