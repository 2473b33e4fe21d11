package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/saldoapp/saldo/internal/ledger/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type periodRepo struct{}

func ProvidePeriodRepository() domain.PeriodRepository {
	return &periodRepo{}
}

func (r *periodRepo) Insert(ctx context.Context, db *gorm.DB, period *domain.BalancePeriod) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO balances (id, user_id, year, month, opening_balance, manual_adjustment, current_balance, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		period.ID,
		period.UserID,
		period.Year,
		period.Month,
		period.OpeningBalance,
		period.ManualAdjustment,
		period.CurrentBalance,
		period.CreatedAt,
		period.UpdatedAt,
	).Error
}

func (r *periodRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.BalancePeriod, error) {
	var period domain.BalancePeriod
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, year, month, opening_balance, manual_adjustment, current_balance, created_at, updated_at
		 FROM balances WHERE id = ?`,
		id,
	).Scan(&period).Error
	if err != nil {
		return nil, err
	}
	if period.ID == 0 {
		return nil, nil
	}
	return &period, nil
}

func (r *periodRepo) FindByYearMonth(ctx context.Context, db *gorm.DB, year, month int) (*domain.BalancePeriod, error) {
	var period domain.BalancePeriod
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, year, month, opening_balance, manual_adjustment, current_balance, created_at, updated_at
		 FROM balances WHERE year = ? AND month = ?`,
		year,
		month,
	).Scan(&period).Error
	if err != nil {
		return nil, err
	}
	if period.ID == 0 {
		return nil, nil
	}
	return &period, nil
}

func (r *periodRepo) ListByYear(ctx context.Context, db *gorm.DB, year int) ([]*domain.BalancePeriod, error) {
	var periods []*domain.BalancePeriod
	err := db.WithContext(ctx).
		Model(&domain.BalancePeriod{}).
		Where("year = ?", year).
		Order("month asc").
		Find(&periods).Error
	if err != nil {
		return nil, err
	}
	return periods, nil
}

func (r *periodRepo) ApplyDelta(ctx context.Context, db *gorm.DB, id snowflake.ID, delta decimal.Decimal, touchManual bool) (*domain.BalancePeriod, error) {
	now := time.Now().UTC()

	var result *gorm.DB
	if touchManual {
		result = db.WithContext(ctx).Exec(
			`UPDATE balances
			 SET current_balance = current_balance + ?, manual_adjustment = manual_adjustment + ?, updated_at = ?
			 WHERE id = ?`,
			delta, delta, now, id,
		)
	} else {
		result = db.WithContext(ctx).Exec(
			`UPDATE balances
			 SET current_balance = current_balance + ?, updated_at = ?
			 WHERE id = ?`,
			delta, now, id,
		)
	}
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrPeriodNotFound
	}

	period, err := r.FindByID(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, domain.ErrPeriodNotFound
	}
	return period, nil
}

func (r *periodRepo) SetOpeningBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, newOpening decimal.Decimal) (*domain.BalancePeriod, decimal.Decimal, error) {
	existing, err := r.FindByID(ctx, db, id)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if existing == nil {
		return nil, decimal.Zero, domain.ErrPeriodNotFound
	}

	openingDelta := newOpening.Sub(existing.OpeningBalance)
	now := time.Now().UTC()

	// Shift only the baseline; incrementing current_balance keeps deltas
	// applied between the read above and this write.
	result := db.WithContext(ctx).Exec(
		`UPDATE balances
		 SET opening_balance = ?, current_balance = current_balance + ?, updated_at = ?
		 WHERE id = ?`,
		newOpening, openingDelta, now, id,
	)
	if result.Error != nil {
		return nil, decimal.Zero, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, decimal.Zero, domain.ErrPeriodNotFound
	}

	period, err := r.FindByID(ctx, db, id)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if period == nil {
		return nil, decimal.Zero, domain.ErrPeriodNotFound
	}
	return period, openingDelta, nil
}

func (r *periodRepo) SetCurrentBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, value decimal.Decimal) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE balances SET current_balance = ?, updated_at = ? WHERE id = ?`,
		value, time.Now().UTC(), id,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrPeriodNotFound
	}
	return nil
}
