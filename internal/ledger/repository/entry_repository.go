package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/saldoapp/saldo/internal/ledger/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type entryRepo struct{}

func ProvideEntryRepository() domain.EntryRepository {
	return &entryRepo{}
}

func (r *entryRepo) Insert(ctx context.Context, db *gorm.DB, entry *domain.TransactionEntry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO balance_transactions (id, balance_id, year, month, kind, amount, description, source, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.BalanceID,
		entry.Year,
		entry.Month,
		string(entry.Kind),
		entry.Amount,
		entry.Description,
		string(entry.Source),
		entry.UserID,
		entry.CreatedAt,
	).Error
}

func (r *entryRepo) ListByPeriod(ctx context.Context, db *gorm.DB, balanceID snowflake.ID, limit int) ([]*domain.TransactionEntry, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.TransactionEntry{}).
		Where("balance_id = ?", balanceID).
		Order("created_at desc, id desc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}

	var entries []*domain.TransactionEntry
	if err := stmt.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *entryRepo) ListByActor(ctx context.Context, db *gorm.DB, userID snowflake.ID, limit int) ([]*domain.TransactionEntry, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.TransactionEntry{}).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}

	var entries []*domain.TransactionEntry
	if err := stmt.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *entryRepo) SumSignedByPeriod(ctx context.Context, db *gorm.DB, balanceID snowflake.ID) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(CASE WHEN kind = ? THEN -amount ELSE amount END), 0) AS total
		 FROM balance_transactions WHERE balance_id = ?`,
		string(domain.KindDebit),
		balanceID,
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}
