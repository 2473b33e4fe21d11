package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// TransactionKind carries the sign of an entry; amounts are always positive.
type TransactionKind string

const (
	KindCredit TransactionKind = "CREDIT"
	KindDebit  TransactionKind = "DEBIT"
)

// TransactionSource records which operation produced an entry.
type TransactionSource string

const (
	SourceOpening    TransactionSource = "OPENING"    // initial opening balance
	SourceCorrection TransactionSource = "CORRECTION" // opening balance revised after creation
	SourceAdjust     TransactionSource = "ADJUST"     // ad-hoc manual adjustment
	SourceManual     TransactionSource = "MANUAL"     // user-recorded credit/debit
	SourceExpense    TransactionSource = "EXPENSE"    // reserved for the expense module
)

// BalancePeriod is the cached aggregate for one (year, month) bucket.
// current_balance always equals opening_balance plus the signed sum of the
// period's entries; manual_adjustment is a denormalized display total and is
// never read back to derive the balance.
type BalancePeriod struct {
	ID               snowflake.ID    `gorm:"primaryKey"`
	UserID           snowflake.ID    `gorm:"not null;index"` // creator, display only
	Year             int             `gorm:"not null;index:ix_balances_year;uniqueIndex:ux_balances_year_month,priority:1"`
	Month            int             `gorm:"not null;uniqueIndex:ux_balances_year_month,priority:2"`
	OpeningBalance   decimal.Decimal `gorm:"type:numeric;not null"`
	ManualAdjustment decimal.Decimal `gorm:"type:numeric;not null"`
	CurrentBalance   decimal.Decimal `gorm:"type:numeric;not null"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName sets the database table name.
func (BalancePeriod) TableName() string { return "balances" }

// TransactionEntry is an immutable, append-only record explaining one
// balance change. Entries are never updated or deleted.
type TransactionEntry struct {
	ID          snowflake.ID      `gorm:"primaryKey"`
	BalanceID   snowflake.ID      `gorm:"not null;index:ix_balance_transactions_balance_created,priority:1"`
	Year        int               `gorm:"not null"`
	Month       int               `gorm:"not null"`
	Kind        TransactionKind   `gorm:"type:text;not null"`
	Amount      decimal.Decimal   `gorm:"type:numeric;not null"` // strictly positive
	Description string            `gorm:"type:text;not null"`
	Source      TransactionSource `gorm:"type:text;not null"`
	UserID      snowflake.ID      `gorm:"not null;index:ix_balance_transactions_user_created,priority:1"` // actor
	CreatedAt   time.Time         `gorm:"not null;index:ix_balance_transactions_balance_created,priority:2;index:ix_balance_transactions_user_created,priority:2"`
}

// TableName sets the database table name.
func (TransactionEntry) TableName() string { return "balance_transactions" }

// SignedAmount returns the amount with the sign implied by Kind.
func (e TransactionEntry) SignedAmount() decimal.Decimal {
	if e.Kind == KindDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// PeriodView is a BalancePeriod enriched with the creator display name for
// read paths.
type PeriodView struct {
	BalancePeriod
	CreatedBy string
}
