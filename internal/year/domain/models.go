package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Year is a registry row enabling a set of months for one calendar year.
// Years are unique system-wide, not per user.
type Year struct {
	ID            snowflake.ID   `gorm:"primaryKey"`
	UserID        snowflake.ID   `gorm:"not null;index"` // created by, display only
	Year          int            `gorm:"not null;uniqueIndex:ux_years_year"`
	MonthsEnabled datatypes.JSON `gorm:"not null"`
	CreatedAt     time.Time      `gorm:"not null"`
}

// TableName sets the database table name.
func (Year) TableName() string { return "years" }

// Months decodes the enabled-months set. A corrupt column reads as empty.
func (y Year) Months() []int {
	var months []int
	if err := json.Unmarshal(y.MonthsEnabled, &months); err != nil {
		return nil
	}
	return months
}

// EncodeMonths builds the JSON column value for an enabled-months set.
func EncodeMonths(months []int) (datatypes.JSON, error) {
	raw, err := json.Marshal(months)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// YearView is a Year enriched with the creator display name.
type YearView struct {
	Year
	CreatedBy string
}

type CreateRequest struct {
	Year      int
	Months    []int
	AllMonths bool
	ActorID   snowflake.ID
}
