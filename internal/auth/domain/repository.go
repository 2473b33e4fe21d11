package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists users. Lookups return (nil, nil) when absent.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, user *User) error
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	ListByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*User, error)
}

// SessionRepository persists login sessions keyed by token hash.
type SessionRepository interface {
	Insert(ctx context.Context, db *gorm.DB, session *Session) error
	FindByTokenHash(ctx context.Context, db *gorm.DB, tokenHash string) (*Session, error)
	DeleteByTokenHash(ctx context.Context, db *gorm.DB, tokenHash string) error
}
