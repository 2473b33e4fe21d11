package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is an account that can record ledger activity. Email is unique.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	UserName     string       `gorm:"type:text;not null"`
	Email        string       `gorm:"type:text;not null;uniqueIndex:ux_users_email"`
	PasswordHash string       `gorm:"type:text;not null"`
	CreatedAt    time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session is a server-side login session; only the token hash is stored.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"not null;index"`
	TokenHash string       `gorm:"type:text;not null;uniqueIndex:ux_sessions_token_hash"`
	ExpiresAt time.Time    `gorm:"not null"`
	CreatedAt time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

type RegisterRequest struct {
	UserName string
	Email    string
	Password string
}

type LoginRequest struct {
	Email    string
	Password string
}

type LoginResult struct {
	User      *User
	RawToken  string
	ExpiresAt time.Time
}
