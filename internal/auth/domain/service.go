package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
	GetUser(ctx context.Context, id snowflake.ID) (*User, error)

	// ResolveDisplayNames supports read-path enrichment only; it is never on
	// a write path.
	ResolveDisplayNames(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]string, error)
}
