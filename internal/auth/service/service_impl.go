package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/saldoapp/saldo/internal/auth/domain"
	"github.com/saldoapp/saldo/internal/auth/password"
	"github.com/saldoapp/saldo/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sessionTokenBytes = 32
	sessionTTL        = 7 * 24 * time.Hour

	minPasswordLength = 8
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Users    domain.Repository
	Sessions domain.SessionRepository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	users    domain.Repository
	sessions domain.SessionRepository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("auth.service"),
		genID:    p.GenID,
		users:    p.Users,
		sessions: p.Sessions,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return nil, domain.ErrInvalidPassword
	}

	// Fall back to the email prefix when no user name was supplied.
	userName := strings.TrimSpace(req.UserName)
	if userName == "" {
		userName = strings.SplitN(email, "@", 2)[0]
	}

	if existing, err := s.users.FindByEmail(ctx, s.db, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrUserExists
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           s.genID.Generate(),
		UserName:     userName,
		Email:        email,
		PasswordHash: hashed,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Insert(ctx, s.db, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !password.Verify(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:        s.genID.Generate(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: now.Add(sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Insert(ctx, s.db, session); err != nil {
		return nil, err
	}

	return &domain.LoginResult{
		User:      user,
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	if strings.TrimSpace(rawToken) == "" {
		return nil
	}
	return s.sessions.DeleteByTokenHash(ctx, s.db, hashToken(rawToken))
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Session, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, domain.ErrInvalidSession
	}

	session, err := s.sessions.FindByTokenHash(ctx, s.db, hashToken(rawToken))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrInvalidSession
	}
	if time.Now().UTC().After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}
	return session, nil
}

func (s *Service) GetUser(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) ResolveDisplayNames(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]string, error) {
	users, err := s.users.ListByIDs(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[snowflake.ID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.UserName
	}
	return names, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", domain.ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])
}
