// Package service provides the business logic of the trading system:
// session and role management, the asset registry, and the portfolio
// ledger. Persistence is delegated to repository interfaces.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/cryptofolio/internal/models"
)

// minPasswordLen applies to account and portfolio passwords alike.
const minPasswordLen = 8

// AuthRepository defines the persistence operations required by the
// session and role store.
type AuthRepository interface {
	// CreateUser inserts a new user; models.ErrEmailTaken on collision.
	CreateUser(ctx context.Context, email, password string) error
	// CredentialsValid reports whether the exact email/password pair exists.
	CredentialsValid(ctx context.Context, email, password string) (bool, error)
	// IsWhitelisted reports whether the email may hold the elevated role.
	IsWhitelisted(ctx context.Context, email string) (bool, error)
	// ReplaceToken atomically swaps the owner's token for a new one.
	ReplaceToken(ctx context.Context, token, owner string, role models.Role) error
	// GetSession fetches a session by token; models.ErrInvalidToken if absent.
	GetSession(ctx context.Context, token string) (*models.Session, error)
	// DeleteToken removes a token by value; models.ErrInvalidToken if absent.
	DeleteToken(ctx context.Context, token string) error
	// DeleteTokensOlderThan removes tokens created before the cutoff.
	DeleteTokensOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuthService implements registration, login, logout, authentication and
// the expired-token sweep.
type AuthService struct {
	repo AuthRepository
	// retention is how long a token stays valid after issuance.
	retention time.Duration
	// now is swapped out in tests.
	now func() time.Time
}

// NewAuthService constructs an AuthService with the given repository and
// token retention window.
func NewAuthService(repo AuthRepository, retention time.Duration) *AuthService {
	return &AuthService{repo: repo, retention: retention, now: time.Now}
}

// Register creates a new user account. The password must be at least 8
// characters and the email must contain "@"; both are checked before any
// I/O.
func (s *AuthService) Register(ctx context.Context, email, password string) error {
	if len(password) < minPasswordLen {
		return models.ErrPasswordTooShort
	}
	if !strings.Contains(email, "@") {
		return models.ErrInvalidEmail
	}
	return s.repo.CreateUser(ctx, email, password)
}

// Login verifies the credentials and issues a fresh session token. The
// role is computed once here, from whitelist membership, and fixed for
// the token's lifetime. Any previous token of the owner is rotated away
// in the same transaction, so at most one token per owner is ever live.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	ok, err := s.repo.CredentialsValid(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrInvalidCredentials
	}

	role := models.RoleStandard
	elevated, err := s.repo.IsWhitelisted(ctx, email)
	if err != nil {
		return nil, err
	}
	if elevated {
		role = models.RoleElevated
	}

	token := uuid.NewString()
	if err := s.repo.ReplaceToken(ctx, token, email, role); err != nil {
		return nil, err
	}
	return &models.Session{Token: token, Owner: email, Role: role, CreatedAt: s.now()}, nil
}

// Logout deletes the token. A second logout with the same token returns
// models.ErrInvalidToken.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return models.ErrMissingToken
	}
	return s.repo.DeleteToken(ctx, token)
}

// Authenticate resolves a token into the caller's identity, enforcing
// the required role. Tokens older than the retention window are treated
// as invalid even before the sweeper removes them.
func (s *AuthService) Authenticate(ctx context.Context, token string, required models.Role) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, models.ErrMissingToken
	}
	session, err := s.repo.GetSession(ctx, token)
	if err != nil {
		return models.Identity{}, err
	}
	if s.now().Sub(session.CreatedAt) > s.retention {
		return models.Identity{}, models.ErrInvalidToken
	}
	if !session.Role.Satisfies(required) {
		return models.Identity{}, models.ErrInsufficientRole
	}
	return models.Identity{Email: session.Owner, Role: session.Role}, nil
}

// Elevate issues a fresh elevated token for a whitelisted owner. The old
// token's role is never mutated; elevation is a new issuance.
func (s *AuthService) Elevate(ctx context.Context, token string) (*models.Session, error) {
	identity, err := s.Authenticate(ctx, token, models.RoleStandard)
	if err != nil {
		return nil, err
	}

	whitelisted, err := s.repo.IsWhitelisted(ctx, identity.Email)
	if err != nil {
		return nil, err
	}
	if !whitelisted {
		return nil, models.ErrNotWhitelisted
	}

	fresh := uuid.NewString()
	if err := s.repo.ReplaceToken(ctx, fresh, identity.Email, models.RoleElevated); err != nil {
		return nil, err
	}
	return &models.Session{Token: fresh, Owner: identity.Email, Role: models.RoleElevated, CreatedAt: s.now()}, nil
}

// SweepExpired removes every token older than the retention window and
// returns the count. Safe to run concurrently with login and logout.
func (s *AuthService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteTokensOlderThan(ctx, s.now().Add(-s.retention))
}
