package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/keygate/keygate/internal/shared"
)

// System principal for the client-credentials grant. Machine tokens carry no
// refresh token and never touch the ledger.
const (
	clientSubject = "client"
	clientEmail   = "client@system"
)

// ServiceConfig carries the protocol knobs for the credential service.
type ServiceConfig struct {
	// RefreshTTL bounds the ledger row; it is authoritative over the expiry
	// embedded in the token itself.
	RefreshTTL   time.Duration
	ClientID     string
	ClientSecret string
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service orchestrates register, login, refresh and logout. It owns the
// single-use refresh rotation protocol.
type Service struct {
	users  UserRepository
	ledger TokenLedger
	codec  *Codec
	cfg    ServiceConfig
	now    func() time.Time
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// NewService constructs the credential service.
func NewService(users UserRepository, ledger TokenLedger, codec *Codec, cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{users: users, ledger: ledger, codec: codec, cfg: cfg, now: now}
}

// Register creates a new account. The returned user carries the stored hash
// internally; handlers must never serialize it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: user with this email", shared.ErrConflict)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login validates credentials and issues an access/refresh pair, recording
// the refresh token in the ledger. Unknown email and wrong password collapse
// into the same error; a deactivated account is deliberately distinct.
func (s *Service) Login(ctx context.Context, email, password string) (*User, *TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, shared.ErrAccountInactive
	}
	if !CheckPassword(password, user.PasswordHash) {
		return nil, nil, shared.ErrInvalidCredentials
	}
	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh redeems a refresh token for a new pair. Each presented token can be
// redeemed exactly once: the conditional revoke below is the replay detector,
// and losing that race surfaces as a revoked token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken, TokenClassRefresh)
	if err != nil {
		return nil, shared.ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, shared.ErrInvalidToken
	}

	row, err := s.ledger.Find(ctx, refreshToken, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, shared.ErrInvalidToken
	}
	if row.IsRevoked {
		return nil, shared.ErrTokenRevoked
	}
	// The ledger expiry is authoritative; the codec-embedded expiry can
	// diverge after a TTL reconfiguration.
	if s.now().After(row.ExpiresAt) {
		return nil, shared.ErrTokenExpired
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUserGone
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrUserGone
	}

	revoked, err := s.ledger.Revoke(ctx, refreshToken, userID)
	if err != nil {
		return nil, err
	}
	if !revoked {
		return nil, shared.ErrTokenRevoked
	}
	return s.issuePair(ctx, user)
}

// Logout revokes the presented refresh token if it exists. Absence of a match
// is a silent no-op, which makes logout idempotent.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.codec.Verify(refreshToken, TokenClassRefresh)
	if err != nil {
		return nil
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil
	}
	_, err = s.ledger.Revoke(ctx, refreshToken, userID)
	return err
}

// RevokeAllSessions revokes every live refresh token for a user. Not wired to
// a route; used when an account is deactivated or deleted.
func (s *Service) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	return s.ledger.RevokeAllForUser(ctx, userID)
}

// ClientCredentials implements the machine-to-machine grant: a single access
// token bound to the system principal, with no refresh token and no ledger
// entry. Both comparisons run regardless of the first result.
func (s *Service) ClientCredentials(ctx context.Context, clientID, clientSecret string) (string, error) {
	if s.cfg.ClientID == "" || s.cfg.ClientSecret == "" {
		return "", shared.ErrInvalidClient
	}
	idOK := subtle.ConstantTimeCompare([]byte(clientID), []byte(s.cfg.ClientID))
	secretOK := subtle.ConstantTimeCompare([]byte(clientSecret), []byte(s.cfg.ClientSecret))
	if idOK&secretOK != 1 {
		return "", shared.ErrInvalidClient
	}
	return s.codec.Issue(clientSubject, clientEmail, TokenClassAccess)
}

// VerifyAccess validates an access token and resolves its owner, enforcing
// that deactivated and deleted users never pass authentication.
func (s *Service) VerifyAccess(ctx context.Context, token string) (*User, error) {
	claims, err := s.codec.Verify(token, TokenClassAccess)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, shared.ErrInvalidToken
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUserGone
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrUserGone
	}
	return user, nil
}

func (s *Service) issuePair(ctx context.Context, user *User) (*TokenPair, error) {
	access, err := s.codec.Issue(user.ID.String(), user.Email, TokenClassAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.Issue(user.ID.String(), user.Email, TokenClassRefresh)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Record(ctx, user.ID, refresh, s.now().Add(s.cfg.RefreshTTL)); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
