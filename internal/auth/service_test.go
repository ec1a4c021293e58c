package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/keygate/keygate/internal/shared"
)

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[uuid.UUID]*User)}
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *memoryUserRepo) Create(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return shared.ErrConflict
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

type ledgerKey struct {
	token  string
	userID uuid.UUID
}

type memoryLedger struct {
	mu   sync.Mutex
	rows map[ledgerKey]*RefreshToken
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{rows: make(map[ledgerKey]*RefreshToken)}
}

func (l *memoryLedger) Record(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows[ledgerKey{token, userID}] = &RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (l *memoryLedger) Find(ctx context.Context, token string, userID uuid.UUID) (*RefreshToken, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[ledgerKey{token, userID}]
	if !ok {
		return nil, nil
	}
	clone := *row
	return &clone, nil
}

func (l *memoryLedger) Revoke(ctx context.Context, token string, userID uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[ledgerKey{token, userID}]
	if !ok || row.IsRevoked {
		return false, nil
	}
	row.IsRevoked = true
	return true, nil
}

func (l *memoryLedger) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, row := range l.rows {
		if row.UserID == userID {
			row.IsRevoked = true
		}
	}
	return nil
}

func (l *memoryLedger) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var removed int64
	for key, row := range l.rows {
		if row.ExpiresAt.Before(now) {
			delete(l.rows, key)
			removed++
		}
	}
	return removed, nil
}

type serviceFixture struct {
	service *Service
	repo    *memoryUserRepo
	ledger  *memoryLedger
	clock   *time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &base
	now := func() time.Time { return *clock }

	repo := newMemoryUserRepo()
	ledger := newMemoryLedger()
	codec := NewCodec(CodecConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}).WithClock(now)

	service := NewService(repo, ledger, codec, ServiceConfig{
		RefreshTTL:   7 * 24 * time.Hour,
		ClientID:     "svc-client",
		ClientSecret: "svc-secret",
		Now:          now,
	})
	return &serviceFixture{service: service, repo: repo, ledger: ledger, clock: clock}
}

func (f *serviceFixture) register(t *testing.T, email string) *User {
	t.Helper()
	user, err := f.service.Register(context.Background(), RegisterInput{
		FirstName: "Ann",
		LastName:  "Chovey",
		Email:     email,
		Password:  "Sup3rSecret!",
	})
	require.NoError(t, err)
	return user
}

func TestRegister(t *testing.T) {
	f := newServiceFixture(t)
	user := f.register(t, "ann@example.com")

	require.NotEqual(t, uuid.Nil, user.ID)
	require.True(t, user.IsActive)
	require.NotEqual(t, "Sup3rSecret!", user.PasswordHash)
	require.True(t, CheckPassword("Sup3rSecret!", user.PasswordHash))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newServiceFixture(t)
	f.register(t, "ann@example.com")

	_, err := f.service.Register(context.Background(), RegisterInput{
		FirstName: "Ann",
		LastName:  "Other",
		Email:     "ann@example.com",
		Password:  "An0therSecret!",
	})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestRegisterWeakPassword(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.service.Register(context.Background(), RegisterInput{
		FirstName: "Ann",
		LastName:  "Chovey",
		Email:     "ann@example.com",
		Password:  "short",
	})
	require.ErrorIs(t, err, shared.ErrWeakPassword)
}

func TestLogin(t *testing.T) {
	f := newServiceFixture(t)
	f.register(t, "ann@example.com")

	user, pair, err := f.service.Login(context.Background(), "ann@example.com", "Sup3rSecret!")
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", user.Email)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	row, err := f.ledger.Find(context.Background(), pair.RefreshToken, user.ID)
	require.NoError(t, err)
	require.NotNil(t, row)
	require.False(t, row.IsRevoked)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newServiceFixture(t)
	f.register(t, "ann@example.com")

	_, _, err := f.service.Login(context.Background(), "ann@example.com", "WrongPass1!")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginUnknownEmailMatchesWrongPassword(t *testing.T) {
	f := newServiceFixture(t)
	f.register(t, "ann@example.com")

	_, _, unknownErr := f.service.Login(context.Background(), "nobody@example.com", "Sup3rSecret!")
	_, _, wrongErr := f.service.Login(context.Background(), "ann@example.com", "WrongPass1!")
	require.ErrorIs(t, unknownErr, shared.ErrInvalidCredentials)
	require.Equal(t, unknownErr, wrongErr)
}

func TestLoginInactiveAccount(t *testing.T) {
	f := newServiceFixture(t)
	user := f.register(t, "ann@example.com")
	f.repo.users[user.ID].IsActive = false

	// The inactive check runs before the password compare.
	_, _, err := f.service.Login(context.Background(), "ann@example.com", "WrongPass1!")
	require.ErrorIs(t, err, shared.ErrAccountInactive)
}

func TestRefreshRotatesSingleUse(t *testing.T) {
	f := newServiceFixture(t)
	f.register(t, "ann@example.com")
	_, pair, err := f.service.Login(context.Background(), "ann@example.com", "Sup3rSecret!")
	require.NoError(t, err)

	// Issue timestamps land in the new token; advance the clock so the
	// rotated pair differs from the original.
	*f.clock = f.clock.Add(time.Minute)

	next, err := f.service.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The redeemed token is spent; replaying it reports revocation.
	_, err = f.service.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, shared.ErrTokenRevoked)

	// The replacement still works.
	*f.clock = f.clock.Add(time.Minute)
	_, err = f.service.Refresh(context.Background(), next.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshLedgerExpiryAuthoritative(t *testing.T) {
	f := newServiceFixture(t)
	user := f.register(t, "ann@example.com")
	_, pair, err := f.service.Login(context.Background(), "ann@example.com", "Sup3rSecret!")
	require.NoError(t, err)

	// Shrink the ledger expiry below the token-embedded one.
	row, err := f.ledger.Find(context.Background(), pair.RefreshToken, user.ID)
	require.NoError(t, err)
	f.ledger.rows[ledgerKey{pair.RefreshToken, user.ID}].ExpiresAt = row.CreatedAt.Add(-time.Second)

	_, err = f.service.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, shared.ErrTokenExpired)
}

func TestRefreshUnknownToken(t *testing.T) {
	f := newServiceFixture(t)
	f.register(t, "ann@example.com")
	_, pair, err := f.service.Login(context.Background(), "ann@example.com", "Sup3rSecret!")
	require.NoError(t, err)

	// Valid signature, but the ledger has no matching row.
	delete(f.ledger.rows, ledgerKey{pair.RefreshToken, f.repo.onlyID()})
	_, err = f.service.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestRefreshDeactivatedUser(t *testing.T) {
	f := newServiceFixture(t)
	user := f.register(t, "ann@example.com")
	_, pair, err := f.service.Login(context.Background(), "ann@example.com", "Sup3rSecret!")
	require.NoError(t, err)

	f.repo.users[user.ID].IsActive = false
	_, err = f.service.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, shared.ErrUserGone)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newServiceFixture(t)
	f.register(t, "ann@example.com")
	_, pair, err := f.service.Login(context.Background(), "ann@example.com", "Sup3rSecret!")
	require.NoError(t, err)

	_, err = f.service.Refresh(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestLogoutIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	f.register(t, "ann@example.com")
	_, pair, err := f.service.Login(context.Background(), "ann@example.com", "Sup3rSecret!")
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(context.Background(), pair.RefreshToken))
	require.NoError(t, f.service.Logout(context.Background(), pair.RefreshToken))
	require.NoError(t, f.service.Logout(context.Background(), "garbage"))

	_, err = f.service.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, shared.ErrTokenRevoked)
}

func TestRevokeAllSessions(t *testing.T) {
	f := newServiceFixture(t)
	user := f.register(t, "ann@example.com")
	_, first, err := f.service.Login(context.Background(), "ann@example.com", "Sup3rSecret!")
	require.NoError(t, err)
	*f.clock = f.clock.Add(time.Minute)
	_, second, err := f.service.Login(context.Background(), "ann@example.com", "Sup3rSecret!")
	require.NoError(t, err)

	require.NoError(t, f.service.RevokeAllSessions(context.Background(), user.ID))

	_, err = f.service.Refresh(context.Background(), first.RefreshToken)
	require.ErrorIs(t, err, shared.ErrTokenRevoked)
	_, err = f.service.Refresh(context.Background(), second.RefreshToken)
	require.ErrorIs(t, err, shared.ErrTokenRevoked)
}

func TestClientCredentials(t *testing.T) {
	f := newServiceFixture(t)

	token, err := f.service.ClientCredentials(context.Background(), "svc-client", "svc-secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Machine tokens never touch the ledger.
	require.Empty(t, f.ledger.rows)

	_, err = f.service.ClientCredentials(context.Background(), "svc-client", "bad-secret")
	require.ErrorIs(t, err, shared.ErrInvalidClient)
	_, err = f.service.ClientCredentials(context.Background(), "bad-client", "svc-secret")
	require.ErrorIs(t, err, shared.ErrInvalidClient)
}

func TestClientCredentialsUnconfigured(t *testing.T) {
	f := newServiceFixture(t)
	f.service.cfg.ClientID = ""
	f.service.cfg.ClientSecret = ""

	_, err := f.service.ClientCredentials(context.Background(), "", "")
	require.ErrorIs(t, err, shared.ErrInvalidClient)
}

func TestVerifyAccess(t *testing.T) {
	f := newServiceFixture(t)
	user := f.register(t, "ann@example.com")
	_, pair, err := f.service.Login(context.Background(), "ann@example.com", "Sup3rSecret!")
	require.NoError(t, err)

	got, err := f.service.VerifyAccess(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	f.repo.users[user.ID].IsActive = false
	_, err = f.service.VerifyAccess(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, shared.ErrUserGone)
}

func (r *memoryUserRepo) onlyID() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.users {
		return id
	}
	return uuid.Nil
}
