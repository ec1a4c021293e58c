package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenLedger is the persistent record of issued refresh tokens. Rows are
// appended on issuance and mutated only to flip is_revoked; physical deletion
// happens solely in SweepExpired.
type TokenLedger interface {
	Record(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	Find(ctx context.Context, token string, userID uuid.UUID) (*RefreshToken, error)
	// Revoke flips is_revoked and reports whether this call performed the
	// flip. A false result means the row was absent or already revoked, which
	// the rotation path treats as a lost race.
	Revoke(ctx context.Context, token string, userID uuid.UUID) (bool, error)
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// PGLedger implements TokenLedger on PostgreSQL.
type PGLedger struct {
	pool *pgxpool.Pool
}

// NewPGLedger constructs a PostgreSQL-backed ledger.
func NewPGLedger(pool *pgxpool.Pool) *PGLedger {
	return &PGLedger{pool: pool}
}

// Record inserts a new ledger row with is_revoked = false.
func (l *PGLedger) Record(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token, expires_at, is_revoked, created_at)
		 VALUES ($1, $2, $3, $4, FALSE, now())`,
		uuid.New(), userID, token, expiresAt.UTC())
	return err
}

// Find fetches the ledger row for a token and its owning user.
func (l *PGLedger) Find(ctx context.Context, token string, userID uuid.UUID) (*RefreshToken, error) {
	row := l.pool.QueryRow(ctx,
		`SELECT id, user_id, token, expires_at, is_revoked, created_at
		 FROM refresh_tokens WHERE token = $1 AND user_id = $2`,
		token, userID)
	var rt RefreshToken
	if err := row.Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.IsRevoked, &rt.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rt, nil
}

// Revoke conditionally flips is_revoked. The WHERE guard on is_revoked makes
// concurrent rotations of the same token resolve to at most one winner.
func (l *PGLedger) Revoke(ctx context.Context, token string, userID uuid.UUID) (bool, error) {
	tag, err := l.pool.Exec(ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE
		 WHERE token = $1 AND user_id = $2 AND is_revoked = FALSE`,
		token, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RevokeAllForUser flips every live token for the user. Kept as the
// "log out everywhere" capability; not wired to a route.
func (l *PGLedger) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE
		 WHERE user_id = $1 AND is_revoked = FALSE`,
		userID)
	return err
}

// SweepExpired deletes rows past their expiry. Housekeeping only: expiry is
// re-checked at refresh time regardless of whether the sweep has run.
func (l *PGLedger) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := l.pool.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1`, now.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ TokenLedger = (*PGLedger)(nil)
