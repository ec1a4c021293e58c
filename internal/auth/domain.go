package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticatable account.
type User struct {
	ID           uuid.UUID
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken is one row of the issuance ledger. Rows are only ever mutated
// to flip IsRevoked; expired rows are removed by the sweep job.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	IsRevoked bool
	CreatedAt time.Time
}

// TokenPair bundles the two credentials handed out on login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
