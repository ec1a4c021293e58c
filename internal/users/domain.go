package users

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user account for management purposes.
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
