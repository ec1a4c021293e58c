package roles

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a named grouping of permissions.
type Role struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
