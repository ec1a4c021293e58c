package rbac

import (
	"time"

	"github.com/google/uuid"
)

// Permission represents an atomic capability, named with a dotted action
// string such as "users.read".
type Permission struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Mode selects how a requirement's lists are matched.
type Mode string

const (
	// ModeAny passes when at least one listed name is held.
	ModeAny Mode = "any"
	// ModeAll passes only when every listed name is held.
	ModeAll Mode = "all"
)

// Requirement is a declarative authorization demand. When both Roles and
// Permissions are non-empty, each check must pass independently under the
// shared mode.
type Requirement struct {
	Roles       []string
	Permissions []string
	Mode        Mode
}
