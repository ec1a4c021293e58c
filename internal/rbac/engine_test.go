package rbac

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/keygate/keygate/internal/shared"
)

type engineFixture struct {
	svc  *Service
	repo *memoryRBACRepo
	bob  uuid.UUID
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	ctx := context.Background()
	repo := newMemoryRBACRepo()
	svc := NewService(repo, nil)

	read, err := svc.CreatePermission(ctx, "users.read", "")
	require.NoError(t, err)
	write, err := svc.CreatePermission(ctx, "users.update", "")
	require.NoError(t, err)

	admin := repo.addRole("admin")

	bob := uuid.New()
	require.NoError(t, svc.GrantToUser(ctx, bob, read.ID))
	require.NoError(t, svc.GrantToUser(ctx, bob, write.ID))
	require.NoError(t, svc.AssignRole(ctx, bob, admin))

	return &engineFixture{svc: svc, repo: repo, bob: bob}
}

func (f *engineFixture) identity() *shared.Identity {
	return &shared.Identity{UserID: f.bob, Email: "bob@example.com"}
}

func TestEvaluateNilIdentity(t *testing.T) {
	f := newEngineFixture(t)
	err := f.svc.Evaluate(context.Background(), nil, Requirement{
		Permissions: []string{"users.read"},
		Mode:        ModeAny,
	})
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestEvaluateEmptyRequirement(t *testing.T) {
	f := newEngineFixture(t)
	require.NoError(t, f.svc.Evaluate(context.Background(), f.identity(), Requirement{Mode: ModeAll}))
}

func TestEvaluateAnyPermissions(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Evaluate(ctx, f.identity(), Requirement{
		Permissions: []string{"users.delete", "users.read"},
		Mode:        ModeAny,
	}))
	require.ErrorIs(t, f.svc.Evaluate(ctx, f.identity(), Requirement{
		Permissions: []string{"users.delete", "roles.read"},
		Mode:        ModeAny,
	}), shared.ErrForbidden)
}

func TestEvaluateAllPermissions(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Evaluate(ctx, f.identity(), Requirement{
		Permissions: []string{"users.read", "users.update"},
		Mode:        ModeAll,
	}))
	require.ErrorIs(t, f.svc.Evaluate(ctx, f.identity(), Requirement{
		Permissions: []string{"users.read", "users.delete"},
		Mode:        ModeAll,
	}), shared.ErrForbidden)
}

func TestEvaluateAllRoles(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Evaluate(ctx, f.identity(), Requirement{
		Roles: []string{"admin"},
		Mode:  ModeAll,
	}))
	// Holding admin alone cannot satisfy ALL of {admin, auditor}.
	require.ErrorIs(t, f.svc.Evaluate(ctx, f.identity(), Requirement{
		Roles: []string{"admin", "auditor"},
		Mode:  ModeAll,
	}), shared.ErrForbidden)
	require.NoError(t, f.svc.Evaluate(ctx, f.identity(), Requirement{
		Roles: []string{"admin", "auditor"},
		Mode:  ModeAny,
	}))
}

func TestEvaluateRolesAndPermissionsBothChecked(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	// Both lists present: each must pass independently.
	require.NoError(t, f.svc.Evaluate(ctx, f.identity(), Requirement{
		Roles:       []string{"admin"},
		Permissions: []string{"users.read"},
		Mode:        ModeAll,
	}))
	require.ErrorIs(t, f.svc.Evaluate(ctx, f.identity(), Requirement{
		Roles:       []string{"auditor"},
		Permissions: []string{"users.read"},
		Mode:        ModeAny,
	}), shared.ErrForbidden)
	require.ErrorIs(t, f.svc.Evaluate(ctx, f.identity(), Requirement{
		Roles:       []string{"admin"},
		Permissions: []string{"users.delete"},
		Mode:        ModeAny,
	}), shared.ErrForbidden)
}
