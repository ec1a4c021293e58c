package rbac

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKindPermissions = "perms"
	cacheKindRoles       = "roles"
)

// Service resolves effective permission and role sets and owns every grant
// mutation, so cache invalidation cannot be bypassed.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

// NewService constructs a Service. cache may be nil.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// EffectivePermissions returns the deduplicated permission names for a user:
// direct grants unioned with grants reachable through every assigned role.
// Concurrent resolutions for the same user collapse into one store query.
func (s *Service) EffectivePermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if names, ok := s.cache.Fetch(ctx, cacheKindPermissions, userID); ok {
		return names, nil
	}
	v, err, _ := s.group.Do(cacheKindPermissions+":"+userID.String(), func() (any, error) {
		names, err := s.repo.UserPermissionNames(ctx, userID)
		if err != nil {
			return nil, err
		}
		s.cache.Store(ctx, cacheKindPermissions, userID, names)
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// EffectiveRoles returns the role names assigned to a user.
func (s *Service) EffectiveRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if names, ok := s.cache.Fetch(ctx, cacheKindRoles, userID); ok {
		return names, nil
	}
	v, err, _ := s.group.Do(cacheKindRoles+":"+userID.String(), func() (any, error) {
		names, err := s.repo.UserRoleNames(ctx, userID)
		if err != nil {
			return nil, err
		}
		s.cache.Store(ctx, cacheKindRoles, userID, names)
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// ListPermissions returns all permissions.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// GetPermission fetches a permission by id.
func (s *Service) GetPermission(ctx context.Context, id uuid.UUID) (Permission, error) {
	return s.repo.GetPermission(ctx, id)
}

// CreatePermission inserts a new permission.
func (s *Service) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	return s.repo.CreatePermission(ctx, name, description)
}

// UpdatePermission renames a permission. Resolved sets expose names, so a
// rename invalidates the cache too.
func (s *Service) UpdatePermission(ctx context.Context, id uuid.UUID, name, description string) (Permission, error) {
	p, err := s.repo.UpdatePermission(ctx, id, name, description)
	if err != nil {
		return Permission{}, err
	}
	return p, s.cache.Bump(ctx)
}

// DeletePermission removes a permission and its join rows.
func (s *Service) DeletePermission(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeletePermission(ctx, id); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

// GrantToUser creates a direct grant.
func (s *Service) GrantToUser(ctx context.Context, userID, permissionID uuid.UUID) error {
	if err := s.repo.GrantToUser(ctx, userID, permissionID); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

// RevokeFromUser removes a direct grant.
func (s *Service) RevokeFromUser(ctx context.Context, userID, permissionID uuid.UUID) error {
	if err := s.repo.RevokeFromUser(ctx, userID, permissionID); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

// AssignRole links a role to a user.
func (s *Service) AssignRole(ctx context.Context, userID, roleID uuid.UUID) error {
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

// RemoveRole unlinks a role from a user.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID uuid.UUID) error {
	if err := s.repo.RemoveRole(ctx, userID, roleID); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}

// InvalidateResolved exposes the cache bump to sibling packages that mutate
// role definitions (attach/detach permission, delete role).
func (s *Service) InvalidateResolved(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
