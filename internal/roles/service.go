package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/keygate/keygate/internal/shared"
)

// ResolvedInvalidator invalidates cached effective permission sets. Role
// mutations change what users can do, so the resolver cache must be bumped in
// the same call.
type ResolvedInvalidator interface {
	InvalidateResolved(ctx context.Context) error
}

// Service handles role business logic.
type Service struct {
	repo        Repository
	invalidator ResolvedInvalidator
}

// NewService builds a Service instance. invalidator may be nil.
func NewService(repo Repository, invalidator ResolvedInvalidator) *Service {
	return &Service{repo: repo, invalidator: invalidator}
}

func (s *Service) invalidate(ctx context.Context) error {
	if s.invalidator == nil {
		return nil
	}
	return s.invalidator.InvalidateResolved(ctx)
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by id.
func (s *Service) GetRole(ctx context.Context, id uuid.UUID) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// RolePermissions lists permission names attached to a role.
func (s *Service) RolePermissions(ctx context.Context, id uuid.UUID) ([]string, error) {
	if _, err := s.repo.GetRole(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.RolePermissionNames(ctx, id)
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
}

// UpdateRole updates an existing role. Renames change resolved role sets, so
// the cache is bumped.
func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	role, err := s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description))
	if err != nil {
		return Role{}, err
	}
	return role, s.invalidate(ctx)
}

// DeleteRole removes a role together with its assignments and attachments.
func (s *Service) DeleteRole(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	return s.invalidate(ctx)
}

// AttachPermission links a permission to a role.
func (s *Service) AttachPermission(ctx context.Context, roleID, permissionID uuid.UUID) error {
	if err := s.repo.AttachPermission(ctx, roleID, permissionID); err != nil {
		return err
	}
	return s.invalidate(ctx)
}

// DetachPermission unlinks a permission from a role.
func (s *Service) DetachPermission(ctx context.Context, roleID, permissionID uuid.UUID) error {
	if err := s.repo.DetachPermission(ctx, roleID, permissionID); err != nil {
		return err
	}
	return s.invalidate(ctx)
}
