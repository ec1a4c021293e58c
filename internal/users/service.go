package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/shared"
)

// ResolvedInvalidator invalidates cached effective permission sets after a
// user deletion removes assignment rows.
type ResolvedInvalidator interface {
	InvalidateResolved(ctx context.Context) error
}

// CreateUserInput carries the fields for an administrative user creation.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	IsActive  bool
}

// UpdateUserInput carries the mutable profile fields. Nil pointers leave the
// current value untouched.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	IsActive  *bool
}

// Service handles user management business logic.
type Service struct {
	repo        Repository
	invalidator ResolvedInvalidator
}

// NewService builds a Service instance. invalidator may be nil.
func NewService(repo Repository, invalidator ResolvedInvalidator) *Service {
	return &Service{repo: repo, invalidator: invalidator}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser fetches a user by id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser creates an account administratively, applying the same password
// rules as self-registration.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	if _, err := s.repo.GetUserByEmail(ctx, in.Email); err == nil {
		return User{}, fmt.Errorf("%w: user with this email", shared.ErrConflict)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return User{}, err
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return User{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}
	user := User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		IsActive:     in.IsActive,
	}
	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateUser applies the provided fields. An email change re-checks
// uniqueness before persisting.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Email != nil && *in.Email != user.Email {
		if _, err := s.repo.GetUserByEmail(ctx, *in.Email); err == nil {
			return User{}, fmt.Errorf("%w: email already in use", shared.ErrConflict)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return User{}, err
		}
		user.Email = *in.Email
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if err := s.repo.UpdateUser(ctx, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// DeleteUser removes the account and everything that hangs off it. Ledger
// tokens go with the user, so deletion invalidates every session.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	if s.invalidator != nil {
		return s.invalidator.InvalidateResolved(ctx)
	}
	return nil
}

// ChangePassword verifies the current password before applying the strength
// rules to the new one.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(current, user.PasswordHash) {
		return fmt.Errorf("%w: current password is incorrect", shared.ErrValidation)
	}
	if err := auth.ValidatePassword(next); err != nil {
		return err
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}
