package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keygate/keygate/internal/platform/db"
	"github.com/keygate/keygate/internal/shared"
)

// Repository defines persistence for permissions, direct grants, role
// assignments and the effective-set queries.
type Repository interface {
	ListPermissions(ctx context.Context) ([]Permission, error)
	GetPermission(ctx context.Context, id uuid.UUID) (Permission, error)
	CreatePermission(ctx context.Context, name, description string) (Permission, error)
	UpdatePermission(ctx context.Context, id uuid.UUID, name, description string) (Permission, error)
	DeletePermission(ctx context.Context, id uuid.UUID) error

	GrantToUser(ctx context.Context, userID, permissionID uuid.UUID) error
	RevokeFromUser(ctx context.Context, userID, permissionID uuid.UUID) error
	AssignRole(ctx context.Context, userID, roleID uuid.UUID) error
	RemoveRole(ctx context.Context, userID, roleID uuid.UUID) error

	UserPermissionNames(ctx context.Context, userID uuid.UUID) ([]string, error)
	UserRoleNames(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const permissionColumns = `id, name, description, created_at, updated_at`

func scanPermission(row pgx.Row) (Permission, error) {
	var p Permission
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, fmt.Errorf("%w: permission", shared.ErrNotFound)
		}
		return Permission{}, err
	}
	return p, nil
}

// ListPermissions returns all permissions ordered by name.
func (r *PGRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+permissionColumns+` FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// GetPermission fetches a permission by id.
func (r *PGRepository) GetPermission(ctx context.Context, id uuid.UUID) (Permission, error) {
	return scanPermission(r.pool.QueryRow(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id))
}

// CreatePermission inserts a new permission.
func (r *PGRepository) CreatePermission(ctx context.Context, name, description string) (Permission, error) {
	p, err := scanPermission(r.pool.QueryRow(ctx,
		`INSERT INTO permissions (id, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, now(), now())
		 RETURNING `+permissionColumns,
		uuid.New(), name, description))
	if db.IsUniqueViolation(err) {
		return Permission{}, fmt.Errorf("%w: permission with this name", shared.ErrConflict)
	}
	return p, err
}

// UpdatePermission updates name and description.
func (r *PGRepository) UpdatePermission(ctx context.Context, id uuid.UUID, name, description string) (Permission, error) {
	p, err := scanPermission(r.pool.QueryRow(ctx,
		`UPDATE permissions SET name = $2, description = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+permissionColumns,
		id, name, description))
	if db.IsUniqueViolation(err) {
		return Permission{}, fmt.Errorf("%w: permission with this name", shared.ErrConflict)
	}
	return p, err
}

// DeletePermission removes the permission and, in the same transaction, every
// join row referencing it. Cascades are explicit here, not schema magic.
func (r *PGRepository) DeletePermission(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE permission_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_permissions WHERE permission_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: permission", shared.ErrNotFound)
		}
		return nil
	})
}

// GrantToUser creates a direct grant. The pair is unique.
func (r *PGRepository) GrantToUser(ctx context.Context, userID, permissionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_permissions (user_id, permission_id, created_at) VALUES ($1, $2, now())`,
		userID, permissionID)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: user already has this permission", shared.ErrConflict)
	}
	return err
}

// RevokeFromUser removes a direct grant.
func (r *PGRepository) RevokeFromUser(ctx context.Context, userID, permissionID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_permissions WHERE user_id = $1 AND permission_id = $2`,
		userID, permissionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user does not have this permission", shared.ErrNotFound)
	}
	return nil
}

// AssignRole links a role to a user. The pair is unique.
func (r *PGRepository) AssignRole(ctx context.Context, userID, roleID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id, created_at) VALUES ($1, $2, now())`,
		userID, roleID)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: user already has this role", shared.ErrConflict)
	}
	return err
}

// RemoveRole unlinks a role from a user.
func (r *PGRepository) RemoveRole(ctx context.Context, userID, roleID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`,
		userID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user does not have this role", shared.ErrNotFound)
	}
	return nil
}

// UserPermissionNames returns the effective permission names for a user: the
// union of direct grants and role-derived grants. The inner UNION of
// permission ids is what deduplicates a permission held both ways.
func (r *PGRepository) UserPermissionNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.name FROM permissions p
		WHERE p.id IN (
			SELECT up.permission_id FROM user_permissions up WHERE up.user_id = $1
			UNION
			SELECT rp.permission_id FROM role_permissions rp
			JOIN user_roles ur ON ur.role_id = rp.role_id
			WHERE ur.user_id = $1
		)
		ORDER BY p.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNames(rows)
}

// UserRoleNames returns the names of roles assigned to a user. No hierarchy;
// a direct projection of the join table.
func (r *PGRepository) UserRoleNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNames(rows)
}

func scanNames(rows pgx.Rows) ([]string, error) {
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
