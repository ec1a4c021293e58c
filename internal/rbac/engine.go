package rbac

import (
	"context"

	"github.com/keygate/keygate/internal/shared"
)

// Evaluate checks a requirement against the identity's resolved roles and
// permissions. A nil identity denies before any resolution, as a distinct
// unauthenticated condition. When both lists are present each must pass on
// its own; grants are purely additive, so there is no deny precedence to
// weigh.
func (s *Service) Evaluate(ctx context.Context, identity *shared.Identity, req Requirement) error {
	if identity == nil {
		return shared.ErrUnauthenticated
	}
	if len(req.Roles) > 0 {
		held, err := s.EffectiveRoles(ctx, identity.UserID)
		if err != nil {
			return err
		}
		if !matches(req.Mode, req.Roles, held) {
			return shared.ErrForbidden
		}
	}
	if len(req.Permissions) > 0 {
		held, err := s.EffectivePermissions(ctx, identity.UserID)
		if err != nil {
			return err
		}
		if !matches(req.Mode, req.Permissions, held) {
			return shared.ErrForbidden
		}
	}
	return nil
}

func matches(mode Mode, required, held []string) bool {
	set := make(map[string]struct{}, len(held))
	for _, name := range held {
		set[name] = struct{}{}
	}
	if mode == ModeAll {
		for _, name := range required {
			if _, ok := set[name]; !ok {
				return false
			}
		}
		return true
	}
	for _, name := range required {
		if _, ok := set[name]; ok {
			return true
		}
	}
	return false
}
