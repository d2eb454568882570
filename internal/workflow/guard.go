package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"foodlink/internal/utils"
	"foodlink/pkg/types"
)

// Guard confirms that a verified identity holds one of a set of roles. Roles
// are independent predicates: an admin does not pass a charity check.
type Guard struct {
	users UserStore
}

func NewGuard(users UserStore) *Guard {
	return &Guard{users: users}
}

// RequireRole returns the caller's record when its stored role is in roles.
// With no roles it only requires the caller to be registered.
func (g *Guard) RequireRole(ctx context.Context, identity types.Identity, roles ...types.Role) (*types.User, error) {
	email := utils.NormalizeEmail(identity.Email)
	if email == "" {
		return nil, types.ErrUnauthenticated
	}

	user, err := g.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("%s is not registered: %w", email, types.ErrForbidden)
		}
		return nil, err
	}

	if len(roles) > 0 && !slices.Contains(roles, user.Role) {
		return nil, fmt.Errorf("role %s is not permitted: %w", user.Role, types.ErrForbidden)
	}

	return user, nil
}
