package workflow

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"foodlink/internal/utils"
	"foodlink/pkg/types"

	"github.com/sirupsen/logrus"
)

type UserManager struct {
	users  UserStore
	logger logrus.FieldLogger
}

func NewUserManager(users UserStore, logger logrus.FieldLogger) *UserManager {
	return &UserManager{users: users, logger: logger}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoUrl"`
}

// Register creates a user with role user. A second registration for the same
// email fails with ErrConflict.
func (m *UserManager) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	name := strings.TrimSpace(in.Name)
	email := utils.NormalizeEmail(in.Email)

	if name == "" {
		return nil, types.InputError("name is required")
	}
	if email == "" {
		return nil, types.InputError("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, types.InputError("email %q is not valid", in.Email)
	}

	user := &types.User{
		Email:    email,
		Name:     name,
		PhotoURL: utils.TrimmedPtr(in.PhotoURL),
		Role:     types.RoleUser,
	}

	if err := m.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	m.logger.WithField("user_id", user.ID).Info("user registered")

	return user, nil
}

// Get is self-service: the caller may only read their own record.
func (m *UserManager) Get(ctx context.Context, caller types.Identity, email string) (*types.User, error) {
	email = utils.NormalizeEmail(email)
	if utils.NormalizeEmail(caller.Email) != email {
		return nil, fmt.Errorf("cannot read another user's profile: %w", types.ErrForbidden)
	}

	return m.users.UserByEmail(ctx, email)
}

func (m *UserManager) GetByID(ctx context.Context, userID string) (*types.User, error) {
	return m.users.UserByID(ctx, userID)
}

func (m *UserManager) Search(ctx context.Context, query string) ([]*types.User, error) {
	return m.users.SearchUsers(ctx, query)
}

func (m *UserManager) ListAll(ctx context.Context) ([]*types.User, error) {
	return m.users.Users(ctx)
}

func (m *UserManager) ListCharities(ctx context.Context) ([]*types.User, error) {
	return m.users.UsersByRole(ctx, types.RoleCharity)
}

// SetRole is the admin override. It bypasses the upgrade-request workflow.
func (m *UserManager) SetRole(ctx context.Context, userID string, role types.Role) (*types.User, error) {
	if !role.Valid() {
		return nil, types.InputError("unknown role %q", role)
	}

	if err := m.users.SetRoleByID(ctx, userID, role); err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{"user_id": userID, "role": role}).Info("user role set")

	return m.users.UserByID(ctx, userID)
}
