package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foodlink/internal/utils"
	"foodlink/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userTableName = "foodlink.users"

var userColumns = utils.StructTagValues(types.User{})

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) UserByID(ctx context.Context, userID string) (*types.User, error) {
	return r.user(ctx, sq.Eq{"id": userID})
}

func (r *UserRepository) UserByEmail(ctx context.Context, email string) (*types.User, error) {
	return r.user(ctx, sq.Eq{"email": email})
}

func (r *UserRepository) user(ctx context.Context, where sq.Eq) (*types.User, error) {
	query, args, err := psql().
		Select(userColumns...).
		From(userTableName).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user query: %w", err)
	}

	var user types.User
	err = pgxscan.Get(ctx, conn(ctx, r.pool), &user, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) Users(ctx context.Context) ([]*types.User, error) {
	return r.users(ctx, nil)
}

func (r *UserRepository) UsersByRole(ctx context.Context, role types.Role) ([]*types.User, error) {
	return r.users(ctx, sq.Eq{"role": role})
}

// SearchUsers matches query case-insensitively as a substring of email or name.
func (r *UserRepository) SearchUsers(ctx context.Context, query string) ([]*types.User, error) {
	return r.users(ctx, searchPredicate(query))
}

func searchPredicate(query string) sq.Sqlizer {
	pattern := containsPattern(strings.TrimSpace(query))
	return sq.Or{
		sq.ILike{"email": pattern},
		sq.ILike{"name": pattern},
	}
}

func (r *UserRepository) users(ctx context.Context, where sq.Sqlizer) ([]*types.User, error) {
	builder := psql().
		Select(userColumns...).
		From(userTableName).
		OrderBy("created_at asc")
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate users query: %w", err)
	}

	users := make([]*types.User, 0)
	err = pgxscan.Select(ctx, conn(ctx, r.pool), &users, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *types.User) error {
	user.ID = utils.NanoID()
	user.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(userTableName).
		SetMap(utils.StructToMap(user)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create user query: %w", err)
	}

	_, err = conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return types.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *UserRepository) SetRoleByID(ctx context.Context, userID string, role types.Role) error {
	return r.setRole(ctx, sq.Eq{"id": userID}, role)
}

func (r *UserRepository) SetRoleByEmail(ctx context.Context, email string, role types.Role) error {
	return r.setRole(ctx, sq.Eq{"email": email}, role)
}

func (r *UserRepository) setRole(ctx context.Context, where sq.Eq, role types.Role) error {
	query, args, err := psql().
		Update(userTableName).
		Set("role", role).
		Where(where).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate set role query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set user role: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrUserNotFound
	}

	return nil
}
