package store

import (
	"context"
	"fmt"
	"time"

	"foodlink/internal/utils"
	"foodlink/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const upgradeTableName = "foodlink.upgrade_requests"

var upgradeColumns = utils.StructTagValues(types.UpgradeRequest{})

var outstandingStatuses = []types.UpgradeStatus{types.UpgradeStatusPending, types.UpgradeStatusApproved}

// UpgradeRepository stores role-upgrade requests for every track in one table.
type UpgradeRepository struct {
	pool *pgxpool.Pool
}

func NewUpgradeRepository(pool *pgxpool.Pool) *UpgradeRepository {
	return &UpgradeRepository{pool: pool}
}

func (r *UpgradeRepository) UpgradeRequest(ctx context.Context, requestID string) (*types.UpgradeRequest, error) {
	requests, err := r.upgradeRequests(ctx, sq.Eq{"id": requestID}, 1)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, types.ErrUpgradeNotFound
	}
	return requests[0], nil
}

func (r *UpgradeRepository) UpgradeRequests(ctx context.Context, track types.UpgradeTrack) ([]*types.UpgradeRequest, error) {
	return r.upgradeRequests(ctx, sq.Eq{"track": track}, 0)
}

func (r *UpgradeRepository) UpgradeRequestsByEmail(ctx context.Context, track types.UpgradeTrack, email string) ([]*types.UpgradeRequest, error) {
	return r.upgradeRequests(ctx, sq.Eq{"track": track, "email": email}, 0)
}

// OutstandingUpgradeRequest returns the Pending or Approved request for email, or ErrUpgradeNotFound.
func (r *UpgradeRepository) OutstandingUpgradeRequest(ctx context.Context, track types.UpgradeTrack, email string) (*types.UpgradeRequest, error) {
	requests, err := r.upgradeRequests(ctx, sq.Eq{"track": track, "email": email, "status": outstandingStatuses}, 1)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, types.ErrUpgradeNotFound
	}
	return requests[0], nil
}

func (r *UpgradeRepository) upgradeRequests(ctx context.Context, where sq.Eq, limit uint64) ([]*types.UpgradeRequest, error) {
	builder := psql().
		Select(upgradeColumns...).
		From(upgradeTableName).
		Where(where).
		OrderBy("created_at desc")
	if limit > 0 {
		builder = builder.Limit(limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate upgrade request query: %w", err)
	}

	requests := make([]*types.UpgradeRequest, 0)
	err = pgxscan.Select(ctx, conn(ctx, r.pool), &requests, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch upgrade requests: %w", err)
	}

	return requests, nil
}

// CreateUpgradeRequest relies on upgrade_requests_outstanding_idx to reject a
// second outstanding request for the same track and email.
func (r *UpgradeRepository) CreateUpgradeRequest(ctx context.Context, request *types.UpgradeRequest) error {
	request.ID = utils.NanoID()
	request.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(upgradeTableName).
		SetMap(utils.StructToMap(request)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create upgrade request query: %w", err)
	}

	_, err = conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return types.ErrUpgradeOutstanding
		}
		return fmt.Errorf("failed to create upgrade request: %w", err)
	}

	return nil
}

func (r *UpgradeRepository) SetUpgradeStatus(ctx context.Context, requestID string, from, to types.UpgradeStatus) error {
	query, args, err := transitionQuery(upgradeTableName, requestID, from, to)
	if err != nil {
		return fmt.Errorf("failed to generate upgrade status query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return types.ErrUpgradeOutstanding
		}
		return fmt.Errorf("failed to set upgrade request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("upgrade request %s is no longer %s: %w", requestID, from, types.ErrInvalidTransition)
	}

	return nil
}

func (r *UpgradeRepository) DeleteUpgradeRequest(ctx context.Context, requestID string) error {
	query, args, err := psql().Delete(upgradeTableName).Where(sq.Eq{"id": requestID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete upgrade request query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete upgrade request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrUpgradeNotFound
	}

	return nil
}
