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

const requestTableName = "foodlink.requests"

var requestColumns = utils.StructTagValues(types.Request{})

type RequestRepository struct {
	pool *pgxpool.Pool
}

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

func (r *RequestRepository) Request(ctx context.Context, requestID string) (*types.Request, error) {
	query, args, err := psql().
		Select(requestColumns...).
		From(requestTableName).
		Where(sq.Eq{"id": requestID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request query: %w", err)
	}

	var request types.Request
	err = pgxscan.Get(ctx, conn(ctx, r.pool), &request, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to fetch request: %w", err)
	}

	return &request, nil
}

func (r *RequestRepository) RequestsByCharity(ctx context.Context, email string) ([]*types.Request, error) {
	return r.requests(ctx, sq.Eq{"charity_email": email})
}

func (r *RequestRepository) RequestsByDonation(ctx context.Context, donationID string) ([]*types.Request, error) {
	return r.requests(ctx, sq.Eq{"donation_id": donationID})
}

func (r *RequestRepository) RequestsByRestaurant(ctx context.Context, email string) ([]*types.Request, error) {
	return r.requests(ctx, sq.Eq{"restaurant_email": email})
}

func (r *RequestRepository) requests(ctx context.Context, where sq.Eq) ([]*types.Request, error) {
	query, args, err := psql().
		Select(requestColumns...).
		From(requestTableName).
		Where(where).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate requests query: %w", err)
	}

	requests := make([]*types.Request, 0)
	err = pgxscan.Select(ctx, conn(ctx, r.pool), &requests, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requests: %w", err)
	}

	return requests, nil
}

func (r *RequestRepository) CreateRequest(ctx context.Context, request *types.Request) error {
	request.ID = utils.NanoID()
	request.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(requestTableName).
		SetMap(utils.StructToMap(request)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create request query: %w", err)
	}

	_, err = conn(ctx, r.pool).Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create request")
}

func (r *RequestRepository) SetRequestStatus(ctx context.Context, requestID string, from, to types.RequestStatus) error {
	query, args, err := transitionQuery(requestTableName, requestID, from, to)
	if err != nil {
		return fmt.Errorf("failed to generate request status query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("request %s is no longer %s: %w", requestID, from, types.ErrInvalidTransition)
	}

	return nil
}

// DeleteRequest removes the request only while it is still in status.
func (r *RequestRepository) DeleteRequest(ctx context.Context, requestID string, status types.RequestStatus) error {
	query, args, err := psql().Delete(requestTableName).Where(sq.Eq{"id": requestID, "status": status}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete request query: %w", err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("request %s is no longer %s: %w", requestID, status, types.ErrInvalidTransition)
	}

	return nil
}
