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

const reviewTableName = "foodlink.reviews"

var reviewColumns = utils.StructTagValues(types.Review{})

type ReviewRepository struct {
	pool *pgxpool.Pool
}

func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

func (r *ReviewRepository) CreateReview(ctx context.Context, review *types.Review) error {
	review.ID = utils.NanoID()
	review.CreatedAt = time.Now()

	query, args, err := psql().Insert(reviewTableName).SetMap(utils.StructToMap(review)).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert review query: %w", err)
	}

	_, err = conn(ctx, r.pool).Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create review")
}

// ReviewsByDonation returns reviews oldest first.
func (r *ReviewRepository) ReviewsByDonation(ctx context.Context, donationID string) ([]*types.Review, error) {
	query, args, err := psql().
		Select(reviewColumns...).
		From(reviewTableName).
		Where(sq.Eq{"donation_id": donationID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate reviews query: %w", err)
	}

	reviews := make([]*types.Review, 0)
	err = pgxscan.Select(ctx, conn(ctx, r.pool), &reviews, query, args...)
	if err != nil {
		return nil, utils.ErrorWrapOrNil(err, "failed to fetch reviews")
	}

	return reviews, nil
}
