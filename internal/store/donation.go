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

const donationTableName = "foodlink.donations"

var donationColumns = utils.StructTagValues(types.Donation{})

type DonationRepository struct {
	pool *pgxpool.Pool
}

func NewDonationRepository(pool *pgxpool.Pool) *DonationRepository {
	return &DonationRepository{pool: pool}
}

func (r *DonationRepository) Donation(ctx context.Context, donationID string) (*types.Donation, error) {
	query, args, err := psql().Select(donationColumns...).From(donationTableName).
		Where(sq.Eq{"id": donationID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donation query: %w", err)
	}

	var donation = new(types.Donation)
	err = pgxscan.Get(ctx, conn(ctx, r.pool), donation, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrDonationNotFound
		}
		return nil, fmt.Errorf("failed to fetch donation: %w", err)
	}

	return donation, nil
}

func (r *DonationRepository) Donations(ctx context.Context) ([]*types.Donation, error) {
	return r.donations(ctx, nil)
}

func (r *DonationRepository) DonationsByRestaurant(ctx context.Context, email string) ([]*types.Donation, error) {
	return r.donations(ctx, sq.Eq{"restaurant_email": email})
}

func (r *DonationRepository) donations(ctx context.Context, where sq.Sqlizer) ([]*types.Donation, error) {
	builder := psql().Select(donationColumns...).From(donationTableName).
		OrderBy("created_at desc")
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate donations query: %w", err)
	}

	var donations = make([]*types.Donation, 0)
	err = pgxscan.Select(ctx, conn(ctx, r.pool), &donations, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch donations: %w", err)
	}

	return donations, nil
}

func (r *DonationRepository) CreateDonation(ctx context.Context, donation *types.Donation) error {
	donation.ID = utils.NanoID()
	donation.CreatedAt = time.Now()

	query, args, err := psql().Insert(donationTableName).SetMap(utils.StructToMap(donation)).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert donation query: %w", err)
	}

	_, err = conn(ctx, r.pool).Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create donation")
}

func (r *DonationRepository) UpdateDonation(ctx context.Context, donationID string, patch types.DonationPatch) error {
	patchMap := utils.PatchMap(patch)
	if len(patchMap) == 0 {
		return nil
	}

	query, args, err := psql().Update(donationTableName).SetMap(patchMap).Where(sq.Eq{"id": donationID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update donation query for donation %s: %w", donationID, err)
	}

	return r.execOne(ctx, query, args, "failed to update donation")
}

func (r *DonationRepository) SetDonationStatus(ctx context.Context, donationID string, from, to types.DonationStatus) error {
	query, args, err := transitionQuery(donationTableName, donationID, from, to)
	if err != nil {
		return fmt.Errorf("failed to generate donation status query for donation %s: %w", donationID, err)
	}

	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set donation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("donation %s is no longer %s: %w", donationID, from, types.ErrInvalidTransition)
	}

	return nil
}

func (r *DonationRepository) DeleteDonation(ctx context.Context, donationID string) error {
	query, args, err := psql().Delete(donationTableName).Where(sq.Eq{"id": donationID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete donation query for donation %s: %w", donationID, err)
	}

	return r.execOne(ctx, query, args, "failed to delete donation")
}

func (r *DonationRepository) execOne(ctx context.Context, query string, args []any, msg string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}

	if tag.RowsAffected() == 0 {
		return types.ErrDonationNotFound
	}

	return nil
}
