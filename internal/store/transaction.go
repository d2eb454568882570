package store

import (
	"context"
	"fmt"
	"time"

	"foodlink/internal/utils"
	"foodlink/pkg/types"

	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionTableName = "foodlink.transactions"

type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func (r *TransactionRepository) CreateTransaction(ctx context.Context, txn *types.Transaction) error {
	txn.ID = utils.NanoID()
	txn.CreatedAt = time.Now()

	query, args, err := psql().
		Insert(transactionTableName).
		SetMap(utils.StructToMap(txn)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert transaction query: %w", err)
	}

	_, err = conn(ctx, r.pool).Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to record transaction")
}
