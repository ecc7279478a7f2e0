package orders

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BeginTxer starts the transactions the write paths run in; satisfied by
// *pgxpool.Pool.
type BeginTxer interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Querier is the read subset of *pgxpool.Pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ BeginTxer = (*pgxpool.Pool)(nil)
	_ Querier   = (*pgxpool.Pool)(nil)
)
