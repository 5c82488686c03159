// Package store is the Postgres implementation of the booking store.
// Reservation transactions run at SERIALIZABLE isolation, so the conflict
// query and the insert are validated together at commit.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"medpresecure-booking/internal/booking"
)

type Store struct {
	pool *pgxpool.Pool
}

var _ booking.Store = (*Store)(nil)

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies a schema script. Statements must be idempotent.
func (s *Store) Migrate(ctx context.Context, script string) error {
	_, err := s.pool.Exec(ctx, script)
	return err
}

func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx booking.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &apptTx{tx: tx}); err != nil {
		return classify(err)
	}
	return classify(tx.Commit(ctx))
}

// serialization_failure, deadlock_detected
var contentionCodes = map[string]bool{
	"40001": true,
	"40P01": true,
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && contentionCodes[pgErr.Code] {
		return fmt.Errorf("%w: %s", booking.ErrContention, pgErr.Message)
	}
	return err
}
