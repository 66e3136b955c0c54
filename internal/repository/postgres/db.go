package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stadix/stadix/internal/repository"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store implements repository.Store on a pgx pool. Repositories obtained
// from the Store directly run against the pool; inside RunTx they are bound
// to the transaction.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
	}
}

// txAttempts bounds retries of serialization failures (40001/40P01) before
// giving up and surfacing the error.
const txAttempts = 3

func (s *Store) RunTx(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.Tx) error,
) error {
	var err error
	for attempt := 0; attempt < txAttempts; attempt++ {
		err = s.runTxOnce(ctx, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
	}
	return err
}

func (s *Store) runTxOnce(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.Tx) error,
) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, &txView{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (s *Store) Ledger() repository.LedgerRepo   { return &LedgerRepo{db: s.pool} }
func (s *Store) Seats() repository.SeatRepo      { return &SeatRepo{db: s.pool} }
func (s *Store) Bookings() repository.BookingRepo { return &BookingRepo{db: s.pool} }
func (s *Store) Query() repository.QueryRepo     { return &QueryRepo{db: s.pool} }
func (s *Store) Admin() repository.AdminRepo     { return &AdminRepo{db: s.pool} }

// txView exposes the same repositories bound to a single transaction.
type txView struct {
	db DB
}

func (t *txView) Ledger() repository.LedgerRepo   { return &LedgerRepo{db: t.db} }
func (t *txView) Seats() repository.SeatRepo      { return &SeatRepo{db: t.db} }
func (t *txView) Bookings() repository.BookingRepo { return &BookingRepo{db: t.db} }
func (t *txView) Query() repository.QueryRepo     { return &QueryRepo{db: t.db} }
func (t *txView) Admin() repository.AdminRepo     { return &AdminRepo{db: t.db} }
