package postgres

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/marselbeijing/ispeech-helper/internal/domain"
	"github.com/marselbeijing/ispeech-helper/internal/domain/ports/repository"
)

// Ensure compile-time conformance
var _ repository.TransactionManager = (*TxManager)(nil)

// TxManager implements repository.TransactionManager for Postgres. The pgx
// transaction is handed to the callback through the opaque repository.Tx.
type TxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return m.run(ctx, "", fn)
}

// WithUserTx takes a transaction-scoped advisory lock keyed by the user id
// before invoking the callback, so read-modify-write cycles for the same
// user execute one at a time across all instances sharing the database.
func (m *TxManager) WithUserTx(ctx context.Context, userID string, fn func(ctx context.Context, tx repository.Tx) error) error {
	if userID == "" {
		return domain.ErrInvalidArgument
	}
	return m.run(ctx, userID, fn)
}

func (m *TxManager) run(ctx context.Context, lockUserID string, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageErr(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if lockUserID != "" {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey(lockUserID)); err != nil {
			return storageErr(err)
		}
	}
	if err := fn(ctx, tx); err != nil {
		return err // rollback in defer
	}
	if err := tx.Commit(ctx); err != nil {
		return storageErr(err)
	}
	return nil
}

// storageErr wraps infrastructure failures into the domain taxonomy so
// callers can test errors.Is(err, domain.ErrStorageUnavailable).
func storageErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}

// lockKey maps a user id onto the advisory-lock keyspace.
func lockKey(userID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(userID))
	return int64(h.Sum64() & ((1 << 63) - 1))
}

// executor resolves the handle repository methods should run against: the
// transaction when one is in flight, the pool otherwise.
type executor interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func getExecutor(pool *pgxpool.Pool, tx repository.Tx) (executor, error) {
	switch v := tx.(type) {
	case pgx.Tx:
		return v, nil
	case *pgxpool.Conn:
		return v, nil
	case *pgxpool.Pool:
		return v, nil
	case nil:
		if pool != nil {
			return pool, nil
		}
		return nil, domain.ErrInvalidArgument
	default:
		return nil, domain.ErrInvalidArgument
	}
}
