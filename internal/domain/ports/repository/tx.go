package repository

import "context"

// Tx is an opaque transaction handle. The concrete type is infra-defined
// (pgx.Tx for Postgres); repositories accept nil for the non-transactional
// path. Keeping it opaque stops transaction types leaking into use cases.
type Tx interface{}

// NoTX marks an explicitly non-transactional call.
var NoTX Tx

// TransactionManager executes a function inside a database transaction,
// handing the transaction handle to the callback. If the callback errors the
// transaction is rolled back, otherwise committed.
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// WithUserTx additionally serializes on a per-user lock for the duration
	// of the transaction, so concurrent read-modify-write cycles for the same
	// user cannot interleave.
	WithUserTx(ctx context.Context, userID string, fn func(ctx context.Context, tx Tx) error) error
}
