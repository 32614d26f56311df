package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/marselbeijing/ispeech-helper/internal/domain"
	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
	"github.com/marselbeijing/ispeech-helper/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

// Schema:
//
//	CREATE TABLE IF NOT EXISTS user_subscriptions (
//	    user_id    TEXT PRIMARY KEY,
//	    tier       TEXT NOT NULL,
//	    expires_at TIMESTAMPTZ,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//
// expires_at stays in place after lapsing; the active flag is derived at
// read time, never stored.
type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

func (r *subscriptionRepo) Find(ctx context.Context, tx repository.Tx, userID string) (*model.SubscriptionRecord, error) {
	const q = `
SELECT user_id, tier, expires_at, updated_at
  FROM user_subscriptions
 WHERE user_id=$1;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	var (
		rec  model.SubscriptionRecord
		tier string
	)
	err = ex.QueryRow(ctx, q, userID).Scan(&rec.UserID, &tier, &rec.ExpiresAt, &rec.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, domain.ErrNotFound
	case err != nil:
		return nil, storageErr(err)
	}
	rec.Tier = model.Tier(tier)
	return &rec, nil
}

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, rec *model.SubscriptionRecord) error {
	const q = `
INSERT INTO user_subscriptions (user_id, tier, expires_at, updated_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (user_id) DO UPDATE SET
  tier=$2, expires_at=$3, updated_at=$4;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, rec.UserID, rec.Tier, rec.ExpiresAt, rec.UpdatedAt); err != nil {
		return storageErr(err)
	}
	return nil
}

func (r *subscriptionRepo) CountActiveByTier(ctx context.Context) (map[model.Tier]int, error) {
	const q = `
SELECT tier, COUNT(*)
  FROM user_subscriptions
 WHERE expires_at IS NOT NULL AND expires_at > NOW()
 GROUP BY tier;`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	out := make(map[model.Tier]int)
	for rows.Next() {
		var (
			tier string
			n    int
		)
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, storageErr(err)
		}
		out[model.Tier(tier)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}
