package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/marselbeijing/ispeech-helper/internal/domain"
	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
	"github.com/marselbeijing/ispeech-helper/internal/domain/ports/repository"
)

// Ensure progressRepo implements repository.ProgressRepository
var _ repository.ProgressRepository = (*progressRepo)(nil)

// Schema:
//
//	CREATE TABLE IF NOT EXISTS user_progress (
//	    user_id         TEXT PRIMARY KEY,
//	    total_exercises INT NOT NULL DEFAULT 0,
//	    activity_dates  TEXT[] NOT NULL DEFAULT '{}',
//	    current_streak  INT NOT NULL DEFAULT 0,
//	    best_streak     INT NOT NULL DEFAULT 0,
//	    updated_at      TIMESTAMPTZ NOT NULL
//	);
//
// activity_dates holds ISO dates (YYYY-MM-DD, UTC days) in ascending order.
type progressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *progressRepo {
	return &progressRepo{pool: pool}
}

const isoDay = "2006-01-02"

func encodeDays(days []time.Time) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, d.Format(isoDay))
	}
	return out
}

func decodeDays(raw []string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		d, err := time.ParseInLocation(isoDay, s, time.UTC)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *progressRepo) Find(ctx context.Context, tx repository.Tx, userID string) (*model.ProgressRecord, error) {
	const q = `
SELECT user_id, total_exercises, activity_dates, current_streak, best_streak, updated_at
  FROM user_progress
 WHERE user_id=$1;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	var (
		rec  model.ProgressRecord
		days []string
	)
	err = ex.QueryRow(ctx, q, userID).Scan(
		&rec.UserID, &rec.TotalExercises, &days, &rec.CurrentStreak, &rec.BestStreak, &rec.UpdatedAt,
	)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, domain.ErrNotFound
	case err != nil:
		return nil, storageErr(err)
	}
	if rec.ActivityDates, err = decodeDays(days); err != nil {
		return nil, storageErr(err)
	}
	return &rec, nil
}

func (r *progressRepo) Save(ctx context.Context, tx repository.Tx, rec *model.ProgressRecord) error {
	const q = `
INSERT INTO user_progress (user_id, total_exercises, activity_dates, current_streak, best_streak, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (user_id) DO UPDATE SET
  total_exercises=$2, activity_dates=$3, current_streak=$4, best_streak=$5, updated_at=$6;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, rec.UserID, rec.TotalExercises, encodeDays(rec.ActivityDates), rec.CurrentStreak, rec.BestStreak, rec.UpdatedAt); err != nil {
		return storageErr(err)
	}
	return nil
}
