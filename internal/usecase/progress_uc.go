package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/marselbeijing/ispeech-helper/internal/domain"
	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
	"github.com/marselbeijing/ispeech-helper/internal/domain/ports/repository"
)

// Compile-time check
var _ ProgressUseCase = (*progressUC)(nil)

// ProgressUseCase exposes the practice-progress operations consumed by the
// mini-app client.
type ProgressUseCase interface {
	// GetStats returns the user's record with achievements evaluated against
	// it. A user with no history gets a zero-valued record, never an error.
	GetStats(ctx context.Context, userID string) (*model.ProgressRecord, []model.AchievementStatus, error)
	// RecordExercise counts one completed exercise at completedAt, updates
	// the activity calendar and streaks, and persists atomically. Concurrent
	// calls for the same user are serialized; no increment is lost.
	RecordExercise(ctx context.Context, userID string, completedAt time.Time) (*model.ProgressRecord, error)
}

// ProgressCache is an optional read-through snapshot cache in front of the
// repository. Cache failures degrade to repository reads, never to errors.
type ProgressCache interface {
	Get(ctx context.Context, userID string) (*model.ProgressRecord, bool)
	Store(ctx context.Context, rec *model.ProgressRecord)
	Invalidate(ctx context.Context, userID string)
}

type progressUC struct {
	progress repository.ProgressRepository
	cache    ProgressCache // may be nil
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewProgressUseCase(progress repository.ProgressRepository, cache ProgressCache, tm repository.TransactionManager, logger *zerolog.Logger) *progressUC {
	l := logger.With().Str("component", "ProgressUC").Logger()
	return &progressUC{progress: progress, cache: cache, tm: tm, log: &l}
}

func (uc *progressUC) GetStats(ctx context.Context, userID string) (*model.ProgressRecord, []model.AchievementStatus, error) {
	if uc.cache != nil {
		if rec, ok := uc.cache.Get(ctx, userID); ok {
			return rec, model.EvaluateAchievements(rec), nil
		}
	}

	rec, err := uc.progress.Find(ctx, repository.NoTX, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		rec = model.NewProgressRecord(userID)
	case err != nil:
		return nil, nil, err
	}

	if uc.cache != nil {
		uc.cache.Store(ctx, rec)
	}
	return rec, model.EvaluateAchievements(rec), nil
}

func (uc *progressUC) RecordExercise(ctx context.Context, userID string, completedAt time.Time) (*model.ProgressRecord, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if completedAt.IsZero() {
		completedAt = time.Now()
	}

	var rec *model.ProgressRecord
	err := uc.tm.WithUserTx(ctx, userID, func(ctx context.Context, tx repository.Tx) error {
		found, err := uc.progress.Find(ctx, tx, userID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			found = model.NewProgressRecord(userID)
		case err != nil:
			return err
		}
		found.RecordExercise(completedAt)
		if err := uc.progress.Save(ctx, tx, found); err != nil {
			return err
		}
		rec = found
		return nil
	})
	if err != nil {
		uc.log.Error().Err(err).Str("user_id", userID).Msg("record exercise failed")
		return nil, err
	}

	if uc.cache != nil {
		uc.cache.Invalidate(ctx, userID)
	}
	uc.log.Debug().
		Str("user_id", userID).
		Int("total", rec.TotalExercises).
		Int("streak", rec.CurrentStreak).
		Msg("exercise recorded")
	return rec, nil
}
