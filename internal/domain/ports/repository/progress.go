package repository

import (
	"context"

	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
)

// ProgressRepository is the port for durable progress records. Implementations
// return domain.ErrNotFound when no record exists for the user and
// domain.ErrStorageUnavailable (wrapped) on storage failure.
type ProgressRepository interface {
	Find(ctx context.Context, tx Tx, userID string) (*model.ProgressRecord, error)
	Save(ctx context.Context, tx Tx, rec *model.ProgressRecord) error
}
