package adapter

import (
	"context"

	"github.com/marselbeijing/ispeech-helper/internal/domain/model"
)

// IdentityProvider resolves an opaque client credential (Telegram WebApp
// initData in production) into an authenticated session user. The handshake
// itself is a black box to the engine; only a stable user id is required.
type IdentityProvider interface {
	Resolve(ctx context.Context, credential string) (*model.User, error)
}
