package repository

import (
	"context"

	"app/internal/domain/model"
)

// カートの所有者。
// ログイン済みならUserID、ゲストならSessionTokenのどちらか片方だけを入れる。
type CartOwner struct {
	UserID       *int64
	SessionToken string
}

type CartRepository interface {
	GetOrCreateActiveByOwner(ctx context.Context, owner CartOwner) (model.Cart, error)
	FindActiveByOwner(ctx context.Context, owner CartOwner) (model.Cart, error)
	UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error
	Clear(ctx context.Context, cartID int64) error
}
