package repository

import (
	"context"

	"app/internal/domain/model"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// 同じ(商品,サイズ)は数量プラス。
	// 合算後の数量がmaxQtyを超えるなら書き込まずfalseを返す。
	UpsertByCartProductSize(ctx context.Context, cartID int64, productID int64, size string, addQty int64, maxQty int64, unitPriceSnapshot int64) (bool, error)
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	IsOwnedBy(ctx context.Context, cartItemID int64, owner CartOwner) (bool, error)
}
