package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	//(商品,サイズ)の在庫行を1件取得
	FindSize(ctx context.Context, productID int64, size string) (model.ProductSize, error)
	ListSizes(ctx context.Context, productID int64) ([]model.ProductSize, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error

	//サイズ行の追加（商品作成・更新時）
	UpsertSize(ctx context.Context, productID int64, size string, stock int64) error
}
