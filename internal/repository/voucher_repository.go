package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type AdminVoucherListFilter struct {
	Page  int
	Limit int
	// "" / "active" / "inactive"
	State string
}

// クーポンの保存・取得の約束。
type VoucherRepository interface {
	//codeは呼び出し側で正規化（trim+upper）済みの前提
	FindByCode(ctx context.Context, code string) (model.Voucher, error)
	FindByID(ctx context.Context, id int64) (model.Voucher, error)

	//いま使えるもの（active・期間内・残回数あり）だけ返す
	ListAvailable(ctx context.Context, now time.Time) ([]model.Voucher, error)

	//残回数が正のときだけ1減らす。減らせたらtrue。
	DecrementUsageIfAvailable(ctx context.Context, voucherID int64) (bool, error)

	Create(ctx context.Context, v model.Voucher) (model.Voucher, error)
	Update(ctx context.Context, v model.Voucher) error
	Delete(ctx context.Context, id int64) error
	ListAdmin(ctx context.Context, f AdminVoucherListFilter) ([]model.Voucher, int64, error)
}
