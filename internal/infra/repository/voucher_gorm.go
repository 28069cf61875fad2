package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type VoucherGormRepository struct {
	db *gorm.DB
}

func NewVoucherGormRepository(db *gorm.DB) *VoucherGormRepository {
	return &VoucherGormRepository{db: db}
}

// codeは正規化済み（trim+upper）の前提で完全一致
func (r *VoucherGormRepository) FindByCode(ctx context.Context, code string) (model.Voucher, error) {
	var v model.Voucher
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Voucher{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Voucher{}, err
	}
	return v, nil
}

func (r *VoucherGormRepository) FindByID(ctx context.Context, id int64) (model.Voucher, error) {
	var v model.Voucher
	err := r.db.WithContext(ctx).First(&v, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Voucher{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Voucher{}, err
	}
	return v, nil
}

// いま使えるもの（active・期間内・残回数あり）
func (r *VoucherGormRepository) ListAvailable(ctx context.Context, now time.Time) ([]model.Voucher, error) {
	var items []model.Voucher
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("start_date <= ? AND end_date >= ?", now, now).
		Where("usage_limit > 0").
		Order("end_date asc").
		Find(&items).Error
	if err != nil {
		return []model.Voucher{}, err
	}
	return items, nil
}

// 残回数が正のときだけ1減らす（同時注文で使い切りを超えないように条件付きUPDATE）
func (r *VoucherGormRepository) DecrementUsageIfAvailable(ctx context.Context, voucherID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Voucher{}).
		Where("id = ? AND usage_limit > 0", voucherID).
		Update("usage_limit", gorm.Expr("usage_limit - ?", 1))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

func (r *VoucherGormRepository) Create(ctx context.Context, v model.Voucher) (model.Voucher, error) {
	if err := r.db.WithContext(ctx).Create(&v).Error; err != nil {
		return model.Voucher{}, err
	}
	return v, nil
}

func (r *VoucherGormRepository) Update(ctx context.Context, v model.Voucher) error {
	res := r.db.WithContext(ctx).Model(&model.Voucher{}).Where("id = ?", v.ID).Updates(map[string]interface{}{
		"code":            v.Code,
		"discount_type":   v.DiscountType,
		"discount_value":  v.DiscountValue,
		"min_order_value": v.MinOrderValue,
		"start_date":      v.StartDate,
		"end_date":        v.EndDate,
		"usage_limit":     v.UsageLimit,
		"is_active":       v.IsActive,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *VoucherGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Voucher{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *VoucherGormRepository) ListAdmin(ctx context.Context, f repo.AdminVoucherListFilter) ([]model.Voucher, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Voucher{})

	switch f.State {
	case "active":
		q = q.Where("is_active = ?", true)
	case "inactive":
		q = q.Where("is_active = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Voucher{}, 0, err
	}

	var items []model.Voucher
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("id desc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Voucher{}, 0, err
	}

	return items, total, nil
}
