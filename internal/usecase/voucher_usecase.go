package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type VoucherUsecase struct {
	voucherRepo repo.VoucherRepository
	auditRepo   repo.AuditLogRepository

	//テストで差し替えるため
	now func() time.Time
}

func NewVoucherUsecase(voucherRepo repo.VoucherRepository, auditRepo repo.AuditLogRepository) *VoucherUsecase {
	return &VoucherUsecase{
		voucherRepo: voucherRepo,
		auditRepo:   auditRepo,
		now:         time.Now,
	}
}

// code正規化（trim + 大文字）
func NormalizeVoucherCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// 検証結果。rejectのときはReasonにメッセージ。
type voucherCheckResult struct {
	OK       bool
	Discount int64
	Reason   string
}

// クーポン1件を小計に対して検証する（純粋ロジック。DBは触らない）。
// 却下理由は利用者にそのまま見せる文字列。
func evaluateVoucher(v model.Voucher, now time.Time, subtotal int64) voucherCheckResult {
	if !v.IsActive {
		return voucherCheckResult{Reason: "voucher code not found or disabled"}
	}

	//期間は両端を含む
	if now.Before(v.StartDate) || now.After(v.EndDate) {
		return voucherCheckResult{Reason: "voucher not yet active or expired"}
	}

	if v.UsageLimit <= 0 {
		return voucherCheckResult{Reason: "voucher usage limit exhausted"}
	}

	if subtotal < v.MinOrderValue {
		return voucherCheckResult{
			Reason: fmt.Sprintf("order does not meet minimum value (min: %s)", formatAmount(v.MinOrderValue)),
		}
	}

	//PERCENTは小計×value/100、それ以外は定額
	var raw int64
	if v.DiscountType == model.DiscountTypePercent {
		raw = subtotal * v.DiscountValue / 100
	} else {
		raw = v.DiscountValue
	}

	return voucherCheckResult{OK: true, Discount: ClampDiscount(raw, subtotal)}
}

// 3桁区切り（エラーメッセージの最低注文額表示に使う）
func formatAmount(v int64) string {
	s := fmt.Sprintf("%d", v)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

type VoucherCheckOutput struct {
	Code           string `json:"code"`
	DiscountAmount int64  `json:"discount_amount"`
	Message        string `json:"message"`
}

// GET /vouchers/check の本体。読み取りのみ（残回数は減らさない）。
func (u *VoucherUsecase) Check(ctx context.Context, code string, orderSubtotal int64) (VoucherCheckOutput, error) {
	normalized := NormalizeVoucherCode(code)
	if normalized == "" {
		return VoucherCheckOutput{}, NewHTTPError(http.StatusBadRequest, "voucher code required")
	}
	if orderSubtotal < 0 {
		return VoucherCheckOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order total")
	}

	v, err := u.voucherRepo.FindByCode(ctx, normalized)
	if err == repo.ErrNotFound {
		return VoucherCheckOutput{}, NewHTTPError(http.StatusBadRequest, "voucher code not found or disabled")
	}
	if err != nil {
		return VoucherCheckOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	res := evaluateVoucher(v, u.now(), orderSubtotal)
	if !res.OK {
		return VoucherCheckOutput{}, NewHTTPError(http.StatusBadRequest, res.Reason)
	}

	return VoucherCheckOutput{
		Code:           v.Code,
		DiscountAmount: res.Discount,
		Message:        "voucher applied",
	}, nil
}

// いま使えるクーポン一覧
func (u *VoucherUsecase) ListAvailable(ctx context.Context) ([]model.Voucher, error) {
	items, err := u.voucherRepo.ListAvailable(ctx, u.now())
	if err != nil {
		return []model.Voucher{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

type AdminVoucherInput struct {
	Code          string
	DiscountType  string
	DiscountValue int64
	MinOrderValue int64
	StartDate     time.Time
	EndDate       time.Time
	UsageLimit    int64
	IsActive      bool
}

// 入力の共通チェック
func (in AdminVoucherInput) validate() error {
	if NormalizeVoucherCode(in.Code) == "" {
		return NewHTTPError(http.StatusBadRequest, "code required")
	}
	switch model.DiscountType(in.DiscountType) {
	case model.DiscountTypePercent, model.DiscountTypeFixedAmount:
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid discount_type")
	}
	if in.DiscountValue <= 0 {
		return NewHTTPError(http.StatusBadRequest, "discount_value must be > 0")
	}
	if model.DiscountType(in.DiscountType) == model.DiscountTypePercent && in.DiscountValue > 100 {
		return NewHTTPError(http.StatusBadRequest, "percent discount must be <= 100")
	}
	if in.MinOrderValue < 0 {
		return NewHTTPError(http.StatusBadRequest, "min_order_value must be >= 0")
	}
	if !in.EndDate.After(in.StartDate) {
		return NewHTTPError(http.StatusBadRequest, "end_date must be after start_date")
	}
	if in.UsageLimit < 0 {
		return NewHTTPError(http.StatusBadRequest, "usage_limit must be >= 0")
	}
	return nil
}

func (u *VoucherUsecase) AdminCreate(ctx context.Context, adminUserID int64, in AdminVoucherInput) (model.Voucher, error) {
	if adminUserID <= 0 {
		return model.Voucher{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return model.Voucher{}, err
	}

	now := u.now()
	v, err := u.voucherRepo.Create(ctx, model.Voucher{
		Code:          NormalizeVoucherCode(in.Code),
		DiscountType:  model.DiscountType(in.DiscountType),
		DiscountValue: in.DiscountValue,
		MinOrderValue: in.MinOrderValue,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		UsageLimit:    in.UsageLimit,
		IsActive:      in.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		//code重複
		return model.Voucher{}, NewHTTPError(http.StatusConflict, "voucher code already exists")
	}

	afterJSON := fmt.Sprintf(`{"code":"%s","usage_limit":%d}`, v.Code, v.UsageLimit)
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateVoucher,
		ResourceType: model.AuditResourceVoucher,
		ResourceID:   v.ID,
		BeforeJSON:   "{}",
		AfterJSON:    afterJSON,
		CreatedAt:    now,
	}); err != nil {
		return model.Voucher{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return v, nil
}

func (u *VoucherUsecase) AdminUpdate(ctx context.Context, adminUserID int64, voucherID int64, in AdminVoucherInput) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if voucherID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := in.validate(); err != nil {
		return err
	}

	before, err := u.voucherRepo.FindByID(ctx, voucherID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	err = u.voucherRepo.Update(ctx, model.Voucher{
		ID:            voucherID,
		Code:          NormalizeVoucherCode(in.Code),
		DiscountType:  model.DiscountType(in.DiscountType),
		DiscountValue: in.DiscountValue,
		MinOrderValue: in.MinOrderValue,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		UsageLimit:    in.UsageLimit,
		IsActive:      in.IsActive,
		UpdatedAt:     u.now(),
	})
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	beforeJSON := fmt.Sprintf(`{"code":"%s","usage_limit":%d,"is_active":%t}`, before.Code, before.UsageLimit, before.IsActive)
	afterJSON := fmt.Sprintf(`{"code":"%s","usage_limit":%d,"is_active":%t}`, NormalizeVoucherCode(in.Code), in.UsageLimit, in.IsActive)
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateVoucher,
		ResourceType: model.AuditResourceVoucher,
		ResourceID:   voucherID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    u.now(),
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return nil
}

func (u *VoucherUsecase) AdminDelete(ctx context.Context, adminUserID int64, voucherID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if voucherID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.voucherRepo.Delete(ctx, voucherID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

type AdminVoucherListOutput struct {
	Items []model.Voucher `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *VoucherUsecase) AdminList(ctx context.Context, f repo.AdminVoucherListFilter) (AdminVoucherListOutput, error) {
	if f.Page < 1 {
		return AdminVoucherListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminVoucherListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	switch f.State {
	case "", "active", "inactive":
	default:
		return AdminVoucherListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid state")
	}

	items, total, err := u.voucherRepo.ListAdmin(ctx, f)
	if err != nil {
		return AdminVoucherListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return AdminVoucherListOutput{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}
