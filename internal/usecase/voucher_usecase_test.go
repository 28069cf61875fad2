package usecase

import (
	"context"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newVoucherUCForTest(vr repo.VoucherRepository, ar repo.AuditLogRepository) *VoucherUsecase {
	uc := NewVoucherUsecase(vr, ar)
	uc.now = func() time.Time { return testNow }
	return uc
}

func validVoucher() model.Voucher {
	return model.Voucher{
		ID:            1,
		Code:          "SALE10",
		DiscountType:  model.DiscountTypePercent,
		DiscountValue: 10,
		MinOrderValue: 100000,
		StartDate:     testNow.AddDate(0, -1, 0),
		EndDate:       testNow.AddDate(0, 1, 0),
		UsageLimit:    5,
		IsActive:      true,
	}
}

func TestNormalizeVoucherCode(t *testing.T) {
	assert.Equal(t, "SALE10", NormalizeVoucherCode("  sale10  "))
	assert.Equal(t, "", NormalizeVoucherCode("   "))
}

func TestEvaluateVoucher_Percent(t *testing.T) {
	res := evaluateVoucher(validVoucher(), testNow, 250000)
	assert.True(t, res.OK)
	assert.Equal(t, int64(25000), res.Discount)
}

func TestEvaluateVoucher_FixedAmount(t *testing.T) {
	v := validVoucher()
	v.DiscountType = model.DiscountTypeFixedAmount
	v.DiscountValue = 40000

	res := evaluateVoucher(v, testNow, 250000)
	assert.True(t, res.OK)
	assert.Equal(t, int64(40000), res.Discount)
}

// 定額割引は小計を超えない
func TestEvaluateVoucher_FixedAmountClampedToSubtotal(t *testing.T) {
	v := validVoucher()
	v.DiscountType = model.DiscountTypeFixedAmount
	v.DiscountValue = 500000
	v.MinOrderValue = 0

	res := evaluateVoucher(v, testNow, 120000)
	assert.True(t, res.OK)
	assert.Equal(t, int64(120000), res.Discount)
}

func TestEvaluateVoucher_Inactive(t *testing.T) {
	v := validVoucher()
	v.IsActive = false

	res := evaluateVoucher(v, testNow, 250000)
	assert.False(t, res.OK)
	assert.Equal(t, "voucher code not found or disabled", res.Reason)
}

// 期間は両端を含む
func TestEvaluateVoucher_WindowBoundaries(t *testing.T) {
	v := validVoucher()

	resStart := evaluateVoucher(v, v.StartDate, 250000)
	assert.True(t, resStart.OK)

	resEnd := evaluateVoucher(v, v.EndDate, 250000)
	assert.True(t, resEnd.OK)

	resBefore := evaluateVoucher(v, v.StartDate.Add(-time.Second), 250000)
	assert.False(t, resBefore.OK)
	assert.Equal(t, "voucher not yet active or expired", resBefore.Reason)

	resAfter := evaluateVoucher(v, v.EndDate.Add(time.Second), 250000)
	assert.False(t, resAfter.OK)
	assert.Equal(t, "voucher not yet active or expired", resAfter.Reason)
}

func TestEvaluateVoucher_UsageExhausted(t *testing.T) {
	v := validVoucher()
	v.UsageLimit = 0

	res := evaluateVoucher(v, testNow, 250000)
	assert.False(t, res.OK)
	assert.Equal(t, "voucher usage limit exhausted", res.Reason)
}

// 最低注文額のメッセージは3桁区切り
func TestEvaluateVoucher_MinOrderValue(t *testing.T) {
	v := validVoucher()
	v.MinOrderValue = 1500000

	res := evaluateVoucher(v, testNow, 250000)
	assert.False(t, res.OK)
	assert.Equal(t, "order does not meet minimum value (min: 1,500,000)", res.Reason)
}

func TestVoucherCheck_NormalizesCode(t *testing.T) {
	vr := new(voucherRepoMock)
	ar := new(auditRepoMock)
	uc := newVoucherUCForTest(vr, ar)

	vr.On("FindByCode", mock.Anything, "SALE10").Return(validVoucher(), nil)

	out, err := uc.Check(context.Background(), "  sale10 ", 250000)
	assert.NoError(t, err)
	assert.Equal(t, "SALE10", out.Code)
	assert.Equal(t, int64(25000), out.DiscountAmount)

	vr.AssertExpectations(t)
}

func TestVoucherCheck_NotFound(t *testing.T) {
	vr := new(voucherRepoMock)
	ar := new(auditRepoMock)
	uc := newVoucherUCForTest(vr, ar)

	vr.On("FindByCode", mock.Anything, "NOPE").Return(model.Voucher{}, repo.ErrNotFound)

	_, err := uc.Check(context.Background(), "nope", 250000)
	assertErrContains(t, err, "voucher code not found or disabled")
}

func TestVoucherCheck_EmptyCode(t *testing.T) {
	vr := new(voucherRepoMock)
	ar := new(auditRepoMock)
	uc := newVoucherUCForTest(vr, ar)

	_, err := uc.Check(context.Background(), "   ", 250000)
	assertErrContains(t, err, "voucher code required")
}

// checkは読み取りだけ。残回数は減らさない
func TestVoucherCheck_DoesNotDecrement(t *testing.T) {
	vr := new(voucherRepoMock)
	ar := new(auditRepoMock)
	uc := newVoucherUCForTest(vr, ar)

	vr.On("FindByCode", mock.Anything, "SALE10").Return(validVoucher(), nil)

	_, err := uc.Check(context.Background(), "SALE10", 250000)
	assert.NoError(t, err)

	vr.AssertNotCalled(t, "DecrementUsageIfAvailable", mock.Anything, mock.Anything)
}

func TestAdminCreateVoucher_InvalidDiscountType(t *testing.T) {
	vr := new(voucherRepoMock)
	ar := new(auditRepoMock)
	uc := newVoucherUCForTest(vr, ar)

	in := AdminVoucherInput{
		Code:          "NEW",
		DiscountType:  "BOGUS",
		DiscountValue: 10,
		StartDate:     testNow,
		EndDate:       testNow.AddDate(0, 1, 0),
		UsageLimit:    10,
		IsActive:      true,
	}

	_, err := uc.AdminCreate(context.Background(), 1, in)
	assertErrContains(t, err, "invalid discount_type")
}

func TestAdminCreateVoucher_PercentOver100(t *testing.T) {
	vr := new(voucherRepoMock)
	ar := new(auditRepoMock)
	uc := newVoucherUCForTest(vr, ar)

	in := AdminVoucherInput{
		Code:          "NEW",
		DiscountType:  "PERCENT",
		DiscountValue: 120,
		StartDate:     testNow,
		EndDate:       testNow.AddDate(0, 1, 0),
		UsageLimit:    10,
		IsActive:      true,
	}

	_, err := uc.AdminCreate(context.Background(), 1, in)
	assertErrContains(t, err, "percent discount must be <= 100")
}

func TestAdminCreateVoucher_WritesAuditLog(t *testing.T) {
	vr := new(voucherRepoMock)
	ar := new(auditRepoMock)
	uc := newVoucherUCForTest(vr, ar)

	created := validVoucher()
	vr.On("Create", mock.Anything, mock.Anything).Return(created, nil)
	ar.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateVoucher && l.ResourceType == model.AuditResourceVoucher
	})).Return(nil)

	in := AdminVoucherInput{
		Code:          "sale10",
		DiscountType:  "PERCENT",
		DiscountValue: 10,
		MinOrderValue: 100000,
		StartDate:     testNow.AddDate(0, -1, 0),
		EndDate:       testNow.AddDate(0, 1, 0),
		UsageLimit:    5,
		IsActive:      true,
	}

	out, err := uc.AdminCreate(context.Background(), 1, in)
	assert.NoError(t, err)
	assert.Equal(t, "SALE10", out.Code)

	vr.AssertExpectations(t)
	ar.AssertExpectations(t)
}
