package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// txManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type txManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *txManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type txReposMock struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	carts      repo.CartRepository
	cartItems  repo.CartItemRepository
	inventory  repo.InventoryRepository
	products   repo.ProductRepository
	vouchers   repo.VoucherRepository
	payments   repo.PaymentRepository
}

func (r *txReposMock) Orders() repo.OrderRepository         { return r.orders }
func (r *txReposMock) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *txReposMock) Carts() repo.CartRepository           { return r.carts }
func (r *txReposMock) CartItems() repo.CartItemRepository   { return r.cartItems }
func (r *txReposMock) Inventory() repo.InventoryRepository  { return r.inventory }
func (r *txReposMock) Products() repo.ProductRepository     { return r.products }
func (r *txReposMock) Vouchers() repo.VoucherRepository     { return r.vouchers }
func (r *txReposMock) Payments() repo.PaymentRepository     { return r.payments }

// =====================
// Repository mocks
// =====================

type orderRepoMock struct{ mock.Mock }

func (m *orderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *orderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *orderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *orderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *orderRepoMock) UpdatePaymentStatus(ctx context.Context, orderID int64, status model.PaymentStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *orderRepoMock) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	args := m.Called(ctx, userID, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *orderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *orderRepoMock) Stats(ctx context.Context) (repo.OrderStats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(repo.OrderStats)
	return s, args.Error(1)
}

type orderItemRepoMock struct{ mock.Mock }

func (m *orderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *orderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type cartRepoMock struct{ mock.Mock }

func (m *cartRepoMock) GetOrCreateActiveByOwner(ctx context.Context, owner repo.CartOwner) (model.Cart, error) {
	args := m.Called(ctx, owner)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *cartRepoMock) FindActiveByOwner(ctx context.Context, owner repo.CartOwner) (model.Cart, error) {
	args := m.Called(ctx, owner)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *cartRepoMock) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	args := m.Called(ctx, cartID, status)
	return args.Error(0)
}

func (m *cartRepoMock) Clear(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type cartItemRepoMock struct{ mock.Mock }

func (m *cartItemRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *cartItemRepoMock) UpsertByCartProductSize(ctx context.Context, cartID int64, productID int64, size string, addQty int64, maxQty int64, unitPriceSnapshot int64) (bool, error) {
	args := m.Called(ctx, cartID, productID, size, addQty, maxQty, unitPriceSnapshot)
	return args.Bool(0), args.Error(1)
}

func (m *cartItemRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	args := m.Called(ctx, cartItemID, qty)
	return args.Error(0)
}

func (m *cartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *cartItemRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	it, _ := args.Get(0).(model.CartItem)
	return it, args.Error(1)
}

func (m *cartItemRepoMock) IsOwnedBy(ctx context.Context, cartItemID int64, owner repo.CartOwner) (bool, error) {
	args := m.Called(ctx, cartItemID, owner)
	return args.Bool(0), args.Error(1)
}

type inventoryRepoMock struct{ mock.Mock }

func (m *inventoryRepoMock) SetStock(ctx context.Context, productID int64, size string, newStock int64) error {
	args := m.Called(ctx, productID, size, newStock)
	return args.Error(0)
}

func (m *inventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, productID int64, size string, qty int64) (bool, error) {
	args := m.Called(ctx, productID, size, qty)
	return args.Bool(0), args.Error(1)
}

func (m *inventoryRepoMock) IncreaseStock(ctx context.Context, productID int64, size string, qty int64) error {
	args := m.Called(ctx, productID, size, qty)
	return args.Error(0)
}

func (m *inventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

type productRepoMock struct{ mock.Mock }

func (m *productRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *productRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *productRepoMock) FindSize(ctx context.Context, productID int64, size string) (model.ProductSize, error) {
	args := m.Called(ctx, productID, size)
	ps, _ := args.Get(0).(model.ProductSize)
	return ps, args.Error(1)
}

func (m *productRepoMock) ListSizes(ctx context.Context, productID int64) ([]model.ProductSize, error) {
	args := m.Called(ctx, productID)
	items, _ := args.Get(0).([]model.ProductSize)
	return items, args.Error(1)
}

func (m *productRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *productRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *productRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *productRepoMock) UpsertSize(ctx context.Context, productID int64, size string, stock int64) error {
	args := m.Called(ctx, productID, size, stock)
	return args.Error(0)
}

type voucherRepoMock struct{ mock.Mock }

func (m *voucherRepoMock) FindByCode(ctx context.Context, code string) (model.Voucher, error) {
	args := m.Called(ctx, code)
	v, _ := args.Get(0).(model.Voucher)
	return v, args.Error(1)
}

func (m *voucherRepoMock) FindByID(ctx context.Context, id int64) (model.Voucher, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(model.Voucher)
	return v, args.Error(1)
}

func (m *voucherRepoMock) ListAvailable(ctx context.Context, now time.Time) ([]model.Voucher, error) {
	args := m.Called(ctx, now)
	items, _ := args.Get(0).([]model.Voucher)
	return items, args.Error(1)
}

func (m *voucherRepoMock) DecrementUsageIfAvailable(ctx context.Context, voucherID int64) (bool, error) {
	args := m.Called(ctx, voucherID)
	return args.Bool(0), args.Error(1)
}

func (m *voucherRepoMock) Create(ctx context.Context, v model.Voucher) (model.Voucher, error) {
	args := m.Called(ctx, v)
	created, _ := args.Get(0).(model.Voucher)
	return created, args.Error(1)
}

func (m *voucherRepoMock) Update(ctx context.Context, v model.Voucher) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *voucherRepoMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *voucherRepoMock) ListAdmin(ctx context.Context, f repo.AdminVoucherListFilter) ([]model.Voucher, int64, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]model.Voucher)
	return items, args.Get(1).(int64), args.Error(2)
}

type paymentRepoMock struct{ mock.Mock }

func (m *paymentRepoMock) Create(ctx context.Context, p model.Payment) (model.Payment, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Payment)
	return created, args.Error(1)
}

func (m *paymentRepoMock) FindByID(ctx context.Context, paymentID int64) (model.Payment, error) {
	args := m.Called(ctx, paymentID)
	p, _ := args.Get(0).(model.Payment)
	return p, args.Error(1)
}

func (m *paymentRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.Payment, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.Payment)
	return items, args.Error(1)
}

func (m *paymentRepoMock) UpdateStatus(ctx context.Context, paymentID int64, status model.PaymentTxStatus, responseCode string) error {
	args := m.Called(ctx, paymentID, status, responseCode)
	return args.Error(0)
}

type auditRepoMock struct{ mock.Mock }

func (m *auditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *auditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]model.AuditLog)
	return items, args.Error(1)
}

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}
