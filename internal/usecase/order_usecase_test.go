package usecase

import (
	"context"
	"testing"
	"time"

	"app/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newOrderUCForTest(tx *txManagerMock) *OrderUsecase {
	uc := NewOrderUsecase(tx)
	uc.now = func() time.Time { return testNow }
	return uc
}

func validOrderInput() CreateOrderInput {
	return CreateOrderInput{
		ReceiverName:    "山田太郎",
		ReceiverPhone:   "090-0000-0000",
		ReceiverAddress: "東京都渋谷区1-2-3",
		PaymentMethod:   "COD",
		IdempotencyKey:  "key-123",
	}
}

func TestCreateOrder_MissingReceiver(t *testing.T) {
	tx := new(txManagerMock)
	uc := newOrderUCForTest(tx)

	in := validOrderInput()
	in.ReceiverName = "  "

	_, err := uc.CreateOrder(context.Background(), 1, in)
	assertErrContains(t, err, "receiver_name required")
}

func TestCreateOrder_MissingIdempotencyKey(t *testing.T) {
	tx := new(txManagerMock)
	uc := newOrderUCForTest(tx)

	in := validOrderInput()
	in.IdempotencyKey = ""

	_, err := uc.CreateOrder(context.Background(), 1, in)
	assertErrContains(t, err, "invalid idempotency_key")
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	ctx := context.Background()
	userID := int64(1)

	tx := new(txManagerMock)
	orders := new(orderRepoMock)
	carts := new(cartRepoMock)
	cartItems := new(cartItemRepoMock)

	tx.Repos = &txReposMock{orders: orders, carts: carts, cartItems: cartItems}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orders.On("FindByIdempotencyKey", mock.Anything, userID, "key-123").Return(model.Order{}, false, nil)
	carts.On("FindActiveByOwner", mock.Anything, mock.Anything).Return(model.Cart{ID: 5}, nil)
	cartItems.On("ListByCartID", mock.Anything, int64(5)).Return([]model.CartItem{}, nil)

	uc := newOrderUCForTest(tx)

	_, err := uc.CreateOrder(ctx, userID, validOrderInput())
	assertErrContains(t, err, "cart empty")
}

// 同じキーなら作り直さず同じ結果を返す
func TestCreateOrder_IdempotentReplay(t *testing.T) {
	ctx := context.Background()
	userID := int64(1)

	tx := new(txManagerMock)
	orders := new(orderRepoMock)

	tx.Repos = &txReposMock{orders: orders}
	tx.On("WithinTx", mock.Anything).Return(nil)

	existing := model.Order{ID: 77, TotalAmount: 255000}
	orders.On("FindByIdempotencyKey", mock.Anything, userID, "key-123").Return(existing, true, nil)

	uc := newOrderUCForTest(tx)

	out, err := uc.CreateOrder(ctx, userID, validOrderInput())
	assert.NoError(t, err)
	assert.Equal(t, int64(77), out.OrderID)
	assert.Equal(t, int64(255000), out.TotalAmount)

	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// 3明細＋10%クーポン。明細は「今の価格」でスナップショットされ、
// カートはCHECKED_OUTにされてクリアされる。
func TestCreateOrder_FullCheckout(t *testing.T) {
	ctx := context.Background()
	userID := int64(1)

	tx := new(txManagerMock)
	orders := new(orderRepoMock)
	orderItems := new(orderItemRepoMock)
	carts := new(cartRepoMock)
	cartItems := new(cartItemRepoMock)
	products := new(productRepoMock)
	vouchers := new(voucherRepoMock)

	tx.Repos = &txReposMock{
		orders:     orders,
		orderItems: orderItems,
		carts:      carts,
		cartItems:  cartItems,
		products:   products,
		vouchers:   vouchers,
	}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orders.On("FindByIdempotencyKey", mock.Anything, userID, "key-123").Return(model.Order{}, false, nil)
	carts.On("FindActiveByOwner", mock.Anything, mock.Anything).Return(model.Cart{ID: 5}, nil)

	// カート追加時の価格（古い）は10000。今の価格で組み直されること
	cartItems.On("ListByCartID", mock.Anything, int64(5)).Return([]model.CartItem{
		{ID: 1, CartID: 5, ProductID: 100, Size: "M", Quantity: 2, UnitPriceSnapshot: 10000},
		{ID: 2, CartID: 5, ProductID: 101, Size: "L", Quantity: 1, UnitPriceSnapshot: 10000},
	}, nil)

	products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{ID: 100, Name: "シャツ", Price: 100000, IsActive: true}, nil)
	products.On("FindByID", mock.Anything, int64(101)).Return(model.Product{ID: 101, Name: "パンツ", Price: 50000, IsActive: true}, nil)
	products.On("FindSize", mock.Anything, int64(100), "M").Return(model.ProductSize{ProductID: 100, Size: "M", Stock: 10}, nil)
	products.On("FindSize", mock.Anything, int64(101), "L").Return(model.ProductSize{ProductID: 101, Size: "L", Stock: 10}, nil)

	vouchers.On("FindByCode", mock.Anything, "SALE10").Return(validVoucher(), nil)
	vouchers.On("DecrementUsageIfAvailable", mock.Anything, int64(1)).Return(true, nil)

	// 小計250000・割引25000・送料30000・合計255000
	orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.Status == model.OrderStatusPending &&
			o.PaymentStatus == model.PaymentStatusUnpaid &&
			o.ShippingFee == 30000 &&
			o.DiscountAmount == 25000 &&
			o.TotalAmount == 255000 &&
			o.VoucherID != nil && *o.VoucherID == 1 &&
			o.IdempotencyKey == "key-123"
	})).Return(int64(42), nil)

	orderItems.On("CreateBulk", mock.Anything, int64(42), mock.MatchedBy(func(items []model.OrderItem) bool {
		if len(items) != 2 {
			return false
		}
		// 今の価格でスナップショット
		return items[0].UnitPriceSnapshot == 100000 && items[0].TotalPrice == 200000 &&
			items[1].UnitPriceSnapshot == 50000 && items[1].TotalPrice == 50000
	})).Return(nil)

	carts.On("UpdateStatus", mock.Anything, int64(5), model.CartStatusCheckedOut).Return(nil)
	carts.On("Clear", mock.Anything, int64(5)).Return(nil)

	uc := newOrderUCForTest(tx)

	in := validOrderInput()
	in.VoucherCode = "sale10"

	out, err := uc.CreateOrder(ctx, userID, in)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), out.OrderID)
	assert.Equal(t, int64(255000), out.TotalAmount)

	orders.AssertExpectations(t)
	orderItems.AssertExpectations(t)
	carts.AssertExpectations(t)
	vouchers.AssertExpectations(t)
}

// クーポンが確定時の再検証で落ちたら注文ごと中断
func TestCreateOrder_VoucherRevalidationAborts(t *testing.T) {
	ctx := context.Background()
	userID := int64(1)

	tx := new(txManagerMock)
	orders := new(orderRepoMock)
	carts := new(cartRepoMock)
	cartItems := new(cartItemRepoMock)
	products := new(productRepoMock)
	vouchers := new(voucherRepoMock)

	tx.Repos = &txReposMock{
		orders:    orders,
		carts:     carts,
		cartItems: cartItems,
		products:  products,
		vouchers:  vouchers,
	}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orders.On("FindByIdempotencyKey", mock.Anything, userID, "key-123").Return(model.Order{}, false, nil)
	carts.On("FindActiveByOwner", mock.Anything, mock.Anything).Return(model.Cart{ID: 5}, nil)
	cartItems.On("ListByCartID", mock.Anything, int64(5)).Return([]model.CartItem{
		{ID: 1, CartID: 5, ProductID: 100, Size: "M", Quantity: 1},
	}, nil)
	products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{ID: 100, Name: "シャツ", Price: 50000, IsActive: true}, nil)
	products.On("FindSize", mock.Anything, int64(100), "M").Return(model.ProductSize{ProductID: 100, Size: "M", Stock: 10}, nil)

	// 小計50000 < 最低100000
	vouchers.On("FindByCode", mock.Anything, "SALE10").Return(validVoucher(), nil)

	uc := newOrderUCForTest(tx)

	in := validOrderInput()
	in.VoucherCode = "SALE10"

	_, err := uc.CreateOrder(ctx, userID, in)
	assertErrContains(t, err, "order does not meet minimum value (min: 100,000)")

	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	vouchers.AssertNotCalled(t, "DecrementUsageIfAvailable", mock.Anything, mock.Anything)
}

// 条件付きデクリメントが負けたら中断（同時売り切り対策）
func TestCreateOrder_VoucherDecrementRace(t *testing.T) {
	ctx := context.Background()
	userID := int64(1)

	tx := new(txManagerMock)
	orders := new(orderRepoMock)
	carts := new(cartRepoMock)
	cartItems := new(cartItemRepoMock)
	products := new(productRepoMock)
	vouchers := new(voucherRepoMock)

	tx.Repos = &txReposMock{
		orders:    orders,
		carts:     carts,
		cartItems: cartItems,
		products:  products,
		vouchers:  vouchers,
	}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orders.On("FindByIdempotencyKey", mock.Anything, userID, "key-123").Return(model.Order{}, false, nil)
	carts.On("FindActiveByOwner", mock.Anything, mock.Anything).Return(model.Cart{ID: 5}, nil)
	cartItems.On("ListByCartID", mock.Anything, int64(5)).Return([]model.CartItem{
		{ID: 1, CartID: 5, ProductID: 100, Size: "M", Quantity: 2},
	}, nil)
	products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{ID: 100, Name: "シャツ", Price: 100000, IsActive: true}, nil)
	products.On("FindSize", mock.Anything, int64(100), "M").Return(model.ProductSize{ProductID: 100, Size: "M", Stock: 10}, nil)

	vouchers.On("FindByCode", mock.Anything, "SALE10").Return(validVoucher(), nil)
	vouchers.On("DecrementUsageIfAvailable", mock.Anything, int64(1)).Return(false, nil)

	uc := newOrderUCForTest(tx)

	in := validOrderInput()
	in.VoucherCode = "SALE10"

	_, err := uc.CreateOrder(ctx, userID, in)
	assertErrContains(t, err, "voucher usage limit exhausted")

	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrder_OutOfStock(t *testing.T) {
	ctx := context.Background()
	userID := int64(1)

	tx := new(txManagerMock)
	orders := new(orderRepoMock)
	carts := new(cartRepoMock)
	cartItems := new(cartItemRepoMock)
	products := new(productRepoMock)

	tx.Repos = &txReposMock{
		orders:    orders,
		carts:     carts,
		cartItems: cartItems,
		products:  products,
	}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orders.On("FindByIdempotencyKey", mock.Anything, userID, "key-123").Return(model.Order{}, false, nil)
	carts.On("FindActiveByOwner", mock.Anything, mock.Anything).Return(model.Cart{ID: 5}, nil)
	cartItems.On("ListByCartID", mock.Anything, int64(5)).Return([]model.CartItem{
		{ID: 1, CartID: 5, ProductID: 100, Size: "M", Quantity: 3},
	}, nil)
	products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{ID: 100, Name: "シャツ", Price: 100000, IsActive: true}, nil)
	products.On("FindSize", mock.Anything, int64(100), "M").Return(model.ProductSize{ProductID: 100, Size: "M", Stock: 2}, nil)

	uc := newOrderUCForTest(tx)

	_, err := uc.CreateOrder(ctx, userID, validOrderInput())
	assertErrContains(t, err, "out of stock")

	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetOrderDetail_OtherUserHidden(t *testing.T) {
	ctx := context.Background()

	tx := new(txManagerMock)
	orders := new(orderRepoMock)
	orderItems := new(orderItemRepoMock)

	tx.Repos = &txReposMock{orders: orders, orderItems: orderItems}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{ID: 9, UserID: 2}, nil)

	uc := newOrderUCForTest(tx)

	//他人の注文は404
	_, err := uc.GetOrderDetail(ctx, 1, false, 9)
	assertErrContains(t, err, "not found")
}

func TestGetOrderDetail_AdminSeesAll(t *testing.T) {
	ctx := context.Background()

	tx := new(txManagerMock)
	orders := new(orderRepoMock)
	orderItems := new(orderItemRepoMock)

	tx.Repos = &txReposMock{orders: orders, orderItems: orderItems}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orders.On("FindByID", mock.Anything, int64(9)).Return(model.Order{ID: 9, UserID: 2, Status: model.OrderStatusPending}, nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(9)).Return([]model.OrderItem{}, nil)

	uc := newOrderUCForTest(tx)

	out, err := uc.GetOrderDetail(ctx, 1, true, 9)
	assert.NoError(t, err)
	assert.Equal(t, int64(9), out.ID)
}
