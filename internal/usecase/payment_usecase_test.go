package usecase

import (
	"context"
	"testing"

	"app/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCreatePayment_AmountFromOrderTotal(t *testing.T) {
	ctx := context.Background()

	tx := new(txManagerMock)
	orders := new(orderRepoMock)
	payments := new(paymentRepoMock)

	tx.Repos = &txReposMock{orders: orders, payments: payments}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{
		ID: 10, UserID: 1, TotalAmount: 255000,
		Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusUnpaid,
	}, nil)

	// 金額は注文合計で確定する
	payments.On("Create", mock.Anything, mock.MatchedBy(func(p model.Payment) bool {
		return p.OrderID == 10 &&
			p.Amount == 255000 &&
			p.Method == "CREDIT_CARD" &&
			p.Status == model.PaymentTxStatusPending &&
			p.TransactionID != ""
	})).Return(model.Payment{
		ID: 5, OrderID: 10, Method: "CREDIT_CARD", Amount: 255000,
		TransactionID: "tx-abc", Status: model.PaymentTxStatusPending,
	}, nil)

	uc := NewPaymentUsecase(tx)

	out, err := uc.Create(ctx, 1, false, CreatePaymentInput{OrderID: 10, Method: "CREDIT_CARD"})
	assert.NoError(t, err)
	assert.Equal(t, int64(255000), out.Amount)
	assert.Equal(t, "Pending", out.Status)

	payments.AssertExpectations(t)
}

func TestCreatePayment_OtherUsersOrderHidden(t *testing.T) {
	ctx := context.Background()

	tx := new(txManagerMock)
	orders := new(orderRepoMock)
	payments := new(paymentRepoMock)

	tx.Repos = &txReposMock{orders: orders, payments: payments}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{
		ID: 10, UserID: 99, TotalAmount: 100000, Status: model.OrderStatusPending,
	}, nil)

	uc := NewPaymentUsecase(tx)

	_, err := uc.Create(ctx, 1, false, CreatePaymentInput{OrderID: 10, Method: "CREDIT_CARD"})
	assertErrContains(t, err, "order not found")

	payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreatePayment_CancelledOrder(t *testing.T) {
	ctx := context.Background()

	tx := new(txManagerMock)
	orders := new(orderRepoMock)
	payments := new(paymentRepoMock)

	tx.Repos = &txReposMock{orders: orders, payments: payments}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{
		ID: 10, UserID: 1, Status: model.OrderStatusCancelled,
	}, nil)

	uc := NewPaymentUsecase(tx)

	_, err := uc.Create(ctx, 1, false, CreatePaymentInput{OrderID: 10, Method: "CREDIT_CARD"})
	assertErrContains(t, err, "order cancelled")
}

func TestCreatePayment_AlreadyPaid(t *testing.T) {
	ctx := context.Background()

	tx := new(txManagerMock)
	orders := new(orderRepoMock)
	payments := new(paymentRepoMock)

	tx.Repos = &txReposMock{orders: orders, payments: payments}
	tx.On("WithinTx", mock.Anything).Return(nil)

	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{
		ID: 10, UserID: 1, Status: model.OrderStatusConfirmed, PaymentStatus: model.PaymentStatusPaid,
	}, nil)

	uc := NewPaymentUsecase(tx)

	_, err := uc.Create(ctx, 1, false, CreatePaymentInput{OrderID: 10, Method: "CREDIT_CARD"})
	assertErrContains(t, err, "order already paid")
}

// 確定成功で注文は Paid / Completed になる
func TestConfirmPayment_Success(t *testing.T) {
	ctx := context.Background()

	tx := new(txManagerMock)
	orders := new(orderRepoMock)
	payments := new(paymentRepoMock)

	tx.Repos = &txReposMock{orders: orders, payments: payments}
	tx.On("WithinTx", mock.Anything).Return(nil)

	payments.On("FindByID", mock.Anything, int64(5)).Return(model.Payment{
		ID: 5, OrderID: 10, Status: model.PaymentTxStatusPending, Amount: 255000,
	}, nil)
	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{
		ID: 10, UserID: 1, Status: model.OrderStatusPending, PaymentStatus: model.PaymentStatusUnpaid,
	}, nil)

	payments.On("UpdateStatus", mock.Anything, int64(5), model.PaymentTxStatusSuccess, "00").Return(nil)
	orders.On("UpdatePaymentStatus", mock.Anything, int64(10), model.PaymentStatusPaid).Return(nil)
	orders.On("UpdateStatus", mock.Anything, int64(10), model.OrderStatusCompleted).Return(nil)

	uc := NewPaymentUsecase(tx)

	out, err := uc.Confirm(ctx, 1, false, 5)
	assert.NoError(t, err)
	assert.Equal(t, "Success", out.Status)
	assert.Equal(t, "00", out.ResponseCode)

	payments.AssertExpectations(t)
	orders.AssertExpectations(t)
}

// 二重確定は冪等：更新は走らず成功を返す
func TestConfirmPayment_Idempotent(t *testing.T) {
	ctx := context.Background()

	tx := new(txManagerMock)
	orders := new(orderRepoMock)
	payments := new(paymentRepoMock)

	tx.Repos = &txReposMock{orders: orders, payments: payments}
	tx.On("WithinTx", mock.Anything).Return(nil)

	payments.On("FindByID", mock.Anything, int64(5)).Return(model.Payment{
		ID: 5, OrderID: 10, Status: model.PaymentTxStatusSuccess, ResponseCode: "00",
	}, nil)
	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{
		ID: 10, UserID: 1, Status: model.OrderStatusCompleted, PaymentStatus: model.PaymentStatusPaid,
	}, nil)

	uc := NewPaymentUsecase(tx)

	out, err := uc.Confirm(ctx, 1, false, 5)
	assert.NoError(t, err)
	assert.Equal(t, "Success", out.Status)

	payments.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmPayment_Failed(t *testing.T) {
	ctx := context.Background()

	tx := new(txManagerMock)
	orders := new(orderRepoMock)
	payments := new(paymentRepoMock)

	tx.Repos = &txReposMock{orders: orders, payments: payments}
	tx.On("WithinTx", mock.Anything).Return(nil)

	payments.On("FindByID", mock.Anything, int64(5)).Return(model.Payment{
		ID: 5, OrderID: 10, Status: model.PaymentTxStatusFailed,
	}, nil)
	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{
		ID: 10, UserID: 1, Status: model.OrderStatusPending,
	}, nil)

	uc := NewPaymentUsecase(tx)

	_, err := uc.Confirm(ctx, 1, false, 5)
	assertErrContains(t, err, "payment failed")
}

// 別の決済で入金済みになった注文は、残っているPendingの決済を確定できない
func TestConfirmPayment_SecondPaymentOnPaidOrder(t *testing.T) {
	ctx := context.Background()

	tx := new(txManagerMock)
	orders := new(orderRepoMock)
	payments := new(paymentRepoMock)

	tx.Repos = &txReposMock{orders: orders, payments: payments}
	tx.On("WithinTx", mock.Anything).Return(nil)

	payments.On("FindByID", mock.Anything, int64(6)).Return(model.Payment{
		ID: 6, OrderID: 10, Status: model.PaymentTxStatusPending,
	}, nil)
	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{
		ID: 10, UserID: 1, Status: model.OrderStatusCompleted, PaymentStatus: model.PaymentStatusPaid,
	}, nil)

	uc := NewPaymentUsecase(tx)

	_, err := uc.Confirm(ctx, 1, false, 6)
	assertErrContains(t, err, "order already paid")

	payments.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "UpdatePaymentStatus", mock.Anything, mock.Anything, mock.Anything)
}

// 終端の注文は確定してもステータスを動かさない
func TestConfirmPayment_TerminalOrderNotMoved(t *testing.T) {
	ctx := context.Background()

	tx := new(txManagerMock)
	orders := new(orderRepoMock)
	payments := new(paymentRepoMock)

	tx.Repos = &txReposMock{orders: orders, payments: payments}
	tx.On("WithinTx", mock.Anything).Return(nil)

	payments.On("FindByID", mock.Anything, int64(5)).Return(model.Payment{
		ID: 5, OrderID: 10, Status: model.PaymentTxStatusPending,
	}, nil)
	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{
		ID: 10, UserID: 1, Status: model.OrderStatusCompleted, PaymentStatus: model.PaymentStatusUnpaid,
	}, nil)

	payments.On("UpdateStatus", mock.Anything, int64(5), model.PaymentTxStatusSuccess, "00").Return(nil)
	orders.On("UpdatePaymentStatus", mock.Anything, int64(10), model.PaymentStatusPaid).Return(nil)

	uc := NewPaymentUsecase(tx)

	_, err := uc.Confirm(ctx, 1, false, 5)
	assert.NoError(t, err)

	orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}
