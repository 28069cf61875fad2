package usecase

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// 決済の作成・確定。外部ゲートウェイは持たず、確定APIで成功を記録する。
type PaymentUsecase struct {
	tx repo.TransactionManager
}

func NewPaymentUsecase(tx repo.TransactionManager) *PaymentUsecase {
	return &PaymentUsecase{tx: tx}
}

type CreatePaymentInput struct {
	OrderID int64
	Method  string
	Note    string
}

type PaymentOutput struct {
	ID            int64  `json:"id"`
	OrderID       int64  `json:"order_id"`
	Method        string `json:"method"`
	Amount        int64  `json:"amount"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	ResponseCode  string `json:"response_code,omitempty"`
}

// 決済作成。金額は注文の合計で確定し、クライアントからは受け取らない。
func (u *PaymentUsecase) Create(ctx context.Context, userID int64, isAdmin bool, in CreatePaymentInput) (PaymentOutput, error) {
	if in.OrderID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	if in.Method == "" {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "method required")
	}

	var created model.Payment

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		order, err := r.Orders().FindByID(ctx, in.OrderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 他人の注文は存在を隠す
		if !isAdmin && order.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if order.Status == model.OrderStatusCancelled {
			return NewHTTPError(http.StatusBadRequest, "order cancelled")
		}
		if order.PaymentStatus == model.PaymentStatusPaid {
			return NewHTTPError(http.StatusBadRequest, "order already paid")
		}

		created, err = r.Payments().Create(ctx, model.Payment{
			OrderID:       order.ID,
			Method:        in.Method,
			Amount:        order.TotalAmount,
			TransactionID: uuid.NewString(),
			Status:        model.PaymentTxStatusPending,
			Note:          in.Note,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return PaymentOutput{}, err
	}

	return toPaymentOutput(created), nil
}

// 決済確定。既にSuccessなら冪等にそのまま返す。
// 成功時は注文を Paid / Completed にする。
func (u *PaymentUsecase) Confirm(ctx context.Context, userID int64, isAdmin bool, paymentID int64) (PaymentOutput, error) {
	if paymentID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment id")
	}

	var result model.Payment

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByID(ctx, paymentID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "payment not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order, err := r.Orders().FindByID(ctx, p.OrderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !isAdmin && order.UserID != userID {
			return NewHTTPError(http.StatusNotFound, "payment not found")
		}

		// 二重確定は成功扱い
		if p.Status == model.PaymentTxStatusSuccess {
			result = p
			return nil
		}
		if p.Status == model.PaymentTxStatusFailed {
			return NewHTTPError(http.StatusBadRequest, "payment failed")
		}

		// 別の決済で入金済みの注文には確定できない
		if order.PaymentStatus == model.PaymentStatusPaid {
			return NewHTTPError(http.StatusBadRequest, "order already paid")
		}

		if err := r.Payments().UpdateStatus(ctx, p.ID, model.PaymentTxStatusSuccess, "00"); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		p.Status = model.PaymentTxStatusSuccess
		p.ResponseCode = "00"

		if err := r.Orders().UpdatePaymentStatus(ctx, order.ID, model.PaymentStatusPaid); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		// オンライン決済は入金確認で注文も完了にする（代引きとは別経路）
		if !order.Status.IsTerminal() {
			if err := r.Orders().UpdateStatus(ctx, order.ID, model.OrderStatusCompleted); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}
		result = p
		return nil
	})
	if err != nil {
		return PaymentOutput{}, err
	}

	return toPaymentOutput(result), nil
}

func toPaymentOutput(p model.Payment) PaymentOutput {
	return PaymentOutput{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Method:        p.Method,
		Amount:        p.Amount,
		TransactionID: p.TransactionID,
		Status:        string(p.Status),
		ResponseCode:  p.ResponseCode,
	}
}
