package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// 管理者向けの注文操作（一覧・ステータス更新）。
type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	orderRepo repo.OrderRepository
	itemRepo  repo.OrderItemRepository
	auditRepo repo.AuditLogRepository

	now func() time.Time
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	orderRepo repo.OrderRepository,
	itemRepo repo.OrderItemRepository,
	auditRepo repo.AuditLogRepository,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		tx:        tx,
		orderRepo: orderRepo,
		itemRepo:  itemRepo,
		auditRepo: auditRepo,
		now:       time.Now,
	}
}

type AdminOrderListInput struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type AdminOrderListOutput struct {
	Orders []OrderOutput `json:"orders"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

var validOrderStatuses = map[model.OrderStatus]bool{
	model.OrderStatusPending:   true,
	model.OrderStatusConfirmed: true,
	model.OrderStatusShipping:  true,
	model.OrderStatusCompleted: true,
	model.OrderStatusCancelled: true,
}

// 一覧（ページング・絞り込み）
func (u *AdminOrderUsecase) List(ctx context.Context, in AdminOrderListInput) (AdminOrderListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 20
	}
	if in.Status != "" && !validOrderStatuses[model.OrderStatus(in.Status)] {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	orders, total, err := u.orderRepo.ListAdmin(ctx, repo.AdminOrderListFilter{
		Page:   in.Page,
		Limit:  in.Limit,
		Status: in.Status,
		UserID: in.UserID,
		From:   in.From,
		To:     in.To,
	})
	if err != nil {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := AdminOrderListOutput{
		Orders: make([]OrderOutput, 0, len(orders)),
		Total:  total,
		Page:   in.Page,
		Limit:  in.Limit,
	}
	for _, o := range orders {
		out.Orders = append(out.Orders, toOrderOutput(o, nil))
	}
	return out, nil
}

// ステータス更新。
// 遷移は Pending→Confirmed→Shipping→Completed の一方向のみ。
// Cancelled は終端以外からいつでも可。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, adminID int64, orderID int64, newStatusStr string) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	newStatus := model.OrderStatus(newStatusStr)
	if !validOrderStatuses[newStatus] {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var updated model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		order, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		oldStatus := order.Status
		if !model.CanTransitionOrderStatus(oldStatus, newStatus) {
			return NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("cannot transition from %s to %s", oldStatus, newStatus))
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// Pending→Confirmed で在庫引当。足りなければ全体失敗。
		if oldStatus == model.OrderStatusPending && newStatus == model.OrderStatusConfirmed {
			for _, it := range items {
				ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Size, it.Quantity)
				if err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				if !ok {
					return NewHTTPError(http.StatusConflict,
						fmt.Sprintf("insufficient stock for product %d size %s", it.ProductID, it.Size))
				}
			}
		}

		// 引当済み（Confirmed/Shipping）からのキャンセルは在庫を戻す。
		if newStatus == model.OrderStatusCancelled &&
			(oldStatus == model.OrderStatusConfirmed || oldStatus == model.OrderStatusShipping) {
			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Size, it.Quantity); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		order.Status = newStatus

		// 代引き精算：Shipping→Completed で未払いなら Paid にする。
		if newStatus == model.OrderStatusCompleted && order.PaymentStatus == model.PaymentStatusUnpaid {
			if err := r.Orders().UpdatePaymentStatus(ctx, orderID, model.PaymentStatusPaid); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			order.PaymentStatus = model.PaymentStatusPaid
		}

		updated = order
		u.writeStatusAudit(ctx, adminID, orderID, oldStatus, newStatus)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	items, err := u.itemRepo.ListByOrderID(ctx, orderID)
	if err != nil {
		items = nil
	}
	return toOrderOutput(updated, items), nil
}

// ログ失敗で操作自体は失敗させない
func (u *AdminOrderUsecase) writeStatusAudit(ctx context.Context, adminID int64, orderID int64, from, to model.OrderStatus) {
	if u.auditRepo == nil {
		return
	}
	before, _ := json.Marshal(map[string]string{"status": string(from)})
	after, _ := json.Marshal(map[string]string{"status": string(to)})
	_ = u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminID,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		BeforeJSON:   string(before),
		AfterJSON:    string(after),
		CreatedAt:    u.now(),
	})
}
