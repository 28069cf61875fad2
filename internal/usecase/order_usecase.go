package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type OrderUsecase struct {
	tx repo.TransactionManager

	//テストで差し替えるため
	now func() time.Time
}

func NewOrderUsecase(tx repo.TransactionManager) *OrderUsecase {
	return &OrderUsecase{tx: tx, now: time.Now}
}

type CreateOrderInput struct {
	ReceiverName    string
	ReceiverPhone   string
	ReceiverAddress string
	PaymentMethod   string
	VoucherCode     string
	IdempotencyKey  string
}

type CreateOrderOutput struct {
	OrderID     int64 `json:"order_id"`
	TotalAmount int64 `json:"total_amount"`
}

type OrderItemOutput struct {
	ProductID  int64  `json:"product_id"`
	Name       string `json:"name"`
	Size       string `json:"size"`
	Price      int64  `json:"price"`
	Quantity   int64  `json:"quantity"`
	TotalPrice int64  `json:"total_price"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	ReceiverName    string            `json:"receiver_name"`
	ReceiverPhone   string            `json:"receiver_phone"`
	ReceiverAddress string            `json:"receiver_address"`
	Status          string            `json:"status"`
	PaymentMethod   string            `json:"payment_method"`
	PaymentStatus   string            `json:"payment_status"`
	ShippingFee     int64             `json:"shipping_fee"`
	DiscountAmount  int64             `json:"discount_amount"`
	TotalAmount     int64             `json:"total_amount"`
	VoucherID       *int64            `json:"voucher_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []OrderItemOutput `json:"items"`
}

// 注文確定。
// カート読み取り→在庫確認→クーポン再検証→金額計算→注文作成→カートクリアまでを
// 1トランザクションで行う（途中で失敗したら何も残さない）。
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (CreateOrderOutput, error) {
	if userID <= 0 {
		return CreateOrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.ReceiverName) == "" {
		return CreateOrderOutput{}, NewHTTPError(http.StatusBadRequest, "receiver_name required")
	}
	if strings.TrimSpace(in.ReceiverPhone) == "" {
		return CreateOrderOutput{}, NewHTTPError(http.StatusBadRequest, "receiver_phone required")
	}
	if strings.TrimSpace(in.ReceiverAddress) == "" {
		return CreateOrderOutput{}, NewHTTPError(http.StatusBadRequest, "receiver_address required")
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return CreateOrderOutput{}, NewHTTPError(http.StatusBadRequest, "payment_method required")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return CreateOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	var out CreateOrderOutput

	//注文処理はトランザクション
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			out = CreateOrderOutput{OrderID: existing.ID, TotalAmount: existing.TotalAmount}
			return nil
		}

		//ACTIVEカート取得
		owner := repo.CartOwner{UserID: &userID}
		cart, err := r.Carts().FindActiveByOwner(ctx, owner)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//カート明細取得
		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		//明細は「今の商品価格」で組み直す（カート追加時の価格は使わない）
		now := u.now()
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		lines := make([]PriceLine, 0, len(cartItems))

		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusBadRequest, "product unavailable")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, "product unavailable")
			}

			//サイズ在庫の存在＋数量チェック（引き当てはConfirm時）
			ps, err := r.Products().FindSize(ctx, ci.ProductID, ci.Size)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusBadRequest, "product unavailable")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if ps.Stock < ci.Quantity {
				return NewHTTPError(http.StatusBadRequest, "out of stock")
			}

			lineTotal := p.Price * ci.Quantity
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           ci.ProductID,
				ProductNameSnapshot: p.Name,
				Size:                ci.Size,
				UnitPriceSnapshot:   p.Price,
				Quantity:            ci.Quantity,
				TotalPrice:          lineTotal,
				CreatedAt:           now,
			})
			lines = append(lines, PriceLine{UnitPrice: p.Price, Quantity: ci.Quantity})
		}

		subtotal := Subtotal(lines)

		//クーポンは確定時の小計で再検証。失敗したら注文ごと中断する
		//（黙って割引なしにすると、割引を期待した利用者が気づかないまま全額で確定してしまう）。
		var discount int64
		var voucherID *int64

		if code := NormalizeVoucherCode(in.VoucherCode); code != "" {
			v, err := r.Vouchers().FindByCode(ctx, code)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusBadRequest, "voucher code not found or disabled")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			res := evaluateVoucher(v, now, subtotal)
			if !res.OK {
				return NewHTTPError(http.StatusBadRequest, res.Reason)
			}

			//残回数を条件付きで1減らす（同時利用でも使い切りを超えない）
			ok, err := r.Vouchers().DecrementUsageIfAvailable(ctx, v.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "voucher usage limit exhausted")
			}

			discount = res.Discount
			id := v.ID
			voucherID = &id
		}

		shippingFee := CalcShippingFee(subtotal)
		total := CalcTotal(subtotal, shippingFee, discount)

		// 注文作成
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:          userID,
			ReceiverName:    strings.TrimSpace(in.ReceiverName),
			ReceiverPhone:   strings.TrimSpace(in.ReceiverPhone),
			ReceiverAddress: strings.TrimSpace(in.ReceiverAddress),
			Status:          model.OrderStatusPending,
			PaymentMethod:   strings.TrimSpace(in.PaymentMethod),
			PaymentStatus:   model.PaymentStatusUnpaid,
			ShippingFee:     shippingFee,
			DiscountAmount:  discount,
			TotalAmount:     total,
			VoucherID:       voucherID,
			IdempotencyKey:  key,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			//競合（同時で同じキーが入った等）はもう一回検索して同じ結果を返す
			ex2, found2, err2 := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err2 == nil && found2 {
				out = CreateOrderOutput{OrderID: ex2.ID, TotalAmount: ex2.TotalAmount}
				return nil
			}
			return NewHTTPError(http.StatusBadRequest, "idempotency conflict")
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//カートをCHECKED_OUTにして、明細をクリア（再注文防止）
		if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = CreateOrderOutput{OrderID: orderID, TotalAmount: total}
		return nil
	})

	if err != nil {
		return CreateOrderOutput{}, err
	}
	return out, nil
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 指定ユーザーの注文一覧（新しい順）
func (u *OrderUsecase) ListUserOrders(ctx context.Context, userID int64, page int, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var out OrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs := make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}

		out = OrderListOutput{Items: outs, Total: total, Page: page, Limit: limit}
		return nil
	})

	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// 注文詳細。他人の注文は「存在しない扱い」にする。
func (u *OrderUsecase) GetOrderDetail(ctx context.Context, userID int64, isAdmin bool, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID && !isAdmin {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:  it.ProductID,
			Name:       it.ProductNameSnapshot,
			Size:       it.Size,
			Price:      it.UnitPriceSnapshot,
			Quantity:   it.Quantity,
			TotalPrice: it.TotalPrice,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		ReceiverName:    o.ReceiverName,
		ReceiverPhone:   o.ReceiverPhone,
		ReceiverAddress: o.ReceiverAddress,
		Status:          string(o.Status),
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   string(o.PaymentStatus),
		ShippingFee:     o.ShippingFee,
		DiscountAmount:  o.DiscountAmount,
		TotalAmount:     o.TotalAmount,
		VoucherID:       o.VoucherID,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}
