package handler

import (
	"net/http"
	"strconv"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /vouchers の公開API（適用チェックと一覧）
type VoucherHandler struct {
	uc *usecase.VoucherUsecase
}

// DI
func NewVoucherHandler(uc *usecase.VoucherUsecase) *VoucherHandler {
	return &VoucherHandler{uc: uc}
}

func (h *VoucherHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/vouchers/check", h.check)
	e.GET("/vouchers/available", h.listAvailable)
}

// GET /vouchers/check?code=SALE10&orderTotal=250000
// 読み取りのみ（残回数は減らない）。
func (h *VoucherHandler) check(c echo.Context) error {
	code := c.QueryParam("code")

	orderTotal := int64(0)
	if v := c.QueryParam("orderTotal"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid orderTotal"})
		}
		orderTotal = x
	}

	out, err := h.uc.Check(c.Request().Context(), code, orderTotal)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *VoucherHandler) listAvailable(c echo.Context) error {
	items, err := h.uc.ListAvailable(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, items)
}
