package server

import (
	"net/http"

	"app/internal/config"
	"app/internal/handler"
	"app/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Handlers は起動時に登録する全ハンドラ。
type Handlers struct {
	Auth           *handler.AuthHandler
	Product        *handler.ProductHandler
	Cart           *handler.CartHandler
	Order          *handler.OrderHandler
	Voucher        *handler.VoucherHandler
	Payment        *handler.PaymentHandler
	AdminProduct   *handler.AdminProductHandler
	AdminOrder     *handler.AdminOrderHandler
	AdminVoucher   *handler.AdminVoucherHandler
	AdminDashboard *handler.AdminDashboardHandler
	AdminUser      *handler.AdminUserHandler
}

// New はechoを組み立てて返す。
func New(cfg config.Config, userRepo repository.UserRepository, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FEURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-Cart-Token", "X-Idempotency-Key"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Auth.RegisterRoutes(e, cfg, userRepo)
	h.Product.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, cfg)
	h.Order.RegisterRoutes(e, cfg, userRepo)
	h.Voucher.RegisterRoutes(e)
	h.Payment.RegisterRoutes(e, cfg, userRepo)
	h.AdminProduct.RegisterRoutes(e, cfg, userRepo)
	h.AdminOrder.RegisterRoutes(e, cfg, userRepo)
	h.AdminVoucher.RegisterRoutes(e, cfg, userRepo)
	h.AdminDashboard.RegisterRoutes(e, cfg, userRepo)
	h.AdminUser.RegisterRoutes(e)

	return e
}
