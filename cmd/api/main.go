package main

import (
	"log"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/server"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/joho/godotenv"
)

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Product{},
		&model.ProductSize{},
		&model.Cart{},
		&model.CartItem{},
		&model.Voucher{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.AuditLog{},
		&model.InventoryAdjustment{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	voucherRepo := infraRepo.NewVoucherGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase生成
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo, validator.NewAuthValidator(userRepo))
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo, auditRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, cartRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(txManager)
	voucherUC := usecase.NewVoucherUsecase(voucherRepo, auditRepo)
	paymentUC := usecase.NewPaymentUsecase(txManager)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, orderRepo, orderItemRepo, auditRepo)
	dashboardUC := usecase.NewAdminDashboardUsecase(orderRepo, userRepo)

	//Handler生成
	handlers := server.Handlers{
		Auth:           handler.NewAuthHandler(authUC, cfg),
		Product:        handler.NewProductHandler(productUC),
		Cart:           handler.NewCartHandler(cartUC),
		Order:          handler.NewOrderHandler(orderUC),
		Voucher:        handler.NewVoucherHandler(voucherUC),
		Payment:        handler.NewPaymentHandler(paymentUC),
		AdminProduct:   handler.NewAdminProductHandler(productUC),
		AdminOrder:     handler.NewAdminOrderHandler(adminOrderUC),
		AdminVoucher:   handler.NewAdminVoucherHandler(voucherUC),
		AdminDashboard: handler.NewAdminDashboardHandler(dashboardUC),
		AdminUser:      handler.NewAdminUserHandler(cfg, userRepo, authUC),
	}

	e := server.New(cfg, userRepo, handlers)

	addr := ":" + cfg.Port
	if err := e.Start(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
