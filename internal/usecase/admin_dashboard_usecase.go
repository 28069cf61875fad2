package usecase

import (
	"context"
	"net/http"

	repo "app/internal/repository"
)

// 管理ダッシュボード用の集計。
type AdminDashboardUsecase struct {
	orderRepo repo.OrderRepository
	userRepo  repo.UserRepository
}

func NewAdminDashboardUsecase(orderRepo repo.OrderRepository, userRepo repo.UserRepository) *AdminDashboardUsecase {
	return &AdminDashboardUsecase{orderRepo: orderRepo, userRepo: userRepo}
}

type DashboardOutput struct {
	//売上はCompletedの合計のみ
	Revenue       int64            `json:"revenue"`
	OrdersByState map[string]int64 `json:"orders_by_status"`
	UserCount     int64            `json:"user_count"`
}

func (u *AdminDashboardUsecase) Stats(ctx context.Context) (DashboardOutput, error) {
	stats, err := u.orderRepo.Stats(ctx)
	if err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	userCount, err := u.userRepo.Count(ctx)
	if err != nil {
		return DashboardOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	byStatus := make(map[string]int64, len(stats.CountByStatus))
	for s, n := range stats.CountByStatus {
		byStatus[string(s)] = n
	}

	return DashboardOutput{
		Revenue:       stats.Revenue,
		OrdersByState: byStatus,
		UserCount:     userCount,
	}, nil
}
