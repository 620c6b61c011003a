package handlers

import (
	"context"

	"github.com/elitereplicas/elite_api/dto"
)

type AuthServiceInterface interface {
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
}

type UserServiceInterface interface {
	GetUserInfo(ctx context.Context, userID string) (*dto.UserInfo, error)
	AdminGetUsers(ctx context.Context, page, limit int, search string) (*dto.AdminUserListResponse, error)
	AdminUpdateUser(ctx context.Context, userID string, req dto.AdminUpdateUserRequest) (*dto.AdminUserInfo, error)
}

type OrderServiceInterface interface {
	ListUserOrders(ctx context.Context, userID string, query dto.ListOrdersQuery) (*dto.OrderListResponse, error)
	GetOrder(ctx context.Context, userID, orderID string) (*dto.OrderResponse, error)
	AdminListOrders(ctx context.Context, query dto.ListOrdersQuery) (*dto.OrderListResponse, error)
}

type RateLimitServiceInterface interface {
	Stats(ctx context.Context) dto.RateLimitStatsResponse
	ResetKey(ctx context.Context, policyName, key string) error
}
