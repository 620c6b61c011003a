package services

import (
	"context"

	appContext "github.com/alphabatem/common/context"
	"github.com/elitereplicas/elite_api/dto"
	"github.com/elitereplicas/elite_api/model"
	"github.com/elitereplicas/elite_api/shared"
)

type OrderService struct {
	appContext.DefaultService

	sqlSvc *PostgresService
}

const ORDER_SVC = "order_svc"

func (svc OrderService) Id() string {
	return ORDER_SVC
}

func (svc *OrderService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *OrderService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	return nil
}

func (svc *OrderService) ListUserOrders(ctx context.Context, userID string, query dto.ListOrdersQuery) (*dto.OrderListResponse, error) {
	page, limit := normalizePaging(query.Page, query.Limit)

	orders, total, err := svc.sqlSvc.GetUserOrders(ctx, userID, page, limit, query.Status)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to list orders")
	}

	return toOrderList(orders, total, page, limit), nil
}

// GetOrder returns the order only to its owner; anyone else gets the same 404
// as a nonexistent order, so order IDs cannot be probed.
func (svc *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*dto.OrderResponse, error) {
	order, err := svc.sqlSvc.GetOrderByID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, shared.NewNotFoundError(err, "Order not found")
		}
		return nil, shared.NewInternalError(err, "Failed to load order")
	}

	if order.UserID != userID {
		return nil, shared.NewNotFoundError(nil, "Order not found")
	}

	resp := toOrderResponse(order)
	return &resp, nil
}

// ==================== ADMIN METHODS ====================

func (svc *OrderService) AdminListOrders(ctx context.Context, query dto.ListOrdersQuery) (*dto.OrderListResponse, error) {
	page, limit := normalizePaging(query.Page, query.Limit)

	orders, total, err := svc.sqlSvc.GetOrders(ctx, page, limit, query.Status)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to list orders")
	}

	return toOrderList(orders, total, page, limit), nil
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func toOrderList(orders []model.Order, total int64, page, limit int) *dto.OrderListResponse {
	out := make([]dto.OrderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}

	return &dto.OrderListResponse{
		Orders: out,
		Total:  int(total),
		Page:   page,
		Limit:  limit,
	}
}

func toOrderResponse(order *model.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:         order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		TotalCents: order.TotalCents,
		Currency:   order.Currency,
		ItemCount:  order.ItemCount,
		CreatedAt:  order.CreatedAt,
	}
}
