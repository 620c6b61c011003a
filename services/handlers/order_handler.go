package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/elitereplicas/elite_api/dto"
	"github.com/elitereplicas/elite_api/shared"
)

type OrderHandler struct {
	orderSvc OrderServiceInterface
}

func NewOrderHandler(orderSvc OrderServiceInterface) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// @Summary List own orders
// @Description Return the authenticated user's orders, newest first.
// @Tags orders
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Param status query string false "Filter by status" Enums(pending, paid, shipped, delivered, cancelled)
// @Success 200 {object} shared.Response{data=dto.OrderListResponse}
// @Router /api/v1/orders [get]
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, _ := c.Locals(shared.UserID).(string)

	var query dto.ListOrdersQuery
	if err := c.QueryParser(&query); err != nil {
		return err
	}

	if err := query.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.orderSvc.ListUserOrders(c.UserContext(), userID, query)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Get an order
// @Description Return a single order owned by the authenticated user.
// @Tags orders
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param orderId path string true "Order ID"
// @Success 200 {object} shared.Response{data=dto.OrderResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/orders/{orderId} [get]
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, _ := c.Locals(shared.UserID).(string)
	orderID := c.Params("orderId")

	resp, err := h.orderSvc.GetOrder(c.UserContext(), userID, orderID)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}
