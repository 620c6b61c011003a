package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/elitereplicas/elite_api/dto"
	"github.com/elitereplicas/elite_api/shared"
)

type AdminHandler struct {
	userSvc      UserServiceInterface
	orderSvc     OrderServiceInterface
	rateLimitSvc RateLimitServiceInterface
}

func NewAdminHandler(userSvc UserServiceInterface, orderSvc OrderServiceInterface, rateLimitSvc RateLimitServiceInterface) *AdminHandler {
	return &AdminHandler{
		userSvc:      userSvc,
		orderSvc:     orderSvc,
		rateLimitSvc: rateLimitSvc,
	}
}

// @Summary List users
// @Description Return all user accounts, newest first.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Param search query string false "Match against email or username"
// @Success 200 {object} shared.Response{data=dto.AdminUserListResponse}
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) GetUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	search := c.Query("search")

	resp, err := h.userSvc.AdminGetUsers(c.UserContext(), page, limit, search)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Update a user
// @Description Change a user's role or active status.
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param userId path string true "User ID"
// @Param adminUpdateUserRequest body dto.AdminUpdateUserRequest true "Fields to update"
// @Success 200 {object} shared.Response{data=dto.AdminUserInfo}
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/admin/users/{userId} [put]
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	userID := c.Params("userId")

	var req dto.AdminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.userSvc.AdminUpdateUser(c.UserContext(), userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary List all orders
// @Description Return orders across all users, newest first.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Param status query string false "Filter by status" Enums(pending, paid, shipped, delivered, cancelled)
// @Success 200 {object} shared.Response{data=dto.OrderListResponse}
// @Router /api/v1/admin/orders [get]
func (h *AdminHandler) GetOrders(c *fiber.Ctx) error {
	var query dto.ListOrdersQuery
	if err := c.QueryParser(&query); err != nil {
		return err
	}

	if err := query.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.orderSvc.AdminListOrders(c.UserContext(), query)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}

// @Summary Rate limiter stats
// @Description Return configured policies and active counter keys.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Success 200 {object} shared.Response{data=dto.RateLimitStatsResponse}
// @Router /api/v1/admin/rate-limits [get]
func (h *AdminHandler) GetRateLimitStats(c *fiber.Ctx) error {
	resp := h.rateLimitSvc.Stats(c.UserContext())
	return shared.ResponseOK(c, resp)
}

// @Summary Reset a rate limit counter
// @Description Clear the current window for one key under one policy.
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param policy path string true "Policy name"
// @Param key path string true "Counter key"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/admin/rate-limits/{policy}/{key} [delete]
func (h *AdminHandler) ResetRateLimitKey(c *fiber.Ctx) error {
	policy := c.Params("policy")
	key := c.Params("key")

	if err := h.rateLimitSvc.ResetKey(c.UserContext(), policy, key); err != nil {
		return shared.NewInternalError(err, "Failed to reset rate limit key")
	}

	return shared.ResponseJSON(c, http.StatusOK, "Rate limit key reset", nil)
}
