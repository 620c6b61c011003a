package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/gofiber/swagger"

	_ "github.com/elitereplicas/elite_api/docs"
	"github.com/elitereplicas/elite_api/services/handlers"
	"github.com/elitereplicas/elite_api/shared"
)

type HttpService struct {
	appContext.DefaultService

	authMw       *AuthMiddleware
	rateLimitSvc *RateLimitService
	monitorSvc   *MonitoringService

	authHandler  *handlers.AuthHandler
	orderHandler *handlers.OrderHandler
	adminHandler *handlers.AdminHandler

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *appContext.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authMw = svc.Service(AUTH_MIDDLEWARE_SVC).(*AuthMiddleware)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.monitorSvc = svc.Service(MONITORING_SVC).(*MonitoringService)

	authSvc := svc.Service(AUTH_SVC).(*AuthService)
	userSvc := svc.Service(USER_SVC).(*UserService)
	orderSvc := svc.Service(ORDER_SVC).(*OrderService)

	svc.authHandler = handlers.NewAuthHandler(authSvc, userSvc)
	svc.orderHandler = handlers.NewOrderHandler(orderSvc)
	svc.adminHandler = handlers.NewAdminHandler(userSvc, orderSvc, svc.rateLimitSvc)

	svc.server = fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	svc.server.Use(recover.New())
	svc.server.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	svc.server.Use(MonitoringMiddleware(svc.monitorSvc))

	svc.registerRoutes()

	return svc.server.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *HttpService) registerRoutes() {
	svc.server.Get("/ping", svc.ping)
	svc.server.Get("/swagger/*", fiberSwagger.HandlerDefault)

	v1 := svc.server.Group("/api/v1", svc.rateLimitSvc.Limit(shared.PolicyGeneral))

	v1.Get("/ping", svc.ping)

	// Account recovery and verification are abuse magnets; they carry the
	// stricter auth policy on top of the general one.
	authLimited := v1.Group("", svc.rateLimitSvc.Limit(shared.PolicyAuth))
	authLimited.Post("/forgot-password", svc.authHandler.ForgotPassword)
	authLimited.Post("/reset-password", svc.authHandler.ResetPassword)
	authLimited.Post("/verify-email", svc.authHandler.VerifyEmail)
	authLimited.Get("/verify-email", svc.authHandler.VerifyEmailLink)
	authLimited.Post("/resend-verification", svc.authHandler.ResendVerification)

	authed := v1.Group("", svc.authMw.RequiredAuth())
	authed.Get("/me", svc.authHandler.Me)
	authed.Get("/orders", svc.orderHandler.ListOrders)
	authed.Get("/orders/:orderId", svc.orderHandler.GetOrder)

	admin := v1.Group("/admin", svc.authMw.RequiredAuth(), svc.authMw.RequireAdmin())
	admin.Get("/users", svc.adminHandler.GetUsers)
	admin.Put("/users/:userId", svc.adminHandler.UpdateUser)
	admin.Get("/orders", svc.adminHandler.GetOrders)
	admin.Get("/rate-limits", svc.adminHandler.GetRateLimitStats)
	admin.Delete("/rate-limits/:policy/:key", svc.adminHandler.ResetRateLimitKey)
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")

	return shared.ResponseOK(c, "pong")
}

func errorHandler(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	if appErr, ok := shared.GetAppError(err); ok {
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	return shared.ResponseInternalError(c, err)
}
