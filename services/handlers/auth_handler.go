package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/elitereplicas/elite_api/dto"
	"github.com/elitereplicas/elite_api/shared"
)

type AuthHandler struct {
	authSvc AuthServiceInterface
	userSvc UserServiceInterface
}

func NewAuthHandler(authSvc AuthServiceInterface, userSvc UserServiceInterface) *AuthHandler {
	return &AuthHandler{
		authSvc: authSvc,
		userSvc: userSvc,
	}
}

// @Summary Request a password reset
// @Description Email a password reset link to the given address. The response is the same whether or not an account exists.
// @Tags auth
// @Accept json
// @Produce json
// @Param forgotPasswordRequest body dto.ForgotPasswordRequest true "Account email"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	if err := h.authSvc.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "If that email is registered, a reset link has been sent", nil)
}

// @Summary Reset password with a token
// @Description Redeem a password reset token and set a new password. The token is single-use.
// @Tags auth
// @Accept json
// @Produce json
// @Param resetPasswordRequest body dto.ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} shared.Response{data=nil}
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/reset-password [post]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	if err := h.authSvc.ResetPassword(c.UserContext(), req); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Password reset successfully", nil)
}

// @Summary Verify email address
// @Description Redeem an email verification token and mark the account's email as verified.
// @Tags auth
// @Accept json
// @Produce json
// @Param verifyEmailRequest body dto.VerifyEmailRequest true "Verification token"
// @Success 200 {object} shared.Response{data=nil}
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	if err := h.authSvc.VerifyEmail(c.UserContext(), req.Token); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Email verified successfully", nil)
}

// @Summary Verify email address via link
// @Description Same as the POST variant, for tokens delivered as email links.
// @Tags auth
// @Produce json
// @Param token query string true "Verification token"
// @Success 200 {object} shared.Response{data=nil}
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/verify-email [get]
func (h *AuthHandler) VerifyEmailLink(c *fiber.Ctx) error {
	req := dto.VerifyEmailRequest{Token: c.Query("token")}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	if err := h.authSvc.VerifyEmail(c.UserContext(), req.Token); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Email verified successfully", nil)
}

// @Summary Resend verification email
// @Description Issue a fresh verification token and email it. Responds identically for unknown and already verified addresses.
// @Tags auth
// @Accept json
// @Produce json
// @Param resendVerificationRequest body dto.ResendVerificationRequest true "Account email"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/resend-verification [post]
func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	var req dto.ResendVerificationRequest
	if err := c.BodyParser(&req); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	if err := h.authSvc.ResendVerification(c.UserContext(), req.Email); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "If that email is registered, a verification link has been sent", nil)
}

// @Summary Get current user
// @Description Return the authenticated user's profile.
// @Tags user
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.UserInfo}
// @Router /api/v1/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, _ := c.Locals(shared.UserID).(string)

	info, err := h.userSvc.GetUserInfo(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, info)
}
