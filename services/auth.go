package services

import (
	"context"
	"errors"
	"net/http"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/elitereplicas/elite_api/dto"
	"github.com/elitereplicas/elite_api/model"
	"github.com/elitereplicas/elite_api/shared"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// Narrow views of the backing services, so the flows can be exercised against
// in-memory fakes.
type userStore interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	UpdateUserPassword(ctx context.Context, userID, passwordHash string) error
	MarkEmailVerified(ctx context.Context, userID string) error
}

type tokenManager interface {
	RequestToken(ctx context.Context, userID, tokenType string) (*model.VerificationToken, error)
	LookupByToken(ctx context.Context, raw string) (*model.VerificationToken, error)
	Consume(ctx context.Context, raw string) (*model.VerificationToken, error)
}

type mailer interface {
	SendVerificationEmail(email, username, token string) error
	SendPasswordResetEmail(email, username, token string) error
}

type profileCache interface {
	InvalidateUser(ctx context.Context, userID string)
}

// AuthService owns the account recovery and email verification flows. It
// never reveals whether an email address has an account: unknown addresses
// get the same success response as known ones, and mail delivery failures are
// logged but not surfaced.
type AuthService struct {
	appContext.DefaultService

	users    userStore
	tokens   tokenManager
	mail     mailer
	profiles profileCache
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	svc.users = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.tokens = svc.Service(TOKEN_SVC).(*VerificationTokenService)
	svc.mail = svc.Service(EMAIL_SVC).(*EmailService)
	svc.profiles = svc.Service(USER_SVC).(*UserService)
	return nil
}

// ForgotPassword issues a password reset token and emails it. Unknown emails
// return nil so the response cannot be used to enumerate accounts.
func (svc *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := svc.users.GetUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			log.WithField("email", email).Debug("Password reset requested for unknown email")
			return nil
		}
		return shared.NewInternalError(err, "Failed to process password reset request")
	}

	token, err := svc.tokens.RequestToken(ctx, user.ID, shared.TokenTypePassword)
	if err != nil {
		return shared.NewInternalError(err, "Failed to process password reset request")
	}

	if err := svc.mail.SendPasswordResetEmail(user.Email, user.Username, token.Token); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("Failed to send password reset email")
	}

	return nil
}

// ResetPassword redeems a password reset token and replaces the user's
// password hash. The token is consumed even if the subsequent update fails;
// re-requesting a reset is the recovery path.
func (svc *AuthService) ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) error {
	token, err := svc.consumeTyped(ctx, req.Token, shared.TokenTypePassword)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return shared.NewInternalError(err, "Failed to reset password")
	}

	if err := svc.users.UpdateUserPassword(ctx, token.UserID, string(hash)); err != nil {
		return shared.NewInternalError(err, "Failed to reset password")
	}

	log.WithField("user_id", token.UserID).Info("Password reset completed")
	return nil
}

// VerifyEmail redeems an email verification token and marks the account's
// email address as verified.
func (svc *AuthService) VerifyEmail(ctx context.Context, raw string) error {
	token, err := svc.consumeTyped(ctx, raw, shared.TokenTypeEmail)
	if err != nil {
		return err
	}

	if err := svc.users.MarkEmailVerified(ctx, token.UserID); err != nil {
		return shared.NewInternalError(err, "Failed to verify email")
	}

	if svc.profiles != nil {
		svc.profiles.InvalidateUser(ctx, token.UserID)
	}

	log.WithField("user_id", token.UserID).Info("Email verified")
	return nil
}

// ResendVerification issues a fresh email verification token. Unknown and
// already-verified emails return nil for the same anti-enumeration reason as
// ForgotPassword.
func (svc *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := svc.users.GetUserByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return shared.NewInternalError(err, "Failed to process verification request")
	}

	if user.EmailVerified {
		return nil
	}

	token, err := svc.tokens.RequestToken(ctx, user.ID, shared.TokenTypeEmail)
	if err != nil {
		return shared.NewInternalError(err, "Failed to process verification request")
	}

	if err := svc.mail.SendVerificationEmail(user.Email, user.Username, token.Token); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("Failed to send verification email")
	}

	return nil
}

// consumeTyped checks the token's type before destroying it, so a password
// reset token pasted into the email verification endpoint is rejected without
// being burned.
func (svc *AuthService) consumeTyped(ctx context.Context, raw, wantType string) (*model.VerificationToken, error) {
	token, err := svc.tokens.LookupByToken(ctx, raw)
	if err != nil {
		return nil, mapTokenError(err)
	}

	if token.TokenType != wantType {
		return nil, shared.NewBadRequestError(nil, "Invalid or expired token")
	}

	token, err = svc.tokens.Consume(ctx, raw)
	if err != nil {
		return nil, mapTokenError(err)
	}

	return token, nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, ErrTokenNotFound), errors.Is(err, ErrTokenExpired):
		return shared.NewBadRequestError(err, "Invalid or expired token")
	default:
		return shared.NewInternalError(err, "Failed to process token")
	}
}

// ==================== MIDDLEWARE ====================

type AuthMiddleware struct {
	appContext.DefaultService

	jwtSvc *JWTService
	sqlSvc *PostgresService
}

const AUTH_MIDDLEWARE_SVC = "auth_middleware_svc"

func (svc AuthMiddleware) Id() string {
	return AUTH_MIDDLEWARE_SVC
}

func (svc *AuthMiddleware) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthMiddleware) Start() error {
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	return nil
}

func (svc *AuthMiddleware) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		token, err := svc.jwtSvc.ExtractTokenFromHeader(authHeader)
		if err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", nil)
		}

		userID, role, err := svc.jwtSvc.VerifyJWTToken(token)
		if err != nil || userID == "" {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", nil)
		}

		user, err := svc.sqlSvc.GetUserByID(c.UserContext(), userID)
		if err != nil || !user.IsActive {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Unauthorized", nil)
		}

		c.Locals(shared.UserID, userID)
		c.Locals(shared.UserRole, role)
		return c.Next()
	}
}

func (svc *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(shared.UserRole).(string)
		if role != shared.RoleAdmin {
			return shared.ResponseJSON(c, http.StatusForbidden, "Forbidden", nil)
		}
		return c.Next()
	}
}
