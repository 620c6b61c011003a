package dto

// ==================== ACCOUNT RECOVERY REQUEST DTOs ====================

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email" example:"user@example.com"`
}

func (f ForgotPasswordRequest) Validate() error {
	return GetValidator().Struct(f)
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required,min=32" example:"f3a9c2..."`
	NewPassword string `json:"new_password" validate:"required,strong_password" example:"NewPass123!"`
}

func (r ResetPasswordRequest) Validate() error {
	return GetValidator().Struct(r)
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required,min=32" example:"f3a9c2..."`
}

func (v VerifyEmailRequest) Validate() error {
	return GetValidator().Struct(v)
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email" example:"user@example.com"`
}

func (r ResendVerificationRequest) Validate() error {
	return GetValidator().Struct(r)
}

// ==================== ERROR RESPONSE DTOs ====================

type ErrorResponse struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Invalid request"`
	Error   string `json:"error,omitempty" example:"validation failed"`
}

type ValidationError struct {
	Field   string `json:"field" example:"email"`
	Message string `json:"message" example:"invalid email format"`
}

type ValidationErrorResponse struct {
	Code    int               `json:"code" example:"400"`
	Message string            `json:"message" example:"Validation failed"`
	Errors  []ValidationError `json:"errors"`
}
