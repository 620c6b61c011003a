package dto

import "testing"

func TestResetPasswordRequest_Validate(t *testing.T) {
	validToken := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

	tests := []struct {
		name    string
		req     ResetPasswordRequest
		wantErr bool
	}{
		{"valid", ResetPasswordRequest{Token: validToken, NewPassword: "NewPass123!"}, false},
		{"missing token", ResetPasswordRequest{NewPassword: "NewPass123!"}, true},
		{"short token", ResetPasswordRequest{Token: "abc", NewPassword: "NewPass123!"}, true},
		{"weak password no upper", ResetPasswordRequest{Token: validToken, NewPassword: "newpass123!"}, true},
		{"weak password no digit", ResetPasswordRequest{Token: validToken, NewPassword: "NewPassword!"}, true},
		{"weak password no special", ResetPasswordRequest{Token: validToken, NewPassword: "NewPass1234"}, true},
		{"weak password too short", ResetPasswordRequest{Token: validToken, NewPassword: "Np1!"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestForgotPasswordRequest_Validate(t *testing.T) {
	if err := (ForgotPasswordRequest{Email: "user@example.com"}).Validate(); err != nil {
		t.Fatal(err)
	}
	if err := (ForgotPasswordRequest{Email: "not-an-email"}).Validate(); err == nil {
		t.Fatal("invalid email must be rejected")
	}
	if err := (ForgotPasswordRequest{}).Validate(); err == nil {
		t.Fatal("missing email must be rejected")
	}
}

func TestListOrdersQuery_Validate(t *testing.T) {
	if err := (ListOrdersQuery{Page: 1, Limit: 20, Status: "paid"}).Validate(); err != nil {
		t.Fatal(err)
	}
	if err := (ListOrdersQuery{Limit: 500}).Validate(); err == nil {
		t.Fatal("limit over 100 must be rejected")
	}
	if err := (ListOrdersQuery{Status: "bogus"}).Validate(); err == nil {
		t.Fatal("unknown status must be rejected")
	}
}
