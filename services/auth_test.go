package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/elitereplicas/elite_api/dto"
	"github.com/elitereplicas/elite_api/model"
	"github.com/elitereplicas/elite_api/shared"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUserStore struct {
	byEmail map[string]*model.User
	byID    map[string]*model.User
}

func newFakeUserStore(users ...*model.User) *fakeUserStore {
	s := &fakeUserStore{
		byEmail: make(map[string]*model.User),
		byID:    make(map[string]*model.User),
	}
	for _, u := range users {
		s.byEmail[u.Email] = u
		s.byID[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (s *fakeUserStore) GetUserByID(_ context.Context, userID string) (*model.User, error) {
	u, ok := s.byID[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (s *fakeUserStore) UpdateUserPassword(_ context.Context, userID, passwordHash string) error {
	u, ok := s.byID[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Password = passwordHash
	return nil
}

func (s *fakeUserStore) MarkEmailVerified(_ context.Context, userID string) error {
	u, ok := s.byID[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.EmailVerified = true
	return nil
}

type sentMail struct {
	kind  string
	to    string
	token string
}

type fakeMailer struct {
	sent    []sentMail
	sendErr error
}

func (m *fakeMailer) SendVerificationEmail(email, _, token string) error {
	m.sent = append(m.sent, sentMail{kind: "verification", to: email, token: token})
	return m.sendErr
}

func (m *fakeMailer) SendPasswordResetEmail(email, _, token string) error {
	m.sent = append(m.sent, sentMail{kind: "password_reset", to: email, token: token})
	return m.sendErr
}

func newTestAuthService(users *fakeUserStore, mail *fakeMailer) (*AuthService, *VerificationTokenService) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	tokenSvc := newTestTokenService(newFakeTokenStore(), now)

	return &AuthService{
		users:  users,
		tokens: tokenSvc,
		mail:   mail,
	}, tokenSvc
}

func testUser() *model.User {
	return &model.User{
		ID:       "user-1",
		Email:    "shopper@example.com",
		Username: "shopper",
		Password: "old-hash",
		Role:     shared.RoleUser,
		IsActive: true,
	}
}

func TestForgotPassword_SendsResetEmail(t *testing.T) {
	user := testUser()
	mail := &fakeMailer{}
	svc, _ := newTestAuthService(newFakeUserStore(user), mail)

	if err := svc.ForgotPassword(context.Background(), user.Email); err != nil {
		t.Fatal(err)
	}

	if len(mail.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mail.sent))
	}
	if mail.sent[0].kind != "password_reset" || mail.sent[0].to != user.Email {
		t.Fatalf("unexpected mail: %+v", mail.sent[0])
	}
	if len(mail.sent[0].token) != 64 {
		t.Fatalf("mailed token length = %d, want 64", len(mail.sent[0].token))
	}
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	mail := &fakeMailer{}
	svc, _ := newTestAuthService(newFakeUserStore(), mail)

	if err := svc.ForgotPassword(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("unknown email must not error: %v", err)
	}
	if len(mail.sent) != 0 {
		t.Fatal("no email should be sent for unknown addresses")
	}
}

func TestForgotPassword_MailFailureIsSwallowed(t *testing.T) {
	user := testUser()
	mail := &fakeMailer{sendErr: errors.New("smtp down")}
	svc, _ := newTestAuthService(newFakeUserStore(user), mail)

	if err := svc.ForgotPassword(context.Background(), user.Email); err != nil {
		t.Fatalf("mail failure must not surface: %v", err)
	}
}

func TestResetPassword_FullFlow(t *testing.T) {
	user := testUser()
	mail := &fakeMailer{}
	svc, _ := newTestAuthService(newFakeUserStore(user), mail)

	if err := svc.ForgotPassword(context.Background(), user.Email); err != nil {
		t.Fatal(err)
	}
	raw := mail.sent[0].token

	err := svc.ResetPassword(context.Background(), dto.ResetPasswordRequest{
		Token:       raw,
		NewPassword: "NewPass123!",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("NewPass123!")); err != nil {
		t.Fatal("stored hash does not match the new password")
	}

	// The token is single-use.
	err = svc.ResetPassword(context.Background(), dto.ResetPasswordRequest{
		Token:       raw,
		NewPassword: "OtherPass123!",
	})
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("reused token err = %v, want 400 AppError", err)
	}
}

func TestResetPassword_InvalidToken(t *testing.T) {
	svc, _ := newTestAuthService(newFakeUserStore(testUser()), &fakeMailer{})

	err := svc.ResetPassword(context.Background(), dto.ResetPasswordRequest{
		Token:       "deadbeef",
		NewPassword: "NewPass123!",
	})
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400 AppError", err)
	}
}

func TestResetPassword_RejectsEmailToken(t *testing.T) {
	user := testUser()
	svc, tokenSvc := newTestAuthService(newFakeUserStore(user), &fakeMailer{})

	emailToken, err := tokenSvc.RequestToken(context.Background(), user.ID, shared.TokenTypeEmail)
	if err != nil {
		t.Fatal(err)
	}

	resetErr := svc.ResetPassword(context.Background(), dto.ResetPasswordRequest{
		Token:       emailToken.Token,
		NewPassword: "NewPass123!",
	})
	appErr, ok := shared.GetAppError(resetErr)
	if !ok || appErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400 AppError", resetErr)
	}

	// The mismatched token is not burned: it still verifies the email.
	if err := svc.VerifyEmail(context.Background(), emailToken.Token); err != nil {
		t.Fatalf("email token should survive the rejected reset attempt: %v", err)
	}
}

func TestVerifyEmail_MarksVerified(t *testing.T) {
	user := testUser()
	mail := &fakeMailer{}
	svc, _ := newTestAuthService(newFakeUserStore(user), mail)

	if err := svc.ResendVerification(context.Background(), user.Email); err != nil {
		t.Fatal(err)
	}
	raw := mail.sent[0].token

	if err := svc.VerifyEmail(context.Background(), raw); err != nil {
		t.Fatal(err)
	}
	if !user.EmailVerified {
		t.Fatal("user should be marked verified")
	}

	// Redeeming again fails, the token is gone.
	err := svc.VerifyEmail(context.Background(), raw)
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("second redemption err = %v, want 400 AppError", err)
	}
}

type fakeProfileCache struct {
	invalidated []string
}

func (c *fakeProfileCache) InvalidateUser(_ context.Context, userID string) {
	c.invalidated = append(c.invalidated, userID)
}

func TestVerifyEmail_InvalidatesCachedProfile(t *testing.T) {
	user := testUser()
	mail := &fakeMailer{}
	svc, _ := newTestAuthService(newFakeUserStore(user), mail)

	profiles := &fakeProfileCache{}
	svc.profiles = profiles

	if err := svc.ResendVerification(context.Background(), user.Email); err != nil {
		t.Fatal(err)
	}
	if err := svc.VerifyEmail(context.Background(), mail.sent[0].token); err != nil {
		t.Fatal(err)
	}

	if len(profiles.invalidated) != 1 || profiles.invalidated[0] != user.ID {
		t.Fatalf("invalidated = %v, want [%s]", profiles.invalidated, user.ID)
	}
}

func TestResendVerification_AlreadyVerifiedIsSilent(t *testing.T) {
	user := testUser()
	user.EmailVerified = true
	mail := &fakeMailer{}
	svc, _ := newTestAuthService(newFakeUserStore(user), mail)

	if err := svc.ResendVerification(context.Background(), user.Email); err != nil {
		t.Fatal(err)
	}
	if len(mail.sent) != 0 {
		t.Fatal("no email should be sent to verified addresses")
	}
}

func TestResendVerification_UnknownEmailIsSilent(t *testing.T) {
	mail := &fakeMailer{}
	svc, _ := newTestAuthService(newFakeUserStore(), mail)

	if err := svc.ResendVerification(context.Background(), "nobody@example.com"); err != nil {
		t.Fatal(err)
	}
	if len(mail.sent) != 0 {
		t.Fatal("no email should be sent for unknown addresses")
	}
}
