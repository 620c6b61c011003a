package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elitereplicas/elite_api/model"
	"github.com/elitereplicas/elite_api/shared"
	"gorm.io/gorm"
)

// fakeTokenStore emulates the Postgres store including the (user_id,
// token_type) uniqueness rule enforced by the composite index.
type fakeTokenStore struct {
	byToken map[string]*model.VerificationToken
	failAll bool
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{byToken: make(map[string]*model.VerificationToken)}
}

func (s *fakeTokenStore) UpsertVerificationToken(_ context.Context, token *model.VerificationToken) error {
	if s.failAll {
		return errors.New("connection refused")
	}
	for raw, existing := range s.byToken {
		if existing.UserID == token.UserID && existing.TokenType == token.TokenType {
			delete(s.byToken, raw)
		}
	}
	cp := *token
	s.byToken[token.Token] = &cp
	return nil
}

func (s *fakeTokenStore) GetVerificationToken(_ context.Context, raw string) (*model.VerificationToken, error) {
	if s.failAll {
		return nil, errors.New("connection refused")
	}
	token, ok := s.byToken[raw]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *token
	return &cp, nil
}

func (s *fakeTokenStore) DeleteVerificationToken(_ context.Context, id string) error {
	if s.failAll {
		return errors.New("connection refused")
	}
	for raw, token := range s.byToken {
		if token.ID == id {
			delete(s.byToken, raw)
		}
	}
	return nil
}

func newTestTokenService(store TokenStore, now func() time.Time) *VerificationTokenService {
	return &VerificationTokenService{
		store: store,
		ttls: map[string]time.Duration{
			shared.TokenTypePassword: 1 * time.Hour,
			shared.TokenTypeEmail:    24 * time.Hour,
		},
		now: now,
	}
}

func TestRequestToken_Format(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	svc := newTestTokenService(newFakeTokenStore(), now)

	token, err := svc.RequestToken(context.Background(), "user-1", shared.TokenTypeEmail)
	if err != nil {
		t.Fatal(err)
	}

	if len(token.Token) != 64 {
		t.Fatalf("token length = %d, want 64 hex chars", len(token.Token))
	}
	for _, r := range token.Token {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			t.Fatalf("token contains non-hex character %q", r)
		}
	}

	if got := token.ExpiresAt.Sub(token.CreatedAt); got != 24*time.Hour {
		t.Fatalf("email token ttl = %v, want 24h", got)
	}

	second, err := svc.RequestToken(context.Background(), "user-2", shared.TokenTypeEmail)
	if err != nil {
		t.Fatal(err)
	}
	if second.Token == token.Token {
		t.Fatal("two tokens must not collide")
	}
}

func TestRequestToken_PasswordTTL(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	svc := newTestTokenService(newFakeTokenStore(), now)

	token, err := svc.RequestToken(context.Background(), "user-1", shared.TokenTypePassword)
	if err != nil {
		t.Fatal(err)
	}
	if got := token.ExpiresAt.Sub(token.CreatedAt); got != time.Hour {
		t.Fatalf("password token ttl = %v, want 1h", got)
	}
}

func TestRequestToken_UnknownType(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	svc := newTestTokenService(newFakeTokenStore(), now)

	if _, err := svc.RequestToken(context.Background(), "user-1", "magic"); err == nil {
		t.Fatal("unknown token type must be rejected")
	}
}

func TestLookupByToken_RoundTrip(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	svc := newTestTokenService(newFakeTokenStore(), now)

	issued, err := svc.RequestToken(context.Background(), "user-1", shared.TokenTypeEmail)
	if err != nil {
		t.Fatal(err)
	}

	found, err := svc.LookupByToken(context.Background(), issued.Token)
	if err != nil {
		t.Fatal(err)
	}
	if found.UserID != "user-1" || found.TokenType != shared.TokenTypeEmail {
		t.Fatalf("lookup returned wrong record: %+v", found)
	}
}

func TestRequestToken_SupersedesPrevious(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	svc := newTestTokenService(newFakeTokenStore(), now)

	first, _ := svc.RequestToken(context.Background(), "user-1", shared.TokenTypePassword)
	second, _ := svc.RequestToken(context.Background(), "user-1", shared.TokenTypePassword)

	if _, err := svc.LookupByToken(context.Background(), first.Token); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("superseded token lookup err = %v, want ErrTokenNotFound", err)
	}
	if _, err := svc.LookupByToken(context.Background(), second.Token); err != nil {
		t.Fatalf("fresh token lookup err = %v", err)
	}
}

func TestRequestToken_DifferentTypesCoexist(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	svc := newTestTokenService(newFakeTokenStore(), now)

	email, _ := svc.RequestToken(context.Background(), "user-1", shared.TokenTypeEmail)
	password, _ := svc.RequestToken(context.Background(), "user-1", shared.TokenTypePassword)

	if _, err := svc.LookupByToken(context.Background(), email.Token); err != nil {
		t.Fatalf("email token should remain live: %v", err)
	}
	if _, err := svc.LookupByToken(context.Background(), password.Token); err != nil {
		t.Fatalf("password token should remain live: %v", err)
	}
}

func TestLookupByToken_Expired(t *testing.T) {
	clock, now := testClock(time.Unix(1_700_000_000, 0))
	store := newFakeTokenStore()
	svc := newTestTokenService(store, now)

	issued, _ := svc.RequestToken(context.Background(), "user-1", shared.TokenTypePassword)

	*clock = clock.Add(61 * time.Minute)

	if _, err := svc.LookupByToken(context.Background(), issued.Token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}

	// Expired tokens are reaped, a second lookup no longer finds the row.
	if _, err := svc.LookupByToken(context.Background(), issued.Token); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("second lookup err = %v, want ErrTokenNotFound", err)
	}
}

func TestLookupByToken_ExactExpiryIsExpired(t *testing.T) {
	clock, now := testClock(time.Unix(1_700_000_000, 0))
	svc := newTestTokenService(newFakeTokenStore(), now)

	issued, _ := svc.RequestToken(context.Background(), "user-1", shared.TokenTypePassword)

	*clock = issued.ExpiresAt

	if _, err := svc.LookupByToken(context.Background(), issued.Token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired at the exact boundary", err)
	}
}

func TestConsume_SingleUse(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	svc := newTestTokenService(newFakeTokenStore(), now)

	issued, _ := svc.RequestToken(context.Background(), "user-1", shared.TokenTypeEmail)

	consumed, err := svc.Consume(context.Background(), issued.Token)
	if err != nil {
		t.Fatal(err)
	}
	if consumed.UserID != "user-1" {
		t.Fatalf("consumed userID = %q, want user-1", consumed.UserID)
	}

	if _, err := svc.Consume(context.Background(), issued.Token); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("second consume err = %v, want ErrTokenNotFound", err)
	}
}

func TestConsume_UnknownToken(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	svc := newTestTokenService(newFakeTokenStore(), now)

	if _, err := svc.Consume(context.Background(), "deadbeef"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("err = %v, want ErrTokenNotFound", err)
	}
}

func TestTokenService_StorageErrors(t *testing.T) {
	_, now := testClock(time.Unix(1_700_000_000, 0))
	store := newFakeTokenStore()
	svc := newTestTokenService(store, now)

	store.failAll = true

	if _, err := svc.RequestToken(context.Background(), "user-1", shared.TokenTypeEmail); !errors.Is(err, ErrStorage) {
		t.Fatalf("RequestToken err = %v, want ErrStorage", err)
	}
	if _, err := svc.LookupByToken(context.Background(), "deadbeef"); !errors.Is(err, ErrStorage) {
		t.Fatalf("LookupByToken err = %v, want ErrStorage", err)
	}
}
