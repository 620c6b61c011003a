package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	"github.com/elitereplicas/elite_api/model"
	"github.com/elitereplicas/elite_api/shared"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrTokenNotFound covers both tokens that never existed and tokens that
	// were already consumed; callers cannot tell the two apart.
	ErrTokenNotFound = errors.New("verification token not found")

	// ErrTokenExpired means the token existed but its lifetime has passed.
	ErrTokenExpired = errors.New("verification token expired")

	// ErrStorage wraps backend failures so callers can separate "bad token"
	// from "database down".
	ErrStorage = errors.New("token storage failure")
)

// TokenStore is the persistence surface the token service needs. The Postgres
// service implements it; tests substitute an in-memory fake.
type TokenStore interface {
	UpsertVerificationToken(ctx context.Context, token *model.VerificationToken) error
	GetVerificationToken(ctx context.Context, token string) (*model.VerificationToken, error)
	DeleteVerificationToken(ctx context.Context, id string) error
}

// VerificationTokenService issues and redeems single-use verification tokens
// for email confirmation and password reset. A user holds at most one live
// token per type; requesting a new one silently invalidates the old.
type VerificationTokenService struct {
	appContext.DefaultService

	store TokenStore
	ttls  map[string]time.Duration
	now   func() time.Time
}

const TOKEN_SVC = "token_svc"

func (svc VerificationTokenService) Id() string {
	return TOKEN_SVC
}

func (svc *VerificationTokenService) Configure(ctx *appContext.Context) error {
	svc.ttls = map[string]time.Duration{
		shared.TokenTypePassword: 1 * time.Hour,
		shared.TokenTypeEmail:    24 * time.Hour,
	}
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *VerificationTokenService) Start() error {
	svc.store = svc.Service(POSTGRES_SVC).(*PostgresService)
	return nil
}

// RequestToken mints a fresh token of the given type for userID, replacing any
// live token of the same type in a single atomic write.
func (svc *VerificationTokenService) RequestToken(ctx context.Context, userID, tokenType string) (*model.VerificationToken, error) {
	ttl, ok := svc.ttls[tokenType]
	if !ok {
		return nil, fmt.Errorf("unknown token type: %s", tokenType)
	}

	raw, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	id, _ := uuid.NewV7()
	now := svc.now()
	token := &model.VerificationToken{
		ID:        id.String(),
		UserID:    userID,
		TokenType: tokenType,
		Token:     raw,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := svc.store.UpsertVerificationToken(ctx, token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	verificationTokensIssuedTotal.WithLabelValues(tokenType).Inc()

	return token, nil
}

// LookupByToken resolves a raw token string to its record without consuming
// it. Expired tokens are reaped on sight and reported as ErrTokenExpired.
func (svc *VerificationTokenService) LookupByToken(ctx context.Context, raw string) (*model.VerificationToken, error) {
	token, err := svc.store.GetVerificationToken(ctx, raw)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if !svc.now().Before(token.ExpiresAt) {
		if err := svc.store.DeleteVerificationToken(ctx, token.ID); err != nil {
			log.WithError(err).WithField("token_id", token.ID).Warn("Failed to reap expired token")
		}
		return nil, ErrTokenExpired
	}

	return token, nil
}

// Consume redeems a token: it validates the raw string and deletes the record
// so a second redemption of the same token fails with ErrTokenNotFound.
func (svc *VerificationTokenService) Consume(ctx context.Context, raw string) (*model.VerificationToken, error) {
	token, err := svc.LookupByToken(ctx, raw)
	if err != nil {
		recordTokenConsumption("", err)
		return nil, err
	}

	if err := svc.store.DeleteVerificationToken(ctx, token.ID); err != nil {
		recordTokenConsumption(token.TokenType, ErrStorage)
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	recordTokenConsumption(token.TokenType, nil)
	return token, nil
}

func recordTokenConsumption(tokenType string, err error) {
	if tokenType == "" {
		tokenType = "unknown"
	}
	result := "consumed"
	switch {
	case errors.Is(err, ErrTokenExpired):
		result = "expired"
	case errors.Is(err, ErrTokenNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	verificationTokensConsumedTotal.WithLabelValues(tokenType, result).Inc()
}

// generateToken returns 32 bytes of CSPRNG output hex-encoded, 64 characters.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
