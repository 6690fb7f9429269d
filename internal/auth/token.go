package auth

import (
	"fmt"
	"time"

	"github.com/culthread/backoffice/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager handles JWT token generation and validation for the single
// admin identity. The signing secret is a fixed, pre-shared value supplied
// by configuration; there is no key rotation.
type TokenManager struct {
	secret string
	expiry time.Duration
	now    func() time.Time
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{
		secret: secret,
		expiry: expiry,
		now:    time.Now,
	}
}

// SetTimeFunc overrides the clock used for issuance and expiry checks
func (tm *TokenManager) SetTimeFunc(now func() time.Time) {
	tm.now = now
}

// Expiry returns the configured absolute token lifetime
func (tm *TokenManager) Expiry() time.Duration {
	return tm.expiry
}

// Issue creates a signed token carrying the identity claims with a JTI and
// an absolute expiry fixed at issuance
func (tm *TokenManager) Issue(username, role string) (string, error) {
	issuedAt := tm.now()

	claims := &models.TokenClaims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(tm.expiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate verifies a token's signature and expiry and returns the embedded
// claims unchanged. The token is the sole source of truth for identity;
// nothing is re-derived from elsewhere.
func (tm *TokenManager) Validate(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return tm.now() }))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.Username == "" {
		return nil, fmt.Errorf("invalid token: missing identity")
	}

	return claims, nil
}
