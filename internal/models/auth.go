package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims represents the claims embedded in an admin session token
type TokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AdminIdentity is the single configured administrative account.
// There is no user table; the identity comes from configuration.
type AdminIdentity struct {
	Username     string
	Role         string
	PasswordHash string
}

// AdminUser is the caller-facing view of the authenticated identity
type AdminUser struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ClientContext carries request metadata attached to audit entries
type ClientContext struct {
	IPAddress string
	UserAgent string
}
