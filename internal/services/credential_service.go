package services

import (
	"github.com/culthread/backoffice/internal/models"
	pkgauth "github.com/culthread/backoffice/pkg/auth"
)

// CredentialService verifies credentials against the single configured
// administrative identity. There is no user table and no persistence; the
// identity comes from configuration at process start.
type CredentialService struct {
	identity models.AdminIdentity
}

// NewCredentialService creates a new CredentialService
func NewCredentialService(identity models.AdminIdentity) *CredentialService {
	return &CredentialService{identity: identity}
}

// Identity returns the configured admin identity minus the password hash
func (s *CredentialService) Identity() models.AdminUser {
	return models.AdminUser{
		Username: s.identity.Username,
		Role:     s.identity.Role,
	}
}

// Verify checks a username/password pair. Pure; no side effects.
//
// A mismatched username fails before the bcrypt compare, which makes the
// two failure modes distinguishable by timing. The façade's failure-path
// delay pads both to a common floor when enabled.
func (s *CredentialService) Verify(username, password string) bool {
	if username != s.identity.Username {
		return false
	}
	return pkgauth.ComparePassword(s.identity.PasswordHash, password) == nil
}
