package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-signing-secret-0123456789"

func TestTokenManager_IssueAndValidate(t *testing.T) {
	tm := NewTokenManager(testSecret, 24*time.Hour)

	token, err := tm.Issue("admin", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.NotEmpty(t, claims.ID, "token carries a JTI")
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.Equal(t, 24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestTokenManager_UniqueTokens(t *testing.T) {
	tm := NewTokenManager(testSecret, 24*time.Hour)

	first, err := tm.Issue("admin", "admin")
	require.NoError(t, err)
	second, err := tm.Issue("admin", "admin")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "each issuance carries a fresh JTI")
}

func TestTokenManager_Expiry(t *testing.T) {
	issuedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	current := issuedAt

	tm := NewTokenManager(testSecret, 24*time.Hour)
	tm.SetTimeFunc(func() time.Time { return current })

	token, err := tm.Issue("admin", "admin")
	require.NoError(t, err)

	current = issuedAt.Add(23 * time.Hour)
	_, err = tm.Validate(token)
	assert.NoError(t, err, "valid inside the 24h window")

	current = issuedAt.Add(24*time.Hour + time.Minute)
	_, err = tm.Validate(token)
	assert.Error(t, err, "expired past the absolute deadline")
}

func TestTokenManager_TamperedSignature(t *testing.T) {
	tm := NewTokenManager(testSecret, 24*time.Hour)

	token, err := tm.Issue("admin", "admin")
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = tm.Validate(tampered)
	assert.Error(t, err)
}

func TestTokenManager_TamperedClaims(t *testing.T) {
	tm := NewTokenManager(testSecret, 24*time.Hour)

	token, err := tm.Issue("admin", "admin")
	require.NoError(t, err)

	// Swap the payload segment for a payload signed with nothing
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	forged, err := tm.Issue("intruder", "admin")
	require.NoError(t, err)
	forgedParts := strings.Split(forged, ".")

	spliced := parts[0] + "." + forgedParts[1] + "." + parts[2]
	_, err = tm.Validate(spliced)
	assert.Error(t, err)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	tm := NewTokenManager(testSecret, 24*time.Hour)
	other := NewTokenManager("a-completely-different-secret-value", 24*time.Hour)

	token, err := tm.Issue("admin", "admin")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestTokenManager_GarbageInput(t *testing.T) {
	tm := NewTokenManager(testSecret, 24*time.Hour)

	for _, input := range []string{"", "garbage", "a.b.c", "   "} {
		_, err := tm.Validate(input)
		assert.Error(t, err, "input %q", input)
	}
}
