package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/culthread/backoffice/internal/auth"
	"github.com/culthread/backoffice/internal/models"
	"github.com/culthread/backoffice/internal/services"
	pkghttp "github.com/culthread/backoffice/pkg/http"
)

// AuthServiceInterface defines the façade surface the handler depends on
type AuthServiceInterface interface {
	Authenticate(ctx context.Context, username, password string, client models.ClientContext) (*services.AuthResponse, error)
	ValidateSession(token string) *models.Session
	Logout(token string)
	RemainingAttempts(username string) int
	LockoutRemaining(username string) time.Duration
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

// LockedResponse tells the dashboard how long to show the lockout banner
type LockedResponse struct {
	Error            string `json:"error"`
	Message          string `json:"message"`
	RetryAfterSecs   int64  `json:"retry_after_seconds"`
	RemainingMinutes int    `json:"remaining_minutes"`
}

// AttemptsResponse drives the login form's remaining-attempts banner
type AttemptsResponse struct {
	Username          string `json:"username"`
	RemainingAttempts int    `json:"remaining_attempts"`
	LockoutRemaining  int64  `json:"lockout_remaining_ms"`
}

// SessionResponse is the polling payload for the dashboard's route guard
type SessionResponse struct {
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	LoginTime    time.Time `json:"login_time"`
	LastActivity time.Time `json:"last_activity"`
}

// Login handles admin login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	client := models.ClientContext{
		IPAddress: pkghttp.ClientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
	}

	resp, err := h.service.Authenticate(r.Context(), req.Username, req.Password, client)
	if err != nil {
		var locked *models.AccountLockedError
		switch {
		case errors.As(err, &locked):
			minutes := int(math.Ceil(locked.Remaining.Minutes()))
			pkghttp.WriteJSON(w, http.StatusTooManyRequests, LockedResponse{
				Error:            "account_locked",
				Message:          "Too many failed login attempts. Please try again later.",
				RetryAfterSecs:   int64(locked.Remaining.Seconds()),
				RemainingMinutes: minutes,
			})
		case errors.Is(err, models.ErrInvalidCredentials):
			// Generic message: never disclose whether the username existed
			pkghttp.WriteUnauthorized(w, "Authentication failed")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Logout destroys the caller's session. Always succeeds: an unknown or
// already-dead token has nothing left to destroy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := auth.BearerToken(r); ok {
		h.service.Logout(token)
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the live session for the presented token. This is the
// endpoint the dashboard polls to keep its route guard current.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.BearerToken(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	session := h.service.ValidateSession(token)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, SessionResponse{
		Username:     session.Username,
		Role:         session.Role,
		LoginTime:    session.LoginTime,
		LastActivity: session.LastActivity,
	})
}

// Attempts reports remaining login attempts and lockout time for a username
func (h *AuthHandler) Attempts(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		pkghttp.WriteBadRequest(w, "username query parameter is required")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, AttemptsResponse{
		Username:          username,
		RemainingAttempts: h.service.RemainingAttempts(username),
		LockoutRemaining:  h.service.LockoutRemaining(username).Milliseconds(),
	})
}
