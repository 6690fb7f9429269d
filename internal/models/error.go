package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrBadRequest         = errors.New("bad request")
	ErrInternalServer     = errors.New("internal server error")
)

// AccountLockedError carries the time remaining in an active lockout window.
// It matches models.ErrAccountLocked under errors.Is.
type AccountLockedError struct {
	Remaining time.Duration
}

func (e *AccountLockedError) Error() string {
	minutes := int(math.Ceil(e.Remaining.Minutes()))
	return fmt.Sprintf("account is temporarily locked, try again in %d minutes", minutes)
}

func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
