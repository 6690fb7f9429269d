package auth

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// TimingConfig holds configuration for the authentication failure delay.
// The credential verifier short-circuits on username mismatch before
// hashing, which would otherwise distinguish valid from invalid usernames
// by response time.
type TimingConfig struct {
	BaseDelayMs   int // base delay in milliseconds, 0 disables the delay
	RandomDelayMs int // random jitter range in milliseconds
}

// TimingDelay pads authentication failures to a floor duration so that
// username mismatch and password mismatch take comparable time
type TimingDelay struct {
	config TimingConfig
}

// NewTimingDelay creates a new TimingDelay instance
func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{config: config}
}

// cryptoRandIntn returns a secure random number in [0, max)
func cryptoRandIntn(max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return 0, err
	}

	randomValue := binary.BigEndian.Uint64(randomBytes)
	return int(randomValue % uint64(max)), nil
}

// WaitFrom sleeps until at least the configured delay has elapsed since
// startTime. Operations that already consumed time (a bcrypt compare) add
// nothing extra.
func (td *TimingDelay) WaitFrom(startTime time.Time) {
	if td.config.BaseDelayMs <= 0 {
		return
	}

	targetDelay := time.Duration(td.config.BaseDelayMs) * time.Millisecond
	if td.config.RandomDelayMs > 0 {
		if randomValue, err := cryptoRandIntn(td.config.RandomDelayMs); err == nil {
			targetDelay += time.Duration(randomValue) * time.Millisecond
		}
	}

	elapsed := time.Since(startTime)
	if elapsed < targetDelay {
		time.Sleep(targetDelay - elapsed)
	}
}
