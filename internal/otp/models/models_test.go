package models

import (
	"math/big"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
)

var digits = regexp.MustCompile(`^[0-9]+$`)

func TestGenerate(t *testing.T) {
	for length := MinCodeLength; length <= MaxCodeLength; length++ {
		limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
		for range 50 {
			code, err := Generate(length)
			require.NoError(t, err)
			require.Len(t, code, length)
			require.Regexp(t, digits, code)
			n, ok := new(big.Int).SetString(code, 10)
			require.True(t, ok)
			require.Equal(t, -1, n.Cmp(limit))
		}
	}

	for _, length := range []int{3, 13, 0, -1} {
		_, err := Generate(length)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "length %d", length)
	}
}

func TestHasExpired(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, HasExpired(created, created.Add(time.Second), created), "before expiry")
	assert.False(t, HasExpired(created, created, created), "boundary instant is not expired")
	assert.True(t, HasExpired(created, created.Add(-time.Second), created), "after expiry")
}

func TestNewOtp(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	processID := id.NewProcessID()

	o, err := NewOtp(id.NewOtpID(), processID, TypeActivation, "hash", 3, 5*time.Minute, now)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, o.Status)
	assert.Equal(t, now.Add(5*time.Minute), o.ExpiresAt)
	assert.Equal(t, 3, o.RemainingAttempts())

	_, err = NewOtp(id.NewOtpID(), processID, Type("SMS"), "hash", 3, time.Minute, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = NewOtp(id.NewOtpID(), "", TypeActivation, "hash", 3, time.Minute, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestMatchable(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	o, err := NewOtp(id.NewOtpID(), id.NewProcessID(), TypeUserVerification, "hash", 2, time.Minute, now)
	require.NoError(t, err)

	assert.True(t, o.Matchable(now))
	assert.True(t, o.Matchable(now.Add(time.Minute)))
	assert.False(t, o.Matchable(now.Add(time.Minute+time.Nanosecond)))

	o.FailedAttempts = 2
	assert.True(t, o.Exhausted())
	assert.False(t, o.Matchable(now))

	o.FailedAttempts = 5
	assert.Equal(t, 0, o.RemainingAttempts())
}
