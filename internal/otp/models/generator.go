package models

import (
	"crypto/rand"
	"fmt"
	"math/big"

	dErrors "onboarding/pkg/domain-errors"
)

const (
	MinCodeLength = 4
	MaxCodeLength = 12
)

// Generate returns a uniformly random decimal code of exactly length digits,
// zero padded. length must be within [MinCodeLength, MaxCodeLength].
func Generate(length int) (string, error) {
	if length < MinCodeLength || length > MaxCodeLength {
		return "", dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("otp length must be within [%d,%d], got %d", MinCodeLength, MaxCodeLength, length))
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "read random source")
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
