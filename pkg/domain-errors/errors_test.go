package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeNotFound, "process not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeInternal))
	})

	t.Run("matches inner code through wrapping", func(t *testing.T) {
		inner := New(CodeConflict, "state changed")
		err := Wrap(fmt.Errorf("persist: %w", inner), CodeInternal, "transition failed")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeConflict))
		assert.Equal(t, CodeInternal, CodeOf(err))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		err := errors.New("boom")
		assert.False(t, HasCode(err, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(err))
	})

	t.Run("wrap of nil is nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "unused"))
	})
}

func TestErrorMessage(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(base, CodeUnavailable, "provider unreachable")
	assert.Equal(t, "provider unreachable: connection refused", err.Error())
	assert.ErrorIs(t, err, base)
}
