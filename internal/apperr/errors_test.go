package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError_UnwrapsCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("post /orders: %w", ErrNetwork)
	err := WithMessage("Failed to place order. Please try again.", cause)

	assert.True(t, errors.Is(err, ErrNetwork))
	assert.False(t, errors.Is(err, ErrAuth))
	assert.Equal(t, "Failed to place order. Please try again.", Message(err, "x"))
	assert.Contains(t, err.Error(), "network unavailable")
}

func TestMessage_Fallback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fallback", Message(errors.New("boom"), "fallback"))
	assert.Equal(t, "fallback", Message(nil, "fallback"))
	assert.Equal(t, "fallback", Message(&UserError{Err: ErrAuth}, "fallback"))
}

func TestMessage_ThroughWrapping(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("login: %w", WithMessage("Unable to login. Please try again.", ErrAuth))
	assert.Equal(t, "Unable to login. Please try again.", Message(err, ""))
	assert.ErrorIs(t, err, ErrAuth)
}
