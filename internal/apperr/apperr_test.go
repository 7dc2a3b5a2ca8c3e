package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf_TypedErrorThroughWrapping(t *testing.T) {
	base := NewConflict("session.Register", "user with email or username already exists")
	wrapped := fmt.Errorf("outer: %w", base)

	assert.Equal(t, Conflict, KindOf(wrapped))
	assert.True(t, Is(wrapped, Conflict))
	assert.False(t, Is(wrapped, Auth))
}

func TestKindOf_ForeignErrorIsUnexpected(t *testing.T) {
	assert.Equal(t, Unexpected, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, Unexpected))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap("store.Create", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, Unexpected, err.Kind)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestAs_ReturnsDetails(t *testing.T) {
	err := fmt.Errorf("ctx: %w", NewValidation("op", "validation failed", "email is required"))

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"email is required"}, e.Details)
}
