package host

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorPredicates(t *testing.T) {
	ce := NewConfigError("name", "required")
	ve := NewValidationError("port", "abc", "not a number")
	oe := NewOpError("close", 3, nil)

	assert.True(t, IsConfigError(ce))
	assert.False(t, IsConfigError(ve))

	assert.True(t, IsValidationError(ve))
	assert.False(t, IsValidationError(oe))

	assert.True(t, IsOpError(oe))
	assert.False(t, IsOpError(ce))
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("open window: %w", NewConfigError("name", "required"))
	assert.True(t, IsConfigError(wrapped))

	var ce *ConfigError
	assert.True(t, errors.As(wrapped, &ce))
	assert.Equal(t, "name", ce.Field)
}

func TestOpErrorUnwrap(t *testing.T) {
	inner := errors.New("gone")
	oe := NewOpError("lines", 7, inner)
	assert.True(t, errors.Is(oe, inner))
	assert.Contains(t, oe.Error(), "surface 7")
}
