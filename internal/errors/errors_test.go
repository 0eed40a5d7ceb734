package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNotFound, "recipe not found")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeNotFound, err.Code)
	assert.Equal(t, "recipe not found", err.Message)
	assert.Nil(t, err.Cause)
	assert.Equal(t, "[NOT_FOUND] recipe not found", err.Error())
}

func TestWrapKeepsCauseReachable(t *testing.T) {
	sentinel := stderrors.New("duplicate")
	err := Wrap(ErrCodeConflict, "already exists", sentinel)

	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "duplicate")

	outer := fmt.Errorf("create: %w", err)
	assert.ErrorIs(t, outer, sentinel)
	assert.Equal(t, ErrCodeConflict, CodeOf(outer))
	assert.Equal(t, "already exists", MessageOf(outer, "fallback"))
}

func TestCodeOfPlainError(t *testing.T) {
	plain := stderrors.New("boom")
	assert.Equal(t, ErrCodeInternal, CodeOf(plain))
	assert.Equal(t, "fallback", MessageOf(plain, "fallback"))

	_, ok := As(plain)
	assert.False(t, ok)
}

func TestWithContext(t *testing.T) {
	err := New(ErrCodeInvalidRequest, "bad").WithContext("field", "name")
	assert.Equal(t, "name", err.Context["field"])
}
