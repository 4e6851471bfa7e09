package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	withCause := NewInternalError("query failed", errors.New("boom"))
	assert.Equal(t, "INTERNAL: query failed: boom", withCause.Error())

	withoutCause := NewNotFoundError("place not found")
	assert.Equal(t, "NOT_FOUND: place not found", withoutCause.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("driver failure")
	err := NewConnectionError("acquire failed", cause)

	assert.ErrorIs(t, err, cause)
}

func TestKindOf(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected Kind
	}{
		{name: "connection", err: NewConnectionError("x", nil), expected: KindConnection},
		{name: "constraint", err: NewConstraintViolation("x", nil), expected: KindConstraintViolation},
		{name: "not_found", err: NewNotFoundError("x"), expected: KindNotFound},
		{name: "validation", err: NewValidationError("x"), expected: KindValidation},
		{name: "unauthorized", err: NewUnauthorizedError("x"), expected: KindUnauthorized},
		{name: "forbidden", err: NewForbiddenError("x"), expected: KindForbidden},
		{name: "plain_error", err: errors.New("x"), expected: KindInternal},
		{name: "fmt_wrapped", err: fmt.Errorf("outer: %w", NewNotFoundError("x")), expected: KindNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, KindOf(tc.err))
		})
	}
}

func TestWrap_KeepsKind(t *testing.T) {
	err := Wrap(NewConstraintViolation("duplicate username", nil), "create user")

	require.Error(t, err)
	assert.True(t, IsConstraintViolation(err))
	assert.Contains(t, err.Error(), "create user")
	assert.Nil(t, Wrap(nil, "noop"))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewConnectionError("pool closed", nil)))
	assert.False(t, IsRetryable(NewConstraintViolation("duplicate", nil)))
	assert.False(t, IsRetryable(NewNotFoundError("missing")))
	assert.False(t, IsRetryable(nil))
}
