package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkerr "github.com/mrz1836/safecheck/pkg/errors"
)

var (
	errInner = errors.New("inner")
	errPlain = errors.New("plain error")
)

func TestExitCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, checkerr.ExitSuccess},
		{"general error", checkerr.ErrGeneral, checkerr.ExitGeneral},
		{"invalid address", checkerr.ErrInvalidAddress, checkerr.ExitInput},
		{"unsupported scheme", checkerr.ErrUnsupportedScheme, checkerr.ExitInput},
		{"missing token", checkerr.ErrMissingAuthToken, checkerr.ExitAuth},
		{"not found", checkerr.ErrNotFound, checkerr.ExitNotFound},
		{"network", checkerr.ErrNetworkError, checkerr.ExitNetwork},
		{"plain error", errPlain, checkerr.ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, checkerr.ExitCode(tt.err))
		})
	}
}

func TestWrapPreservesKind(t *testing.T) {
	t.Parallel()

	kinds := []*checkerr.CheckError{
		checkerr.ErrInvalidAddress,
		checkerr.ErrUnsupportedScheme,
		checkerr.ErrMissingAuthToken,
		checkerr.ErrUnrecognizedAuthentication,
		checkerr.ErrNotFound,
		checkerr.ErrNetworkError,
		checkerr.ErrUnsupportedMastercopy,
	}

	for _, kind := range kinds {
		t.Run(kind.Code, func(t *testing.T) {
			t.Parallel()
			wrapped := checkerr.Wrap(kind, "loading chain eth")
			require.ErrorIs(t, wrapped, kind)
			assert.Equal(t, kind.ExitCode, checkerr.ExitCode(wrapped))
			assert.Contains(t, wrapped.Error(), "loading chain eth")
		})
	}
}

func TestWrapPlainError(t *testing.T) {
	t.Parallel()

	wrapped := checkerr.Wrap(errInner, "reading %s", "page")
	require.ErrorIs(t, wrapped, errInner)
	assert.Equal(t, "GENERAL_ERROR", checkerr.Code(wrapped))
	assert.Equal(t, "reading page: inner", wrapped.Error())
}

func TestWrapNil(t *testing.T) {
	t.Parallel()
	require.NoError(t, checkerr.Wrap(nil, "nothing"))
	require.NoError(t, checkerr.WithDetails(nil, map[string]string{"a": "b"}))
	require.NoError(t, checkerr.WithSuggestion(nil, "try again"))
}

func TestWithCause(t *testing.T) {
	t.Parallel()

	err := checkerr.WithCause(checkerr.ErrNetworkError, errInner)
	require.ErrorIs(t, err, checkerr.ErrNetworkError)
	require.ErrorIs(t, err, errInner)
	assert.Equal(t, "network communication failed: inner", err.Error())
}

func TestWithDetails(t *testing.T) {
	t.Parallel()
	details := map[string]string{
		"address":  "0xabc",
		"expected": "0xABC",
	}

	err := checkerr.WithDetails(checkerr.ErrInvalidAddress, details)

	var ce *checkerr.CheckError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, details, ce.Details)
	assert.Equal(t, "invalid address (address: 0xabc) (expected: 0xABC)", err.Error())
}

func TestWithDetailsPlainError(t *testing.T) {
	t.Parallel()

	err := checkerr.WithDetails(errPlain, map[string]string{"k": "v"})

	var ce *checkerr.CheckError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "GENERAL_ERROR", ce.Code)
	require.ErrorIs(t, err, errPlain)
}

func TestWithSuggestion(t *testing.T) {
	t.Parallel()
	suggestion := "Store one with 'safecheck token set <value>'"
	err := checkerr.WithSuggestion(checkerr.ErrMissingAuthToken, suggestion)

	var ce *checkerr.CheckError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, suggestion, ce.Suggestion)
	require.ErrorIs(t, err, checkerr.ErrMissingAuthToken)
}

func TestCodeDistinguishesKinds(t *testing.T) {
	t.Parallel()

	require.NotErrorIs(t, checkerr.ErrNotFound, checkerr.ErrNetworkError)
	assert.Equal(t, "UNSUPPORTED_MASTERCOPY", checkerr.Code(checkerr.ErrUnsupportedMastercopy))
	assert.Equal(t, "GENERAL_ERROR", checkerr.Code(errPlain))
}

func TestNew(t *testing.T) {
	t.Parallel()

	err := checkerr.New("CUSTOM", "custom failure")
	assert.Equal(t, "custom failure", err.Error())
	assert.Equal(t, checkerr.ExitGeneral, err.ExitCode)
	assert.True(t, checkerr.Is(err, checkerr.New("CUSTOM", "other message")))
}
