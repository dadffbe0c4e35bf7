package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "invalid input maps to 400",
			err:      New(ErrorTypeInvalidInput, "bad url"),
			expected: http.StatusBadRequest,
		},
		{
			name:     "empty payload maps to 400",
			err:      New(ErrorTypeEmptyPayload, "downloaded file is empty"),
			expected: http.StatusBadRequest,
		},
		{
			name:     "not found maps to 404",
			err:      New(ErrorTypeNotFound, "no media found"),
			expected: http.StatusNotFound,
		},
		{
			name:     "rate limit maps to 429",
			err:      New(ErrorTypeRateLimit, "slow down"),
			expected: http.StatusTooManyRequests,
		},
		{
			name:     "upstream error echoes upstream status",
			err:      WithCode(ErrorTypeUpstream, http.StatusForbidden, "denied"),
			expected: http.StatusForbidden,
		},
		{
			name:     "upstream error without usable code maps to 500",
			err:      New(ErrorTypeUpstream, "connection reset"),
			expected: http.StatusInternalServerError,
		},
		{
			name:     "network error maps to 500",
			err:      New(ErrorTypeNetwork, "dial timeout"),
			expected: http.StatusInternalServerError,
		},
		{
			name:     "plain error maps to 500",
			err:      errors.New("boom"),
			expected: http.StatusInternalServerError,
		},
		{
			name:     "wrapped typed error is unwrapped",
			err:      fmt.Errorf("extract: %w", New(ErrorTypeNotFound, "gone")),
			expected: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "bad url", UserMessage(New(ErrorTypeInvalidInput, "bad url")))
	assert.Equal(t, "no media found", UserMessage(New(ErrorTypeNotFound, "no media found")))

	// Internal detail never reaches the browser
	assert.Equal(t, "Failed to download media", UserMessage(New(ErrorTypeNetwork, "dial tcp 10.0.0.1: timeout")))
	assert.Equal(t, "Internal server error", UserMessage(errors.New("pq: connection refused")))

	msg := UserMessage(New(ErrorTypeRateLimit, "upstream 429"))
	assert.Contains(t, msg, "too quickly")
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("wrap: %w", New(ErrorTypeRateLimit, "x"))
	assert.True(t, IsType(err, ErrorTypeRateLimit))
	assert.False(t, IsType(err, ErrorTypeNotFound))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeRateLimit))
}
