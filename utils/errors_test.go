package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStatusError(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorType
	}{
		{404, NotFoundError},
		{410, NotFoundError},
		{429, RateLimitError},
		{403, StatusError},
		{500, TemporaryError},
		{503, TemporaryError},
		{418, StatusError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			err := NewStatusError(tt.status, "https://example.com")

			assert.Equal(t, tt.expected, err.Type)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.Contains(t, err.Error(), "https://example.com")
		})
	}
}

func TestErrorClassification(t *testing.T) {
	wrapped := fmt.Errorf("fetch: %w", NewStatusError(429, "u"))

	assert.True(t, IsRateLimitError(wrapped))
	assert.False(t, IsWAFError(wrapped))
	assert.False(t, IsNotFoundError(wrapped))

	assert.False(t, IsWAFError(NewStatusError(403, "u")))
	assert.True(t, IsStatusError(NewStatusError(403, "u")))
	assert.False(t, IsStatusError(NewStatusError(404, "u")))
	assert.True(t, IsWAFError(&AppError{Type: WAFError}))
	assert.True(t, IsNotFoundError(NewStatusError(404, "u")))
	assert.True(t, IsTemporaryError(NewStatusError(502, "u")))
	assert.True(t, IsTemporaryError(fmt.Errorf("get: %w", context.DeadlineExceeded)))
	assert.True(t, IsTemporaryError(errors.New("dial tcp: connection refused")))
	assert.True(t, IsRateLimitError(errors.New("Too Many Requests")))

	assert.False(t, IsTemporaryError(nil))
	assert.False(t, IsRateLimitError(nil))
	assert.False(t, IsTemporaryError(errors.New("no such host")))
}

func TestAppError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(ProcessingError, "failed to parse", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, &AppError{Type: ProcessingError}))
	assert.False(t, errors.Is(err, &AppError{Type: NetworkError}))
	assert.Equal(t, "failed to parse: boom", err.Error())
	assert.Equal(t, "processing", err.Type.String())
}

func TestIsContextCanceled(t *testing.T) {
	assert.True(t, IsContextCanceled(fmt.Errorf("x: %w", context.Canceled)))
	assert.True(t, IsContextCanceled(ErrCanceled))
	assert.False(t, IsContextCanceled(errors.New("other")))
}
