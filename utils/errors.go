package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	ErrTimeout         = errors.New("operation timed out")
	ErrCanceled        = errors.New("operation was canceled")
	ErrInvalidArgument = errors.New("invalid argument")
)

type ErrorType int

const (
	NetworkError ErrorType = iota
	ConfigError
	ProcessingError
	RateLimitError
	WAFError
	TemporaryError
	NotFoundError
	StatusError
)

func (t ErrorType) String() string {
	switch t {
	case NetworkError:
		return "network"
	case ConfigError:
		return "config"
	case ProcessingError:
		return "processing"
	case RateLimitError:
		return "rate limit"
	case WAFError:
		return "waf"
	case TemporaryError:
		return "temporary"
	case NotFoundError:
		return "not found"
	case StatusError:
		return "status"
	default:
		return "unknown"
	}
}

type AppError struct {
	Type       ErrorType
	Message    string
	Err        error
	StatusCode int
}

func NewError(errType ErrorType, message string, err error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

/*
   Builds an AppError from an unexpected HTTP status code,
   picking the error type the scheduler reacts to
*/
func NewStatusError(statusCode int, url string) *AppError {
	errType := StatusError
	switch {
	case statusCode == http.StatusNotFound || statusCode == http.StatusGone:
		errType = NotFoundError
	case statusCode == http.StatusTooManyRequests:
		errType = RateLimitError
	case statusCode >= 500 && statusCode <= 599:
		errType = TemporaryError
	}

	return &AppError{
		Type:       errType,
		Message:    fmt.Sprintf("unexpected status %d for %s", statusCode, url),
		StatusCode: statusCode,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func hasType(err error, errType ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == errType
}

/*
   Determines if an error is related to rate limiting based on type or common keywords
*/
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if hasType(err, RateLimitError) {
		return true
	}

	return containsAnyFold(err.Error(), "rate limit", "too many requests", "throttle")
}

/*
   Identifies if an error is related to Web Application Firewall restrictions
*/
func IsWAFError(err error) bool {
	if err == nil {
		return false
	}
	if hasType(err, WAFError) {
		return true
	}

	return containsAnyFold(err.Error(), "firewall", "403 forbidden")
}

/*
   Checks if an error is temporary and potentially retryable
*/
func IsTemporaryError(err error) bool {
	if err == nil {
		return false
	}
	if hasType(err, TemporaryError) {
		return true
	}
	if IsTimeoutError(err) {
		return true
	}

	return containsAnyFold(err.Error(),
		"connection reset",
		"connection refused",
		"network is unreachable",
		"server is busy",
		"try again",
		"temporary failure",
	)
}

// IsTimeoutError checks for deadlines and network timeouts
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsNotFoundError checks if an error indicates a missing page
func IsNotFoundError(err error) bool {
	return hasType(err, NotFoundError)
}

// IsStatusError checks for an unexpected but final HTTP status
func IsStatusError(err error) bool {
	return hasType(err, StatusError)
}

/*
   Checks if an error was caused by context cancellation
*/
func IsContextCanceled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

func containsAnyFold(s string, keywords ...string) bool {
	s = strings.ToLower(s)
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
