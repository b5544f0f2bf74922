package github

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

// ErrorType represents different categories of GitHub API errors
type ErrorType string

const (
	ErrorTypeAuth       ErrorType = "authentication"
	ErrorTypePermission ErrorType = "permission"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeServer     ErrorType = "server"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error represents a structured error from GitHub operations
type Error struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Cause     error     `json:"-"`
	Resource  string    `json:"resource,omitempty"`
	Retryable bool      `json:"retryable"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s error for %s: %s", e.Type, e.Resource, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether the error is retryable
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// IsNotFound reports whether err is a GitHub not-found error
func IsNotFound(err error) bool {
	ghErr, ok := err.(*Error)
	return ok && ghErr.Type == ErrorTypeNotFound
}

// NewError creates a new Error with the specified type and message
func NewError(errorType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:      errorType,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryableErrorType(errorType),
	}
}

// WrapError wraps a GitHub API error into our structured error type
func WrapError(err error, resource string) *Error {
	if err == nil {
		return nil
	}

	// Already wrapped, just attach the resource
	if ghErr, ok := err.(*Error); ok {
		if ghErr.Resource == "" {
			ghErr.Resource = resource
		}
		return ghErr
	}

	if rlErr, ok := err.(*github.RateLimitError); ok {
		return &Error{
			Type:      ErrorTypeRateLimit,
			Message:   fmt.Sprintf("rate limit exceeded, resets at %v", rlErr.Rate.Reset.Time),
			Cause:     err,
			Resource:  resource,
			Retryable: true,
		}
	}

	if abuseErr, ok := err.(*github.AbuseRateLimitError); ok {
		return &Error{
			Type:      ErrorTypeRateLimit,
			Message:   fmt.Sprintf("secondary rate limit hit: %s", abuseErr.Message),
			Cause:     err,
			Resource:  resource,
			Retryable: true,
		}
	}

	if respErr, ok := err.(*github.ErrorResponse); ok {
		return parseAPIError(respErr, resource)
	}

	if isNetworkError(err) {
		return &Error{
			Type:      ErrorTypeNetwork,
			Message:   "network error, check your connection and try again",
			Cause:     err,
			Resource:  resource,
			Retryable: true,
		}
	}

	return &Error{
		Type:      ErrorTypeUnknown,
		Message:   err.Error(),
		Cause:     err,
		Resource:  resource,
		Retryable: false,
	}
}

// parseAPIError parses GitHub API error responses into structured errors
func parseAPIError(respErr *github.ErrorResponse, resource string) *Error {
	baseErr := &Error{
		Resource: resource,
		Cause:    respErr,
	}

	switch respErr.Response.StatusCode {
	case http.StatusUnauthorized:
		baseErr.Type = ErrorTypeAuth
		baseErr.Message = "authentication failed, check your GitHub token"
		baseErr.Retryable = false

	case http.StatusForbidden:
		if strings.Contains(respErr.Message, "rate limit") {
			baseErr.Type = ErrorTypeRateLimit
			baseErr.Message = "GitHub API rate limit exceeded"
			baseErr.Retryable = true
		} else {
			baseErr.Type = ErrorTypePermission
			baseErr.Message = "insufficient permissions, the token may be missing the repo scope"
			baseErr.Retryable = false
		}

	case http.StatusNotFound, http.StatusGone:
		baseErr.Type = ErrorTypeNotFound
		baseErr.Message = "resource not found, check the repository name and your access"
		baseErr.Retryable = false

	case http.StatusUnprocessableEntity:
		baseErr.Type = ErrorTypeValidation
		baseErr.Message = "validation failed"
		baseErr.Retryable = false

		if len(respErr.Errors) > 0 {
			var details []string
			for _, e := range respErr.Errors {
				if e.Field != "" {
					details = append(details, fmt.Sprintf("%s: %s", e.Field, e.Message))
				} else {
					details = append(details, e.Message)
				}
			}
			baseErr.Message = fmt.Sprintf("validation failed: %s", strings.Join(details, "; "))
		}

	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		baseErr.Type = ErrorTypeServer
		baseErr.Message = "GitHub API is temporarily unavailable"
		baseErr.Retryable = true

	default:
		baseErr.Type = ErrorTypeUnknown
		baseErr.Message = respErr.Message
		baseErr.Retryable = respErr.Response.StatusCode >= 500
	}

	return baseErr
}

// isNetworkError checks if an error is a network-related error
func isNetworkError(err error) bool {
	errStr := strings.ToLower(err.Error())
	networkKeywords := []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no such host",
		"timeout",
		"dial tcp",
		"i/o timeout",
	}

	for _, keyword := range networkKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// isRetryableErrorType determines if an error type is generally retryable
func isRetryableErrorType(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeRateLimit, ErrorTypeNetwork, ErrorTypeServer:
		return true
	default:
		return false
	}
}

// RetryConfig defines configuration for retry logic
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryableOperation represents an operation that can be retried
type RetryableOperation func() error

// WithRetry executes an operation with retry logic.
// Only errors classified as retryable are attempted again; auth,
// not-found and validation errors surface immediately.
func WithRetry(operation RetryableOperation, config *RetryConfig) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)

			delay = time.Duration(float64(delay) * config.BackoffFactor)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}

		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err

		ghErr, ok := err.(*Error)
		if !ok {
			// Unclassified errors are not retried
			return err
		}
		if !ghErr.IsRetryable() {
			return err
		}

		// On a hard rate limit, waiting for the documented reset beats
		// blind exponential backoff
		if ghErr.Type == ErrorTypeRateLimit {
			if rlErr, ok := ghErr.Cause.(*github.RateLimitError); ok {
				waitTime := time.Until(rlErr.Rate.Reset.Time)
				if waitTime > 0 && waitTime < 5*time.Minute {
					time.Sleep(waitTime)
					continue
				}
			}
		}
	}

	return fmt.Errorf("operation failed after %d retries: %w", config.MaxRetries, lastErr)
}
