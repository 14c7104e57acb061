package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport failures (dial, timeout, read)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeStatus represents a non-2xx HTTP status
	ErrorTypeStatus ErrorType = "status"
	// ErrorTypeRateLimit represents a 429/430 answer or an active block marker
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeDecode represents JSON/CSV decoding errors
	ErrorTypeDecode ErrorType = "decode"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeBrowser represents headless browser failures
	ErrorTypeBrowser ErrorType = "browser"
	// ErrorTypeWrite represents output file errors
	ErrorTypeWrite ErrorType = "write"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// CrawlerError represents a crawler-specific error
type CrawlerError struct {
	Type     ErrorType
	Provider string
	Message  string
	Err      error
	Time     time.Time
}

// Error implements the error interface
func (e *CrawlerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Provider, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlerError) Unwrap() error {
	return e.Err
}

// New creates a new CrawlerError
func New(errType ErrorType, provider, message string, err error) *CrawlerError {
	return &CrawlerError{
		Type:     errType,
		Provider: provider,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeNetwork, provider, message, err)
}

// NewStatus creates an error for an unexpected HTTP status code
func NewStatus(provider string, code int) *CrawlerError {
	return New(ErrorTypeStatus, provider, fmt.Sprintf("unexpected status code: %d", code), nil)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(provider string, retryAfter string) *CrawlerError {
	message := "rate limited"
	if retryAfter != "" {
		message = fmt.Sprintf("rate limited; retry after %s", retryAfter)
	}
	return New(ErrorTypeRateLimit, provider, message, nil)
}

// NewDecode creates a new decode error
func NewDecode(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeDecode, provider, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeParsing, provider, message, err)
}

// NewBrowser creates a new browser error
func NewBrowser(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeBrowser, provider, message, err)
}

// NewWrite creates a new output write error
func NewWrite(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeWrite, provider, message, err)
}

// NewValidation creates a new validation error
func NewValidation(provider, message string) *CrawlerError {
	return New(ErrorTypeValidation, provider, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlerError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the ErrorType of the first CrawlerError in err's chain, or
// the empty string.
func TypeOf(err error) ErrorType {
	var ce *CrawlerError
	if stderrors.As(err, &ce) {
		return ce.Type
	}
	return ""
}

// IsRateLimited reports whether err carries a rate limit error
func IsRateLimited(err error) bool {
	return TypeOf(err) == ErrorTypeRateLimit
}
