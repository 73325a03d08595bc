package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeUnsupportedWebsite means no extraction ruleset matches the URL's domain
	ErrorTypeUnsupportedWebsite ErrorType = "unsupported_website"
	// ErrorTypeInvalidRequest represents a missing, malformed or rental listing URL
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeFeatureParse represents a single malformed feature entry
	ErrorTypeFeatureParse ErrorType = "feature_parse"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// AnalysisError is an error raised while analysing a listing
type AnalysisError struct {
	Type    ErrorType
	Website string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Website, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Website, e.Message)
}

// Unwrap returns the underlying error
func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether the error was caused by the caller's input
func (e *AnalysisError) IsClientError() bool {
	switch e.Type {
	case ErrorTypeUnsupportedWebsite, ErrorTypeInvalidRequest:
		return true
	default:
		return false
	}
}

// New creates a new AnalysisError
func New(errType ErrorType, website, message string, err error) *AnalysisError {
	return &AnalysisError{
		Type:    errType,
		Website: website,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewUnsupportedWebsite creates a new unsupported website error
func NewUnsupportedWebsite(rawURL string) *AnalysisError {
	return New(ErrorTypeUnsupportedWebsite, "", "Unsupported website: "+rawURL, nil)
}

// NewInvalidRequest creates a new invalid request error
func NewInvalidRequest(message string, err error) *AnalysisError {
	return New(ErrorTypeInvalidRequest, "", message, err)
}

// NewNetwork creates a new network error
func NewNetwork(website, message string, err error) *AnalysisError {
	return New(ErrorTypeNetwork, website, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(website string, duration time.Duration) *AnalysisError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, website, message, nil)
}

// NewParsing creates a new parsing error
func NewParsing(website, message string, err error) *AnalysisError {
	return New(ErrorTypeParsing, website, message, err)
}

// NewFeatureParse creates a new feature parse error
func NewFeatureParse(website, message string, err error) *AnalysisError {
	return New(ErrorTypeFeatureParse, website, message, err)
}

// NewCache creates a new cache error
func NewCache(message string, err error) *AnalysisError {
	return New(ErrorTypeCache, "", message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(message string, err error) *AnalysisError {
	return New(ErrorTypePublisher, "", message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *AnalysisError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the ErrorType of the first AnalysisError in err's chain, or "" if there is none
func TypeOf(err error) ErrorType {
	var ae *AnalysisError
	if stderrors.As(err, &ae) {
		return ae.Type
	}
	return ""
}

// IsType reports whether err's chain contains an AnalysisError of the given type
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}
