package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind is the closed set of failure categories in the agent system.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetwork
	KindAPI
	KindAPIRateLimit
	KindConfiguration
	KindValidation
)

// String returns the machine-parseable error code for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "NETWORK_ERROR"
	case KindAPI:
		return "API_ERROR"
	case KindAPIRateLimit:
		return "API_RATE_LIMIT"
	case KindConfiguration:
		return "CONFIG_ERROR"
	case KindValidation:
		return "VALIDATION_ERROR"
	default:
		return "AGENT_ERROR"
	}
}

// Severity grades an error. It affects log verbosity only, never control flow.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// AgentError is the tagged error type for every failure the agent system
// reports. The Kind discriminates the taxonomy so retry and conversion
// logic can be exhaustive.
type AgentError struct {
	Kind     ErrorKind
	Severity Severity
	Message  string

	// APIName and StatusCode are set for API errors.
	APIName    string
	StatusCode int
	// RetryAfter is set for rate-limit errors; it overrides the computed
	// backoff delay when retrying.
	RetryAfter time.Duration
	// Field names the offending input for validation errors.
	Field string

	Details   map[string]any
	Timestamp time.Time
	Err       error
}

func (e *AgentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AgentError) Unwrap() error { return e.Err }

// Retryable reports whether the error is transient: network and API
// failures are retried, configuration and validation failures never are.
func (e *AgentError) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindAPI, KindAPIRateLimit:
		return true
	default:
		return false
	}
}

// Wire returns the structured form used inside error reply envelopes.
func (e *AgentError) Wire() map[string]any {
	return map[string]any{
		"error_code": e.Kind.String(),
		"severity":   e.Severity.String(),
		"message":    e.Message,
		"details":    e.details(),
		"timestamp":  e.Timestamp.Format(time.RFC3339Nano),
	}
}

func (e *AgentError) details() map[string]any {
	d := make(map[string]any, len(e.Details)+3)
	for k, v := range e.Details {
		d[k] = v
	}
	if e.APIName != "" {
		d["api_name"] = e.APIName
	}
	if e.StatusCode != 0 {
		d["status_code"] = e.StatusCode
	}
	if e.RetryAfter > 0 {
		d["retry_after"] = e.RetryAfter.Seconds()
	}
	if e.Field != "" {
		d["field"] = e.Field
	}
	return d
}

// NewNetworkError reports a transport-level failure.
func NewNetworkError(message string, cause error) *AgentError {
	return &AgentError{
		Kind:      KindNetwork,
		Severity:  SeverityMedium,
		Message:   message,
		Timestamp: time.Now(),
		Err:       cause,
	}
}

// NewAPIError reports a failed call to a named external API.
func NewAPIError(message, apiName string, statusCode int) *AgentError {
	return &AgentError{
		Kind:       KindAPI,
		Severity:   SeverityMedium,
		Message:    message,
		APIName:    apiName,
		StatusCode: statusCode,
		Timestamp:  time.Now(),
	}
}

// NewRateLimitError reports an API rate limit; retryAfter, when positive,
// replaces the computed backoff delay on retry.
func NewRateLimitError(message, apiName string, retryAfter time.Duration) *AgentError {
	return &AgentError{
		Kind:       KindAPIRateLimit,
		Severity:   SeverityMedium,
		Message:    message,
		APIName:    apiName,
		RetryAfter: retryAfter,
		Timestamp:  time.Now(),
	}
}

// NewConfigurationError reports missing or invalid setup. Not retryable.
func NewConfigurationError(message, configKey string) *AgentError {
	e := &AgentError{
		Kind:      KindConfiguration,
		Severity:  SeverityHigh,
		Message:   message,
		Timestamp: time.Now(),
	}
	if configKey != "" {
		e.Details = map[string]any{"config_key": configKey}
	}
	return e
}

// NewValidationError reports malformed caller input. Not retryable.
func NewValidationError(message, field string) *AgentError {
	return &AgentError{
		Kind:      KindValidation,
		Severity:  SeverityMedium,
		Message:   message,
		Field:     field,
		Timestamp: time.Now(),
	}
}

// AsAgentError unwraps err to an *AgentError when one is in the chain.
func AsAgentError(err error) (*AgentError, bool) {
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
