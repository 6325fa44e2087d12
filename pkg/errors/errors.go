package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorType classifies registry and policy failures
type ErrorType string

const (
	// ErrorTypeConfiguration covers unreadable or malformed registry sources
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeInvalidDocument covers schema and invariant violations in a parsed document
	ErrorTypeInvalidDocument ErrorType = "invalid_document"
	// ErrorTypeUnknownContract is returned when a contract resolves to no service
	ErrorTypeUnknownContract ErrorType = "unknown_contract"
	// ErrorTypeMissingContracts is returned when required contracts are absent from the registry
	ErrorTypeMissingContracts ErrorType = "missing_contracts"
	// ErrorTypePolicyViolation covers publish-ingress hop limits below the policy minimum
	ErrorTypePolicyViolation ErrorType = "policy_violation"
)

// Error is a structured error with a stable type and contextual details.
// All failures in this module abort startup or fail the CI check; none are
// retried or downgraded by callers.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]any
}

// NewError creates a structured error
func NewError(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Details: make(map[string]any),
	}
}

// WithCause attaches the underlying cause
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetail attaches a contextual detail
func (e *Error) WithDetail(key string, value any) *Error {
	e.Details[key] = value
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by type
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// MissingContracts builds a missing_contracts error carrying the complete
// missing set, sorted and deduplicated so operators see every gap in one pass.
func MissingContracts(missing []string) *Error {
	set := make(map[string]struct{}, len(missing))
	for _, contract := range missing {
		set[contract] = struct{}{}
	}
	deduped := make([]string, 0, len(set))
	for contract := range set {
		deduped = append(deduped, contract)
	}
	sort.Strings(deduped)

	return NewError(ErrorTypeMissingContracts,
		fmt.Sprintf("registry is missing required api contracts: %s", strings.Join(deduped, ", "))).
		WithDetail("missing", deduped)
}

// MissingContractSet extracts the missing contract set from a
// missing_contracts error, or nil if err is not one.
func MissingContractSet(err error) []string {
	e, ok := err.(*Error)
	if !ok || e.Type != ErrorTypeMissingContracts {
		return nil
	}
	missing, _ := e.Details["missing"].([]string)
	return missing
}

// IsType reports whether err is a structured error of the given type
func IsType(err error, errType ErrorType) bool {
	e, ok := err.(*Error)
	return ok && e.Type == errType
}
