package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	// Unit loading
	ErrorTypeUnrecognizedOption ErrorType = "unrecognized_option"
	ErrorTypeUnknownServiceType ErrorType = "unknown_service_type"
	ErrorTypeMalformedUnitFile  ErrorType = "malformed_unit_file"
	ErrorTypeNoUnitsFound       ErrorType = "no_units_found"
	ErrorTypeDuplicateUnit      ErrorType = "duplicate_unit"

	// Ordering
	ErrorTypeCycleDetected ErrorType = "cycle_detected"

	// Supervision
	ErrorTypeSpawnFailed ErrorType = "spawn_failed"
	ErrorTypeProcess     ErrorType = "process"

	// Generic
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeCancelled  ErrorType = "cancelled"
)

// Context keys shared by the loaders, the orderer and the supervisor
const (
	ContextKeyUnit    = "unit"
	ContextKeyUnits   = "units"
	ContextKeyOptions = "options"
	ContextKeyType    = "type"
	ContextKeyPath    = "path"
)

// DomainError represents a structured error with type and context
type DomainError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *DomainError) Is(target error) bool {
	if other, ok := target.(*DomainError); ok {
		return e.Type == other.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Names returns a string list stored under key, or nil if there is none.
func (e *DomainError) Names(key string) []string {
	names, _ := e.Context[key].([]string)
	return names
}

// NewDomainError creates a new domain error
func NewDomainError(errorType ErrorType, message string, cause error) *DomainError {
	return &DomainError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewUnrecognizedOptionError reports the keys left over in a unit file
// section after the recognized ones were consumed. Keys are sorted.
func NewUnrecognizedOptionError(section string, keys []string) *DomainError {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	return NewDomainError(
		ErrorTypeUnrecognizedOption,
		fmt.Sprintf("[%s] has unrecognized options: %s", section, strings.Join(sorted, ", ")),
		nil,
	).WithContext(ContextKeyOptions, sorted)
}

func NewUnknownServiceTypeError(value string) *DomainError {
	return NewDomainError(
		ErrorTypeUnknownServiceType,
		fmt.Sprintf("service type is unrecognized: %q", value),
		nil,
	).WithContext(ContextKeyType, value)
}

func NewMalformedUnitFileError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeMalformedUnitFile, message, cause)
}

func NewNoUnitsFoundError(path string) *DomainError {
	return NewDomainError(
		ErrorTypeNoUnitsFound,
		fmt.Sprintf("could not find .service files in %s", path),
		nil,
	).WithContext(ContextKeyPath, path)
}

func NewDuplicateUnitError(name string) *DomainError {
	return NewDomainError(
		ErrorTypeDuplicateUnit,
		fmt.Sprintf("unit %q is defined more than once", name),
		nil,
	).WithContext(ContextKeyUnit, name)
}

// NewCycleDetectedError names every unit left unordered because of a cycle.
func NewCycleDetectedError(names []string) *DomainError {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return NewDomainError(
		ErrorTypeCycleDetected,
		fmt.Sprintf("dependency cycle between units: %s", strings.Join(sorted, ", ")),
		nil,
	).WithContext(ContextKeyUnits, sorted)
}

func NewSpawnFailedError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeSpawnFailed, message, cause)
}

func NewProcessError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeProcess, message, cause)
}

func NewValidationError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeValidation, message, cause)
}

func NewIOError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeIO, message, cause)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeInternal, message, cause)
}

func NewCancelledError(message string, cause error) *DomainError {
	return NewDomainError(ErrorTypeCancelled, message, cause)
}

// Error checking helpers

// HasType reports whether any DomainError in err's chain has the given type.
func HasType(err error, errorType ErrorType) bool {
	for err != nil {
		var domainErr *DomainError
		if !errors.As(err, &domainErr) {
			return false
		}
		if domainErr.Type == errorType {
			return true
		}
		err = domainErr.Cause
	}
	return false
}

// Find returns the first DomainError of the given type in err's chain.
func Find(err error, errorType ErrorType) (*DomainError, bool) {
	for err != nil {
		var domainErr *DomainError
		if !errors.As(err, &domainErr) {
			return nil, false
		}
		if domainErr.Type == errorType {
			return domainErr, true
		}
		err = domainErr.Cause
	}
	return nil, false
}

func IsUnrecognizedOptionError(err error) bool {
	return HasType(err, ErrorTypeUnrecognizedOption)
}

func IsUnknownServiceTypeError(err error) bool {
	return HasType(err, ErrorTypeUnknownServiceType)
}

func IsMalformedUnitFileError(err error) bool {
	return HasType(err, ErrorTypeMalformedUnitFile)
}

func IsNoUnitsFoundError(err error) bool {
	return HasType(err, ErrorTypeNoUnitsFound)
}

func IsDuplicateUnitError(err error) bool {
	return HasType(err, ErrorTypeDuplicateUnit)
}

func IsCycleDetectedError(err error) bool {
	return HasType(err, ErrorTypeCycleDetected)
}

func IsSpawnFailedError(err error) bool {
	return HasType(err, ErrorTypeSpawnFailed)
}

func IsProcessError(err error) bool {
	return HasType(err, ErrorTypeProcess)
}

func IsValidationError(err error) bool {
	return HasType(err, ErrorTypeValidation)
}

func IsIOError(err error) bool {
	return HasType(err, ErrorTypeIO)
}

func IsInternalError(err error) bool {
	return HasType(err, ErrorTypeInternal)
}

func IsCancelledError(err error) bool {
	return HasType(err, ErrorTypeCancelled)
}

// Error aggregation for bulk operations
type ErrorCollection struct {
	Errors []error
}

func (e *ErrorCollection) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors occurred: %v", len(e.Errors), e.Errors[0])
}

func (e *ErrorCollection) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

func (e *ErrorCollection) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ErrorCollection) ToError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// NewErrorCollection creates a new error collection
func NewErrorCollection() *ErrorCollection {
	return &ErrorCollection{
		Errors: make([]error, 0),
	}
}
