package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Entity and field errors.
var (
	ErrFieldNotFound = errors.New("field not found")
	ErrMissingID     = errors.New("entity has no Id value")
	ErrNoMetadata    = errors.New("no metadata returned for entity")
	ErrUnknownAction = errors.New("unknown action")
)

// ValidationError reports a value that violates a field's type. Fields maps
// each offending field name to a human readable message, so single and
// multi-field failures share one shape.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, message, detail string) *ValidationError {
	return &ValidationError{
		Message: message,
		Fields:  map[string]string{field: detail},
	}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Merge folds other into e. The combined message lists every field.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	if e.Fields == nil {
		e.Fields = make(map[string]string, len(other.Fields))
	}
	for k, v := range other.Fields {
		e.Fields[k] = v
	}
	if len(e.Fields) == 1 {
		e.Message = other.Message
		return
	}
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	e.Message = fmt.Sprintf("Fields %s are invalid.", strings.Join(names, ", "))
}

// TransportError reports a failed request: a non-2xx response (Status set,
// Body holds the raw response), an unreadable response (Status and Err set)
// or a network failure (Status 0, Err set).
type TransportError struct {
	Status int
	Method string
	Path   string
	Body   []byte
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("error making request %s %s: %v", e.Method, e.Path, e.Err)
	}
	msg := fmt.Sprintf("%d error making request %s %s", e.Status, e.Method, e.Path)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransportStatus reports whether err wraps a TransportError with the given
// HTTP status.
func IsTransportStatus(err error, status int) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Status == status
}
