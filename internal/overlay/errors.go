package overlay

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField is returned when reading a name the instance does not hold.
	ErrUnknownField = errors.New("unknown field")
	// ErrFieldType is returned by Value when the stored value has another type.
	ErrFieldType = errors.New("unexpected field type")
	// ErrNilSchema is returned when New is called without a schema.
	ErrNilSchema = errors.New("schema is nil")
)

// AssertionError is a failed validation assertion. New reports it as a
// settings.ConfigurationError carrying Message.
type AssertionError struct {
	Message string
}

func (e *AssertionError) Error() string {
	return e.Message
}

// Assert returns nil when cond holds and an AssertionError otherwise.
func Assert(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}
	if len(args) == 0 {
		return &AssertionError{Message: format}
	}
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}
