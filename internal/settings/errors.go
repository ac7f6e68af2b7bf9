package settings

import "errors"

var (
	// ErrUnsupportedSource is returned when a value cannot be read as a Source.
	ErrUnsupportedSource = errors.New("value cannot be used as a settings source")
)

// ConfigurationError reports that settings are improperly configured: no
// source could be found, the designated source failed to resolve, or a schema
// check failed. Error returns Message unchanged.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
