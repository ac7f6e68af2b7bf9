package symbol

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPath is returned for empty paths or paths with empty segments.
	ErrMalformedPath = errors.New("malformed dotted path")
	// ErrNotFound is returned when no container is registered under a path or its loader fails.
	ErrNotFound = errors.New("container not found")
	// ErrMemberNotFound is returned when the container exists but lacks the named member.
	ErrMemberNotFound = errors.New("member not found")
)

// ResolutionError reports a dotted path that could not be resolved.
type ResolutionError struct {
	Path string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q: %v", e.Path, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
