package compose

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnsupportedMode is matched by ConfigurationError when a group names an unknown mode.
var ErrUnsupportedMode = errors.New("unsupported generation mode")

// ErrEmptyComponent is returned when a part handed to Join has no vertex to carry the bridge.
var ErrEmptyComponent = errors.New("component has no vertices")

// ConfigurationError reports a group that cannot be synthesized. It aborts the whole corpus.
type ConfigurationError struct {
	Group string
	Mode  string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("group %q: mode %q: %v", e.Group, e.Mode, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
