package config

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigurationError reports a problem with one field of an embodiment description. It is fatal at construction.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error at %q: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError wraps err with the dotted path of the offending field.
func NewConfigurationError(path string, err error) error {
	return &ConfigurationError{Path: path, Err: err}
}

// NewFieldRequiredError is returned when a required field is absent.
func NewFieldRequiredError(path, field string) error {
	return NewConfigurationError(joinPath(path, field), errors.New("field is required"))
}

// NewMissingNameError is returned when a joint or link named in the configuration is not part of the loaded body.
func NewMissingNameError(path, kind, name string) error {
	return NewConfigurationError(path, errors.Errorf("%s %q not found in robot description", kind, name))
}

// IsConfigurationError reports whether err or anything it wraps is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}
