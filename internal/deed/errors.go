package deed

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidProperty is wrapped by every ConfigError.
var ErrInvalidProperty = errors.New("freight: invalid deed property")

// ConfigError reports a builder setter that received a value of the wrong
// shape, or a missing required property.
type ConfigError struct {
	// Deed is the name of the deed being built.
	Deed string

	// Property names the offending property (e.g., "path", "json").
	Property string

	// Accepted lists the shapes the property accepts.
	Accepted []string

	// Got describes the value received. Empty for missing properties.
	Got string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	accepted := strings.Join(e.Accepted, " or ")
	if e.Got == "" {
		return fmt.Sprintf("deed %q: %s is required (%s)", e.Deed, e.Property, accepted)
	}
	return fmt.Sprintf("deed %q: %s must be %s, got %s", e.Deed, e.Property, accepted, e.Got)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidProperty).
func (e *ConfigError) Unwrap() error {
	return ErrInvalidProperty
}

func invalid(deedName, property string, got any, accepted ...string) *ConfigError {
	return &ConfigError{
		Deed:     deedName,
		Property: property,
		Accepted: accepted,
		Got:      fmt.Sprintf("%T", got),
	}
}

func missing(deedName, property string, accepted ...string) *ConfigError {
	return &ConfigError{
		Deed:     deedName,
		Property: property,
		Accepted: accepted,
	}
}
