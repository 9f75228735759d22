package host

import (
	"errors"
	"fmt"
)

// ConfigError reports a missing or invalid construction argument, such as a
// window opened without a name. It is returned loudly to the caller and never
// recovered internally.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// NewConfigError returns a ConfigError for the named field.
func NewConfigError(field, reason string) error {
	return &ConfigError{Field: field, Reason: reason}
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ValidationError reports a field value rejected by its validator. It carries
// the offending raw value so callers can route it into visual feedback.
type ValidationError struct {
	Field string
	Value string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %q: %s", e.Value, e.Msg)
	}
	return fmt.Sprintf("validation: %s: %q: %s", e.Field, e.Value, e.Msg)
}

// NewValidationError returns a ValidationError for the given raw value.
func NewValidationError(field, value, msg string) error {
	return &ValidationError{Field: field, Value: value, Msg: msg}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// OpError reports a host boundary call that failed because the underlying
// surface or window no longer exists. The toolkit swallows these at the
// window and cache boundaries: the user may have dismissed the UI out of
// band, and best-effort teardown must tolerate that.
type OpError struct {
	Op      string
	Surface SurfaceID
	Err     error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("host: %s: surface %d gone", e.Op, e.Surface)
	}
	return fmt.Sprintf("host: %s: surface %d: %v", e.Op, e.Surface, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// NewOpError returns an OpError for the given operation and surface.
func NewOpError(op string, id SurfaceID, err error) error {
	return &OpError{Op: op, Surface: id, Err: err}
}

// IsOpError reports whether err is (or wraps) an OpError.
func IsOpError(err error) bool {
	var oe *OpError
	return errors.As(err, &oe)
}
