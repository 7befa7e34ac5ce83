package domain

import (
	"errors"
	"fmt"
)

// Error categories. Callers match them with errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrSenderState   = errors.New("sender state error")
	ErrTransport     = errors.New("transport error")
)

// Domain Errors
var (
	ErrNoPacket         = fmt.Errorf("%w: there is no packet to send, create a packet first", ErrConfiguration)
	ErrAddressNotFound  = fmt.Errorf("%w: no matching address on interface", ErrConfiguration)
	ErrUnknownGenerator = fmt.Errorf("%w: unknown packet generator", ErrConfiguration)
	ErrInvalidInterface = fmt.Errorf("%w: invalid interface name", ErrConfiguration)

	ErrAlreadySending = fmt.Errorf("%w: packet sending is already active", ErrSenderState)
	ErrNotSending     = fmt.Errorf("%w: packet sending is not active", ErrSenderState)

	ErrSenderNotFound = errors.New("packet sender not found")
)

// MissingFieldError reports a required configuration key that was not supplied.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("configuration error: missing required field %q", e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrConfiguration }

// InvalidFieldError reports a configuration value that could not be parsed.
type InvalidFieldError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidFieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("configuration error: invalid %s %q", e.Field, e.Value)
}

func (e *InvalidFieldError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfiguration, e.Err}
	}
	return []error{ErrConfiguration}
}

// TransportError wraps a failure of the underlying frame send/receive primitive.
type TransportError struct {
	Interface string
	Op        string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error on %s during %s: %v", e.Interface, e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }
