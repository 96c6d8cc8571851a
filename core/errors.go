package core

import "github.com/pkg/errors"

// ErrTransportFailure is wrapped around every error returned by a notification backend
// (network, auth or provider rejection).
var ErrTransportFailure = errors.New("notification transport failure")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// FieldMap returns the field errors keyed by field name.
func (err ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		m[f.Field] = f.Error
	}
	return m
}

// TransportError wraps err with ErrTransportFailure unless it already is one.
func TransportError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Cause(err) == ErrTransportFailure {
		return errors.Wrap(err, msg)
	}
	return errors.Wrapf(ErrTransportFailure, "%s: %v", msg, err)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
