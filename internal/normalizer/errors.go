package normalizer

import "fmt"

// ParseError reports an event date or time that could not be read.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("parse %s %q", e.Field, e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingFieldError reports a required field with no fallback that is absent.
type MissingFieldError struct {
	Path string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %s", e.Path)
}

// InvalidFieldError reports an identifier that cannot be read as an integer.
type InvalidFieldError struct {
	Path  string
	Value interface{}
	Err   error
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid value %v for %s: %v", e.Value, e.Path, e.Err)
}

func (e *InvalidFieldError) Unwrap() error { return e.Err }
