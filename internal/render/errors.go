package render

import "fmt"

// Kind classifies a pipeline failure. Only input, encode, and IO failures
// surface to the caller; everything else is absorbed as degradation.
type Kind string

const (
	KindInput  Kind = "input"
	KindEncode Kind = "encode"
	KindIO     Kind = "io"
)

// Error is a typed, fatal pipeline failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("%s error: %v", e.Kind, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

func inputErr(format string, args ...any) *Error {
	return &Error{Kind: KindInput, Err: fmt.Errorf(format, args...)}
}

func encodeErr(err error) *Error {
	return &Error{Kind: KindEncode, Err: err}
}

func ioErr(err error) *Error {
	return &Error{Kind: KindIO, Err: err}
}
