package seal

import (
	"errors"
	"fmt"
)

var (
	ErrSerialization   = errors.New("canonical serialization failed")
	ErrMalformedProof  = errors.New("malformed proof string")
	ErrUnknownHashAlgo = errors.New("unknown hash algorithm")
)

// SerializationError is a record that cannot be put into canonical form.
// Verify reports it as valid=false with the error as reason.
type SerializationError struct {
	Field string
	Msg   string
}

func (e *SerializationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrSerialization, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", ErrSerialization, e.Field, e.Msg)
}

func (e *SerializationError) Unwrap() error { return ErrSerialization }

// ParseErrorKind names which part of a proof string is wrong.
type ParseErrorKind string

const (
	ParseErrSegments   ParseErrorKind = "wrong-segment-count"
	ParseErrPrefix     ParseErrorKind = "missing-proof-prefix"
	ParseErrMatchID    ParseErrorKind = "empty-match-id"
	ParseErrHashPrefix ParseErrorKind = "bad-hash-prefix"
	ParseErrScore      ParseErrorKind = "bad-score"
)

// ParseError is returned by ParseProof.
type ParseError struct {
	Kind  ParseErrorKind
	Input string
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (%s): %s", ErrMalformedProof, e.Kind, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrMalformedProof }

func parseErrorf(kind ParseErrorKind, input, format string, args ...any) error {
	return &ParseError{Kind: kind, Input: input, Msg: fmt.Sprintf(format, args...)}
}
