package ffi

import (
	"errors"
	"fmt"
)

var (
	ErrNullPointer  = errors.New("null pointer")
	ErrCStrConvert  = errors.New("c string conversion error")
	ErrWrongLength  = errors.New("wrong length")
	ErrPublicKey    = errors.New("public key error")
	ErrSignature    = errors.New("signature error")
	ErrTooLarge     = errors.New("too large")
	ErrDuplicateKey = errors.New("duplicate key")
)

// DecodeError reports which field of the foreign input failed and why. Kind
// is one of the Err* sentinels above and is matched by errors.Is.
type DecodeError struct {
	Field    string
	Kind     error
	Expected int
	Actual   int
	Err      error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Kind == ErrWrongLength:
		return fmt.Sprintf("%s: %s: expected %d, got %d", e.Field, e.Kind, e.Expected, e.Actual)
	case e.Kind == ErrNullPointer:
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Field, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Kind)
}

func (e *DecodeError) Is(target error) bool {
	return target == e.Kind
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func nullPointer(field string) error {
	return &DecodeError{Field: field, Kind: ErrNullPointer}
}

func wrongLength(field string, expected, actual int) error {
	return &DecodeError{Field: field, Kind: ErrWrongLength, Expected: expected, Actual: actual}
}
