package secs2

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed indicates a structural violation in encoded SECS-II data, e.g. a truncated
	// length field or a payload length that is not a multiple of the element size.
	ErrMalformed = errors.New("secs2: malformed item")

	// ErrUnsupportedFormat indicates an unknown format code. It wraps ErrMalformed.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported format code", ErrMalformed)

	// ErrTypeMismatch indicates that an accessor was called on an item of another type.
	ErrTypeMismatch = errors.New("secs2: item type mismatch")

	// ErrValueTooLarge indicates that a length exceeds the 3-byte length field, or a value exceeds
	// the range of its item type.
	ErrValueTooLarge = errors.New("secs2: value too large")

	// ErrInvalidByteSize indicates an unsupported element byte size for a numeric item.
	ErrInvalidByteSize = errors.New("secs2: invalid byte size")

	// ErrInvalidValue indicates a value of an unsupported Go type was given to an item constructor.
	ErrInvalidValue = errors.New("secs2: invalid value type")

	// ErrNonASCII indicates a non US-ASCII character in an ASCII item created without an explicit encoding.
	ErrNonASCII = errors.New("secs2: non-ASCII character")
)

// A ItemError records a failed item creation or access.
type ItemError struct {
	err error
}

func newItemError(err error) *ItemError {
	itemErr := &ItemError{}
	if errors.As(err, &itemErr) {
		return itemErr
	}

	return &ItemError{err: err}
}

func newItemErrorf(format string, args ...any) *ItemError {
	return &ItemError{err: fmt.Errorf(format, args...)}
}

func (e *ItemError) Error() string {
	return e.err.Error()
}

func (e *ItemError) Unwrap() error {
	return e.err
}
