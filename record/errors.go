package record

import (
	"errors"
	"strings"
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrMissingKey   = errors.New("missing key")
	ErrInvalidValue = errors.New("invalid value")
	ErrImmutable    = errors.New("mirrored records are immutable")
	ErrNotFound     = errors.New("not found")
	ErrNotIndexed   = errors.New("not indexed")
)

// MissingFieldError is returned by Save when required fields are absent or
// empty. Nothing has been written when it is returned.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return "missing required field(s): " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}
