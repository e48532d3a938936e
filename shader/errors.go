package shader

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidUTF8  = errors.New("invalid UTF8 file")
	ErrInvalidPath  = errors.New("invalid file")
	ErrBinding      = errors.New("couldn't bind resource")
	ErrInvalidWGSL  = errors.New("invalid WGSL")
)

// Error is a composition failure. Kind is one of the Err sentinels and
// Subject names the offending path or unit.
type Error struct {
	Kind    error
	Subject string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrFileNotFound:
		return fmt.Sprintf("File not found: %s", e.Subject)
	case ErrInvalidUTF8:
		return fmt.Sprintf("Invalid UTF8 file: %s", e.Subject)
	case ErrInvalidPath:
		return fmt.Sprintf("Invalid file `%s`", e.Subject)
	}
	if e.Err != nil {
		return fmt.Sprintf("%v %s: %v", e.Kind, e.Subject, e.Err)
	}
	return fmt.Sprintf("%v %s", e.Kind, e.Subject)
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}
