package todo

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrInvalidArgument is returned when caller input fails validation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when no todo has the requested id.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable is returned when no store connection could be obtained.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Error is a classified error with a message fit for API clients.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// InvalidArgument builds an ErrInvalidArgument error.
func InvalidArgument(format string, args ...any) error {
	return &Error{Kind: ErrInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds an ErrNotFound error for id.
func NotFound(id ID) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("todo with id %d not found", id)}
}

// Unavailable wraps a connection acquisition failure.
func Unavailable(cause error) error {
	return &Error{Kind: ErrStoreUnavailable, Message: "database connection unavailable", Cause: cause}
}
