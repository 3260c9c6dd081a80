// Package apperr defines the error kinds surfaced by the thread, community,
// and user operations, and maps storage driver errors onto them.
package apperr

import (
	"context"
	"errors"
	"fmt"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

// Kind classifies an error for callers and for the HTTP layer.
type Kind int

const (
	Internal Kind = iota
	NotFound
	InvalidArgument
	AlreadyExists
	DependencyUnavailable
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case InvalidArgument:
		return "invalid_argument"
	case AlreadyExists:
		return "already_exists"
	case DependencyUnavailable:
		return "dependency_unavailable"
	default:
		return "internal"
	}
}

// Error carries the failing operation, its kind, and the underlying cause.
type Error struct {
	Op   string
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, apperr.ErrNotFound) style checks match on kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind-only targets for errors.Is.
var (
	ErrNotFound              = &Error{Kind: NotFound}
	ErrInvalidArgument       = &Error{Kind: InvalidArgument}
	ErrAlreadyExists         = &Error{Kind: AlreadyExists}
	ErrDependencyUnavailable = &Error{Kind: DependencyUnavailable}
	ErrInternal              = &Error{Kind: Internal}
)

// E builds an Error with a message and no cause.
func E(op string, kind Kind, msg string) error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

// Wrap builds an Error around err. A nil err returns nil.
func Wrap(op string, kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message returns the user-facing message of the first *Error in err's chain.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return ""
}

// FromStore classifies a MongoDB driver error. Errors that are already
// classified pass through unchanged.
func FromStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return &Error{Op: op, Kind: NotFound, Msg: "not found", Err: err}
	case wafflemongo.IsDup(err):
		return &Error{Op: op, Kind: AlreadyExists, Msg: "already exists", Err: err}
	case IsUnavailable(err):
		return &Error{Op: op, Kind: DependencyUnavailable, Msg: "storage unavailable", Err: err}
	default:
		return &Error{Op: op, Kind: Internal, Err: err}
	}
}

// IsUnavailable reports whether err means the database could not be reached
// in time.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var sse topology.ServerSelectionError
	return errors.As(err, &sse)
}
