package survey

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of the survey core.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindPermission Kind = "permission"
	KindIntegrity  Kind = "integrity"
	KindConflict   Kind = "conflict"
)

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrPermission = &Error{Kind: KindPermission}
	ErrIntegrity  = &Error{Kind: KindIntegrity}
	ErrConflict   = &Error{Kind: KindConflict}
)

type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind only, so errors.Is(err, ErrNotFound) holds for
// every not-found error whatever its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func validationf(op, format string, args ...any) error {
	return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func notFound(op, what, id string) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf("%s %q not found", what, id)}
}

func permissionf(op, format string, args ...any) error {
	return &Error{Kind: KindPermission, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func integrity(op, msg string, err error) error {
	return &Error{Kind: KindIntegrity, Op: op, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
