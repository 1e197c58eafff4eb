// Package xerr defines failure kinds reported by every layer of the client.
// A failed call returns *Error (possibly annotated with juju/errors),
// callers distinguish causes with KindOf instead of parsing messages.
package xerr

import (
	stderrors "errors"
	"fmt"

	"github.com/juju/errors"
)

type Kind uint8

const (
	KindNone Kind = iota
	KindAlloc
	KindSocketInit
	KindResolve
	KindConnect
	KindSend
	KindRead
	KindShutdown
	KindClose
	KindEncodeOverflow
	KindDecode
	KindPrecondition
	KindStatus
	kindCount
)

var kindNames = [kindCount]string{
	KindNone:           "none",
	KindAlloc:          "alloc",
	KindSocketInit:     "socket init",
	KindResolve:        "resolve",
	KindConnect:        "connect",
	KindSend:           "send",
	KindRead:           "read",
	KindShutdown:       "shutdown",
	KindClose:          "close",
	KindEncodeOverflow: "encode overflow",
	KindDecode:         "decode",
	KindPrecondition:   "precondition",
	KindStatus:         "status",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Errorf(kind Kind, op string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns kind of the first *Error found in err chain
// built by juju/errors annotations or stdlib wrapping.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		if c := errors.Cause(err); c != nil && c != err {
			err = c
			continue
		}
		err = stderrors.Unwrap(err)
	}
	return KindNone
}

func Is(err error, kind Kind) bool { return err != nil && KindOf(err) == kind }
