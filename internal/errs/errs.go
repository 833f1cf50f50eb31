// Package errs defines the structured error kinds shared across minikv's
// core packages.
package errs

import "fmt"

// Kind enumerates the error categories a caller can match on.
type Kind int

const (
	KeyNotFound Kind = iota
	TypeMismatch
	DataInvalid
	DecodeFailed
	EncodeFailed
	InstanceClosed
	IOError
	LockError
	EncryptFailed
	DecryptFailed
)

func (k Kind) String() string {
	switch k {
	case KeyNotFound:
		return "KeyNotFound"
	case TypeMismatch:
		return "TypeMismatch"
	case DataInvalid:
		return "DataInvalid"
	case DecodeFailed:
		return "DecodeFailed"
	case EncodeFailed:
		return "EncodeFailed"
	case InstanceClosed:
		return "InstanceClosed"
	case IOError:
		return "IOError"
	case LockError:
		return "LockError"
	case EncryptFailed:
		return "EncryptFailed"
	case DecryptFailed:
		return "DecryptFailed"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type every core package returns. Reason is an
// advisory string; callers should match on Kind, not on the message.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, errs.ErrKeyNotFound) style matching work by
// comparing Kind whenever the target is itself an *Error; the target's
// Reason and wrapped error are ignored.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds a bare *Error of the given kind.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Newf builds an *Error with a formatted reason.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind wrapping err, using err's message
// as the reason.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return New(kind)
	}
	return &Error{Kind: kind, Reason: err.Error(), Err: err}
}

// Sentinel values for errors.Is comparisons against a bare kind.
var (
	ErrKeyNotFound    = New(KeyNotFound)
	ErrTypeMismatch   = New(TypeMismatch)
	ErrDataInvalid    = New(DataInvalid)
	ErrInstanceClosed = New(InstanceClosed)
)
