package domain

import "errors"

var (
	// ErrTransport matches errors raised when the queue backend is unreachable or the connection is lost
	ErrTransport = errors.New("transport error")

	// ErrAutomation matches errors raised by the rendering engine
	ErrAutomation = errors.New("automation error")

	// ErrSerialization matches errors raised when a stored payload cannot be decoded or encoded
	ErrSerialization = errors.New("serialization error")
)

// Error is a worker error tagged with its kind. Use errors.Is with
// ErrTransport, ErrAutomation or ErrSerialization to classify it.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error() + ": " + e.Op
	}
	return e.Kind.Error() + ": " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind sentinel of this error
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// NewTransportError wraps err as a transport error for operation op
func NewTransportError(op string, err error) error {
	return &Error{Kind: ErrTransport, Op: op, Err: err}
}

// NewAutomationError wraps err as an automation error for operation op
func NewAutomationError(op string, err error) error {
	return &Error{Kind: ErrAutomation, Op: op, Err: err}
}

// NewSerializationError wraps err as a serialization error for operation op
func NewSerializationError(op string, err error) error {
	return &Error{Kind: ErrSerialization, Op: op, Err: err}
}
