package services

import "errors"

// ErrorKind classifies service failures for the HTTP layer.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindConflict
	KindInvalidArgument
	KindInvalidState
	KindUpstream
)

// Error is the service-level error type. Message is safe to return to API
// callers; Err carries the internal cause for logging only.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NotFoundError(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func ConflictError(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func InvalidArgumentError(msg string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: msg}
}

func InvalidStateError(msg string) *Error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

func UpstreamError(msg string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: cause}
}

// KindOf returns the kind of a service error, or KindUnknown for anything else.
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindUnknown
}
