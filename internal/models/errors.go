package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the installer can surface.
type ErrorKind string

const (
	KindNotFound             ErrorKind = "not_found"
	KindUnreachable          ErrorKind = "unreachable"
	KindNetworkError         ErrorKind = "network_error"
	KindInvalidCode          ErrorKind = "invalid_code"
	KindTokenMissing         ErrorKind = "token_missing"
	KindSessionExpired       ErrorKind = "session_expired"
	KindMalformedKey         ErrorKind = "malformed_key"
	KindUnexpected           ErrorKind = "unexpected"
	KindHomeDirUnavailable   ErrorKind = "home_dir_unavailable"
	KindKeygenFailed         ErrorKind = "keygen_failed"
	KindLaunchError          ErrorKind = "launch_error"
	KindRemoteCommandFailed  ErrorKind = "remote_command_failed"
	KindRemoteTransferFailed ErrorKind = "remote_transfer_failed"
	KindIOError              ErrorKind = "io_error"
	KindPermissionError      ErrorKind = "permission_error"
	KindArtifactInvalid      ErrorKind = "artifact_invalid"
	KindInvalidArgument      ErrorKind = "invalid_argument"
)

// Sentinels for errors.Is. Matching is by kind only.
var (
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrUnreachable          = &Error{Kind: KindUnreachable}
	ErrNetworkError         = &Error{Kind: KindNetworkError}
	ErrInvalidCode          = &Error{Kind: KindInvalidCode}
	ErrTokenMissing         = &Error{Kind: KindTokenMissing}
	ErrSessionExpired       = &Error{Kind: KindSessionExpired}
	ErrMalformedKey         = &Error{Kind: KindMalformedKey}
	ErrUnexpected           = &Error{Kind: KindUnexpected}
	ErrHomeDirUnavailable   = &Error{Kind: KindHomeDirUnavailable}
	ErrKeygenFailed         = &Error{Kind: KindKeygenFailed}
	ErrLaunchError          = &Error{Kind: KindLaunchError}
	ErrRemoteCommandFailed  = &Error{Kind: KindRemoteCommandFailed}
	ErrRemoteTransferFailed = &Error{Kind: KindRemoteTransferFailed}
	ErrIOError              = &Error{Kind: KindIOError}
	ErrPermissionError      = &Error{Kind: KindPermissionError}
	ErrArtifactInvalid      = &Error{Kind: KindArtifactInvalid}
	ErrInvalidArgument      = &Error{Kind: KindInvalidArgument}
)

// Error is a kind plus a human readable message. Remote stderr and HTTP
// status text are kept verbatim in Message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

func (e *Error) Error() string {
	switch {
	case len(e.Message) == 0 && e.Err == nil:
		return string(e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case len(e.Message) == 0:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or the empty
// kind when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
