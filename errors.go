package mediasource

import (
	"errors"
	"fmt"
)

// Error names reported by MediaDevices implementations. They follow the
// DOMException names a browser uses for getUserMedia failures.
const (
	NotAllowedError      = "NotAllowedError"
	NotFoundError        = "NotFoundError"
	NotReadableError     = "NotReadableError"
	OverconstrainedError = "OverconstrainedError"
	AbortError           = "AbortError"
	TypeError            = "TypeError"
)

// CodeNoMediaDevicesAPI is the error code emitted when the platform has no
// media capture capability at all.
const CodeNoMediaDevicesAPI = "NO_MEDIA_DEVICES_API"

// codeUnknown is used for errors that don't carry a name.
const codeUnknown = "Error"

// MediaError is a named capture failure.
type MediaError struct {
	Name    string
	Message string
	// Constraint is the offending constraint of an OverconstrainedError.
	Constraint string
	Err        error
}

func (e *MediaError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Name, e.Message, e.Constraint)
	}
	return e.Name + ": " + e.Message
}

func (e *MediaError) Unwrap() error {
	return e.Err
}

// ErrorEvent is the payload of EventError.
type ErrorEvent struct {
	Code    string
	Message string
}

func (e ErrorEvent) Error() string {
	return e.Code + ": " + e.Message
}

// abortError reports a request given up because its context ended.
func abortError(err error) *MediaError {
	return &MediaError{Name: AbortError, Message: "request aborted", Err: err}
}

func errorEventFrom(err error) ErrorEvent {
	var me *MediaError
	if errors.As(err, &me) {
		return ErrorEvent{Code: me.Name, Message: me.Message}
	}
	var ee ErrorEvent
	if errors.As(err, &ee) {
		return ee
	}
	return ErrorEvent{Code: codeUnknown, Message: err.Error()}
}
