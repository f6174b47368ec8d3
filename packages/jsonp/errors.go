package jsonp

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is reported when a callback is not invoked within its timeout.
	ErrTimeout = errors.New("jsonp callback timed out")
	// ErrScriptLoad is matched by every ScriptError.
	ErrScriptLoad = errors.New("script failed to load")
	// ErrMalformedScript is returned when a script is not a single callback invocation.
	ErrMalformedScript = errors.New("malformed jsonp script")
	// ErrNoCallback is returned when a script calls a name nothing registered.
	ErrNoCallback = errors.New("no such callback")
	// ErrAlreadyRun is returned when Run is called twice.
	ErrAlreadyRun = errors.New("callback already run")
	// ErrDuplicateScript is returned when a script id is already in the document.
	ErrDuplicateScript = errors.New("duplicate script id")
)

// ScriptError describes a script element that failed to load.
type ScriptError struct {
	Src    string
	Status int // zero when no response arrived
	Err    error
}

func (e *ScriptError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("load %s: status %d", e.Src, e.Status)
	}
	return fmt.Sprintf("load %s: %v", e.Src, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

func (e *ScriptError) Is(target error) bool {
	return target == ErrScriptLoad
}
