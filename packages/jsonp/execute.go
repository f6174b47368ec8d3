package jsonp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
)

// callPattern matches the invocation forms JSONP endpoints emit:
//
//	name(payload)
//	/**/name(payload);
//	typeof name === 'function' && name(payload);
var callPattern = regexp.MustCompile(`(?s)^\s*(?:/\*\*/\s*)?(?:typeof\s+[\w$.-]+\s*={2,3}\s*['"]function['"]\s*&&\s*)?([\w$.-]+)\s*\((.*)\)\s*;?\s*$`)

// Execute runs a JSONP script against ns. The script must be a single call
// whose argument is JSON; an empty argument list passes null.
func Execute(ns Namespace, source []byte) error {
	m := callPattern.FindSubmatch(source)
	if m == nil {
		return ErrMalformedScript
	}

	name := string(m[1])
	payload := bytes.TrimSpace(m[2])
	if len(payload) == 0 {
		payload = []byte("null")
	}
	if !json.Valid(payload) {
		return fmt.Errorf("%w: argument to %s is not JSON", ErrMalformedScript, name)
	}

	if !ns.Invoke(name, json.RawMessage(payload)) {
		return fmt.Errorf("%w: %s", ErrNoCallback, name)
	}
	return nil
}
