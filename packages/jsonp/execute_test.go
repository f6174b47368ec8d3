package jsonp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingNamespace struct {
	names    []string
	payloads []string
}

func (n *recordingNamespace) Invoke(name string, payload json.RawMessage) bool {
	if name == "unknown" {
		return false
	}
	n.names = append(n.names, name)
	n.payloads = append(n.payloads, string(payload))
	return true
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		wantName    string
		wantPayload string
		wantErr     error
	}{
		{"plain call", `cb({"a":1})`, "cb", `{"a":1}`, nil},
		{"trailing semicolon", "cb([1,2]);\n", "cb", `[1,2]`, nil},
		{"comment prefix", `/**/ cb("x");`, "cb", `"x"`, nil},
		{"typeof guard", `typeof cb === 'function' && cb({"a":1});`, "cb", `{"a":1}`, nil},
		{"empty arguments", `cb()`, "cb", `null`, nil},
		{"multiline payload", "cb({\n  \"a\": [1,\n 2]\n})", "cb", "{\n  \"a\": [1,\n 2]\n}", nil},
		{"dotted name", `jQuery.cb_1(true)`, "jQuery.cb_1", `true`, nil},
		{"not a call", `var x = 1`, "", "", ErrMalformedScript},
		{"argument not json", `cb(function(){})`, "", "", ErrMalformedScript},
		{"unknown callback", `unknown({})`, "", "", ErrNoCallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := &recordingNamespace{}
			err := Execute(ns, []byte(tt.source))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, ns.names)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, []string{tt.wantName}, ns.names)
			assert.Equal(t, []string{tt.wantPayload}, ns.payloads)
		})
	}
}
