package output

import (
	"fmt"
	"io"

	"github.com/abdul-hamid-achik/ajax/packages/ajax"
)

// Output format names accepted by New.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// CaptureValue is one captured value as reported to the user.
type CaptureValue struct {
	Name  string
	Value any
	Found bool
}

// Result is the outcome of one request.
type Result struct {
	Method   string
	URL      string
	Response *ajax.Response
	// Body is the text to display, which may be a selected part of the
	// response body.
	Body     string
	Captures []CaptureValue
	Err      error
}

type Formatter interface {
	FormatResult(r *Result)
	Flush() error
}

// New returns the formatter for format writing to w.
func New(format string, w io.Writer, verbose bool) (Formatter, error) {
	switch format {
	case "", FormatConsole:
		return NewConsoleFormatter(WithWriter(w), WithVerbose(verbose)), nil
	case FormatJSON:
		return NewJSONFormatter(JSONWithWriter(w)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use %s or %s)", format, FormatConsole, FormatJSON)
	}
}
