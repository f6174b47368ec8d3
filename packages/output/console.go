package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithVerbose prints response headers before the body.
func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func (f *ConsoleFormatter) FormatResult(r *Result) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	if r.Response != nil {
		status := fmt.Sprintf("%d", r.Response.Status)
		if r.Response.Success {
			status = green(status)
		} else {
			status = red(status)
		}
		fmt.Fprintf(f.writer, "%s %s %s\n", bold(r.Method), r.URL, status)

		if f.verbose && len(r.Response.Headers) > 0 {
			names := make([]string, 0, len(r.Response.Headers))
			for name := range r.Response.Headers {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(f.writer, "%s: %s\n", cyan(name), r.Response.Headers[name])
			}
			fmt.Fprintln(f.writer)
		}
	}

	if r.Body != "" {
		fmt.Fprintln(f.writer, strings.TrimRight(r.Body, "\n"))
	}

	for _, c := range r.Captures {
		if !c.Found {
			fmt.Fprintf(f.writer, "%s = %s\n", c.Name, yellow("<not found>"))
			continue
		}
		fmt.Fprintf(f.writer, "%s = %s\n", c.Name, formatValue(c.Value, 100))
	}
}

// Flush is a no-op; console output is written as results arrive.
func (f *ConsoleFormatter) Flush() error {
	return nil
}
