package output

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Results []JSONResult `json:"results"`
	Time    string       `json:"time"`
}

// JSONResult represents a single request result
type JSONResult struct {
	Method   string         `json:"method"`
	URL      string         `json:"url"`
	Success  bool           `json:"success"`
	Error    string         `json:"error,omitempty"`
	Response *JSONResponse  `json:"response,omitempty"`
	Captures map[string]any `json:"captures,omitempty"`
}

// JSONResponse represents response details
type JSONResponse struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers,omitempty"`
	// Body holds the body as JSON when it parses, otherwise as a string.
	Body any `json:"body,omitempty"`
}

// JSONFormatter formats request results as JSON
type JSONFormatter struct {
	writer  io.Writer
	results []JSONResult
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		results: make([]JSONResult, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(r *Result) {
	result := JSONResult{
		Method: r.Method,
		URL:    r.URL,
	}

	if r.Err != nil {
		result.Error = r.Err.Error()
	}

	if r.Response != nil {
		result.Success = r.Response.Success && r.Err == nil
		result.Response = &JSONResponse{
			Status:  r.Response.Status,
			Headers: r.Response.Headers,
			Body:    jsonBody(r.Body),
		}
	}

	for _, c := range r.Captures {
		if !c.Found {
			continue
		}
		if result.Captures == nil {
			result.Captures = make(map[string]any)
		}
		result.Captures[c.Name] = c.Value
	}

	f.results = append(f.results, result)
}

func jsonBody(body string) any {
	if body == "" {
		return nil
	}
	if json.Valid([]byte(body)) {
		return json.RawMessage(body)
	}
	return body
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush() error {
	output := JSONOutput{
		Results: f.results,
		Time:    time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
