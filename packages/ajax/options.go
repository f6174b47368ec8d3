package ajax

import (
	"strings"
	"time"
)

// Request methods accepted by the dispatcher.
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodDelete = "DELETE"
)

// DataTypeJSONP selects the JSONP path in Get.
const DataTypeJSONP = "jsonp"

// Default header values merged into every request that does not set them.
const (
	DefaultAccept      = "text/javascript, application/json, text/html, application/xml, text/xml, */*"
	DefaultContentType = "application/x-www-form-urlencoded"
)

// Handler receives the normalized response together with the transport
// that produced it. Both are nil when sending failed outright.
type Handler func(resp *Response, t Transport)

// Options configures a single request. Every field is optional.
type Options struct {
	Method      string
	Async       *bool
	PostBody    any
	Data        any
	Headers     map[string]string
	ContentType string
	Timeout     time.Duration
	DataType    string

	Success  Handler
	Error    Handler
	Callback Handler
	// Abort runs when Timeout elapses before the response completes.
	Abort func()
}

// Bool returns a pointer to b, for use with Options.Async.
func Bool(b bool) *bool {
	return &b
}

// GetAsync returns the async setting, defaulting to true
func (o *Options) GetAsync() bool {
	if o.Async == nil {
		return true
	}
	return *o.Async
}

// IsJSONP reports whether the options select the JSONP path.
func (o *Options) IsJSONP() bool {
	return strings.EqualFold(o.DataType, DataTypeJSONP)
}

// normalize returns a copy with the method upper-cased and defaulted to GET.
// Headers are copied so the caller's map is never written to.
func (o Options) normalize() Options {
	if o.Method == "" {
		o.Method = MethodGet
	}
	o.Method = strings.ToUpper(o.Method)
	o.Async = Bool(o.GetAsync())

	headers := make(map[string]string, len(o.Headers)+2)
	for k, v := range o.Headers {
		headers[k] = v
	}
	o.Headers = headers
	return o
}

func isSupportedMethod(method string) bool {
	switch method {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	}
	return false
}
