package capture

import (
	"strings"

	"github.com/abdul-hamid-achik/ajax/packages/ajax"
	"github.com/tidwall/gjson"
)

// Source selects the part of a response a capture reads.
type Source int

const (
	SourceBody Source = iota
	SourceHeader
	SourceStatus
)

// Capture names a value to pull out of a response.
type Capture struct {
	Name   string
	Source Source
	Path   string
}

// ParseCapture reads "name=source:path" or "name=path" (body), for example
// "id=body:data.id", "ct=header:Content-Type" or "code=status".
func ParseCapture(expr string) Capture {
	name, rest, found := strings.Cut(expr, "=")
	if !found {
		rest = name
	}
	c := Capture{Name: name, Source: SourceBody, Path: rest}

	source, path, hasSource := strings.Cut(rest, ":")
	switch {
	case rest == "status":
		c.Source, c.Path = SourceStatus, ""
	case hasSource && source == "header":
		c.Source, c.Path = SourceHeader, path
	case hasSource && source == "body":
		c.Path = path
	}
	return c
}

type Extractor struct {
	response *ajax.Response
	bodyJSON gjson.Result
	isJSON   bool
}

func NewExtractor(resp *ajax.Response) *Extractor {
	e := &Extractor{
		response: resp,
	}
	// JSONP payloads carry no content type but are always JSON.
	if resp.IsJSON() || gjson.Valid(resp.ResponseText) {
		e.bodyJSON = gjson.Parse(resp.ResponseText)
		e.isJSON = true
	}
	return e
}

func (e *Extractor) Extract(c Capture) (any, bool) {
	switch c.Source {
	case SourceBody:
		return e.extractFromBody(c.Path)
	case SourceHeader:
		return e.extractFromHeader(c.Path)
	case SourceStatus:
		return e.response.Status, true
	default:
		return nil, false
	}
}

// Raw returns the JSON text at path, or the whole body for an empty path.
func (e *Extractor) Raw(path string) (string, bool) {
	if path == "" {
		return e.response.ResponseText, true
	}
	if !e.isJSON {
		return "", false
	}
	result := e.bodyJSON.Get(path)
	if !result.Exists() {
		return "", false
	}
	return result.Raw, true
}

func (e *Extractor) extractFromBody(path string) (any, bool) {
	if !e.isJSON {
		if path == "" {
			return e.response.ResponseText, true
		}
		return nil, false
	}

	if path == "" {
		return e.bodyJSON.Value(), true
	}

	result := e.bodyJSON.Get(path)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

func (e *Extractor) extractFromHeader(name string) (any, bool) {
	value := e.response.Header(name)
	if value == "" {
		return nil, false
	}
	return value, true
}

func ExtractAll(resp *ajax.Response, captures []Capture) map[string]any {
	extractor := NewExtractor(resp)
	results := make(map[string]any)

	for _, c := range captures {
		if value, ok := extractor.Extract(c); ok {
			results[c.Name] = value
		}
	}

	return results
}
