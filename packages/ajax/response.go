package ajax

import (
	"encoding/json"
	"net/http"
	"strings"
)

type Response struct {
	Status       int
	ResponseText string
	Success      bool
	Headers      map[string]string
}

// IsSuccessful classifies a terminal status. Status 0 with a body counts as
// success because local file requests report no status.
func IsSuccessful(status int, responseText string) bool {
	return (status >= 200 && status < 300) ||
		status == http.StatusNotModified ||
		(status == 0 && responseText != "")
}

func newResponse(t Transport) *Response {
	resp := &Response{
		Status:       t.Status(),
		ResponseText: t.ResponseText(),
		Headers:      t.ResponseHeaders(),
	}
	resp.Success = IsSuccessful(resp.Status, resp.ResponseText)
	return resp
}

func (r *Response) JSON() (any, error) {
	var result any
	if err := json.Unmarshal([]byte(r.ResponseText), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	ct := r.ContentType()
	return strings.Contains(ct, "application/json") || strings.Contains(ct, "+json")
}
