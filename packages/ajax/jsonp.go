package ajax

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/abdul-hamid-achik/ajax/packages/jsonp"
	"go.uber.org/zap"
)

// ErrNoDocument is returned by JSONP when the client has no document to
// append scripts to.
var ErrNoDocument = errors.New("no jsonp document")

// JSONP starts a JSONP round trip. The url must contain the literal
// {callback} placeholder. Success receives a Response whose ResponseText is
// the JSON payload; Error runs when the script cannot be loaded or
// opts.Timeout elapses first. A script that loads but never calls back
// produces no notification unless a timeout is set.
func (c *Client) JSONP(url string, opts Options) (*jsonp.Callback, error) {
	if c.document == nil {
		return nil, ErrNoDocument
	}

	success := func(payload json.RawMessage) {
		if opts.Success != nil {
			opts.Success(&Response{
				Status:       http.StatusOK,
				ResponseText: string(payload),
				Success:      true,
			}, nil)
		}
	}
	failure := func(err error) {
		status := 0
		var scriptErr *jsonp.ScriptError
		if errors.As(err, &scriptErr) {
			status = scriptErr.Status
		}
		c.logger.Debug("jsonp request failed", zap.String("url", url), zap.Error(err))
		if opts.Error != nil {
			opts.Error(&Response{Status: status}, nil)
		}
	}

	cb := c.registry.NewCallback(url, success, failure, jsonp.WithTimeout(opts.Timeout))
	c.logger.Debug("jsonp callback registered", zap.String("name", cb.Name), zap.String("src", cb.Src()))

	if err := cb.Run(c.document); err != nil {
		return nil, err
	}
	return cb, nil
}
