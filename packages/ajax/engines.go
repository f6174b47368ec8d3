package ajax

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Engine names accepted by WithEngines.
const (
	EngineNet   = "net"
	EngineResty = "resty"
)

// NewNetTransport returns a transport backed by net/http.
func NewNetTransport(hc *http.Client, opts ...TransportOption) Transport {
	return newXHR(&netEngine{client: hc}, opts...)
}

// NetFactory builds net/http transports. It fails when hc is nil.
func NetFactory(hc *http.Client, opts ...TransportOption) TransportFactory {
	return func() (Transport, error) {
		if hc == nil {
			return nil, errors.New("net/http client unavailable")
		}
		return NewNetTransport(hc, opts...), nil
	}
}

type netEngine struct {
	client *http.Client
}

func (e *netEngine) roundTrip(ctx context.Context, req *outbound) (*inbound, error) {
	var body io.Reader
	if req.body != nil {
		body = strings.NewReader(*req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header = req.header

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	return &inbound{
		status: resp.StatusCode,
		header: resp.Header,
		body:   resp.Body,
	}, nil
}

// NewRestyTransport returns a transport backed by resty.
func NewRestyTransport(rc *resty.Client, opts ...TransportOption) Transport {
	return newXHR(&restyEngine{client: rc}, opts...)
}

// RestyFactory builds resty transports. It fails when rc is nil.
func RestyFactory(rc *resty.Client, opts ...TransportOption) TransportFactory {
	return func() (Transport, error) {
		if rc == nil {
			return nil, errors.New("resty client unavailable")
		}
		return NewRestyTransport(rc, opts...), nil
	}
}

type restyEngine struct {
	client *resty.Client
}

func (e *restyEngine) roundTrip(ctx context.Context, req *outbound) (*inbound, error) {
	r := e.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)

	for k := range req.header {
		r.SetHeader(k, req.header.Get(k))
	}
	if req.body != nil {
		r.SetBody(*req.body)
	}

	resp, err := r.Execute(req.method, req.url)
	if err != nil {
		if resp != nil && resp.RawBody() != nil {
			resp.RawBody().Close()
		}
		return nil, fmt.Errorf("resty request: %w", err)
	}
	body := resp.RawBody()
	if body == nil {
		body = http.NoBody
	}
	return &inbound{
		status: resp.StatusCode(),
		header: resp.Header(),
		body:   body,
	}, nil
}

// unknownEngine stands in for an engine name nothing can build.
func unknownEngine(name string) TransportFactory {
	return func() (Transport, error) {
		return nil, fmt.Errorf("unknown engine %q", name)
	}
}
