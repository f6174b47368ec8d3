package ajax

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ReadyState mirrors the lifecycle of a browser XMLHttpRequest.
type ReadyState int

const (
	Unsent ReadyState = iota
	Opened
	HeadersReceived
	Loading
	Done
)

func (s ReadyState) String() string {
	switch s {
	case Unsent:
		return "UNSENT"
	case Opened:
		return "OPENED"
	case HeadersReceived:
		return "HEADERS_RECEIVED"
	case Loading:
		return "LOADING"
	case Done:
		return "DONE"
	}
	return fmt.Sprintf("ReadyState(%d)", int(s))
}

// Transport issues one HTTP request and reports its state changes.
//
// Calls must follow the XMLHttpRequest order: Open, then any number of
// SetRequestHeader, then Send. A transport whose request failed at the
// network level still reaches Done, with status 0 and an empty body.
type Transport interface {
	Open(method, url string, async bool) error
	SetRequestHeader(name, value string) error
	SetTimeout(d time.Duration)
	// OnReadyStateChange replaces the handler run after every state change.
	OnReadyStateChange(fn func())
	// OnTimeout replaces the handler run when the timeout elapses.
	OnTimeout(fn func())
	// Send dispatches the request. A nil body sends none. In sync mode it
	// returns after the Done handlers ran.
	Send(body *string) error
	Abort()

	ReadyState() ReadyState
	Status() int
	ResponseText() string
	ResponseHeader(name string) string
	ResponseHeaders() map[string]string
	// Done is closed once the request settled and every handler returned.
	Done() <-chan struct{}
}

// TransportFactory builds a transport or reports why it cannot.
type TransportFactory func() (Transport, error)

// TransportOption configures a transport built by the package constructors.
type TransportOption func(*xhr)

// WithLimiter makes the transport wait on l before each request.
func WithLimiter(l *rate.Limiter) TransportOption {
	return func(x *xhr) {
		x.limiter = l
	}
}

type outbound struct {
	method string
	url    string
	header http.Header
	body   *string
}

type inbound struct {
	status int
	header http.Header
	body   io.ReadCloser
}

// engine performs the wire exchange for an xhr.
type engine interface {
	roundTrip(ctx context.Context, req *outbound) (*inbound, error)
}

// xhr is the state machine shared by every engine.
type xhr struct {
	engine  engine
	limiter *rate.Limiter

	mu             sync.Mutex
	state          ReadyState
	method         string
	url            string
	async          bool
	header         http.Header
	timeout        time.Duration
	onStateChange  func()
	onTimeout      func()
	sent           bool
	aborted        bool
	cancel         context.CancelFunc
	status         int
	responseText   string
	responseHeader http.Header
	done           chan struct{}
}

func newXHR(e engine, opts ...TransportOption) *xhr {
	x := &xhr{
		engine: e,
		header: make(http.Header),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

func (x *xhr) Open(method, url string, async bool) error {
	if err := ValidateURL(url); err != nil {
		return err
	}

	x.mu.Lock()
	if x.sent {
		x.mu.Unlock()
		return fmt.Errorf("%w: open after send", ErrInvalidState)
	}
	x.method = strings.ToUpper(method)
	x.url = url
	x.async = async
	x.header = make(http.Header)
	x.mu.Unlock()

	x.transition(Opened)
	return nil
}

func (x *xhr) SetRequestHeader(name, value string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.state != Opened || x.sent {
		return fmt.Errorf("%w: set header %q in state %s", ErrInvalidState, name, x.state)
	}
	if prev := x.header.Get(name); prev != "" {
		value = prev + ", " + value
	}
	x.header.Set(name, value)
	return nil
}

func (x *xhr) SetTimeout(d time.Duration) {
	x.mu.Lock()
	x.timeout = d
	x.mu.Unlock()
}

func (x *xhr) OnReadyStateChange(fn func()) {
	x.mu.Lock()
	x.onStateChange = fn
	x.mu.Unlock()
}

func (x *xhr) OnTimeout(fn func()) {
	x.mu.Lock()
	x.onTimeout = fn
	x.mu.Unlock()
}

func (x *xhr) Send(body *string) error {
	x.mu.Lock()
	if x.state != Opened || x.sent {
		state := x.state
		x.mu.Unlock()
		return fmt.Errorf("%w: send in state %s", ErrInvalidState, state)
	}
	x.sent = true

	ctx, cancel := context.WithCancel(context.Background())
	if x.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), x.timeout)
	}
	x.cancel = cancel

	// GET requests never carry a body.
	if x.method == MethodGet {
		body = nil
	}
	req := &outbound{
		method: x.method,
		url:    x.url,
		header: x.header.Clone(),
		body:   body,
	}
	async := x.async
	x.mu.Unlock()

	if async {
		go x.run(ctx, cancel, req)
		return nil
	}
	x.run(ctx, cancel, req)
	return nil
}

func (x *xhr) run(ctx context.Context, cancel context.CancelFunc, req *outbound) {
	defer cancel()

	if x.limiter != nil {
		if err := x.limiter.Wait(ctx); err != nil {
			x.fail(ctx)
			return
		}
	}

	in, err := x.engine.roundTrip(ctx, req)
	if err != nil {
		x.fail(ctx)
		return
	}
	defer in.body.Close()

	x.mu.Lock()
	x.status = in.status
	x.responseHeader = in.header
	x.mu.Unlock()
	x.transition(HeadersReceived)
	x.transition(Loading)

	data, err := io.ReadAll(in.body)
	if err != nil {
		x.fail(ctx)
		return
	}
	x.complete(in.status, in.header, string(data))
	close(x.done)
}

// fail settles a request that never produced a full response.
func (x *xhr) fail(ctx context.Context) {
	x.mu.Lock()
	timedOut := !x.aborted && errors.Is(ctx.Err(), context.DeadlineExceeded)
	onTimeout := x.onTimeout
	x.mu.Unlock()

	x.complete(0, nil, "")
	if timedOut && onTimeout != nil {
		onTimeout()
	}
	close(x.done)
}

func (x *xhr) complete(status int, header http.Header, text string) {
	x.mu.Lock()
	x.status = status
	x.responseHeader = header
	x.responseText = text
	x.mu.Unlock()
	x.transition(Done)
}

func (x *xhr) transition(s ReadyState) {
	x.mu.Lock()
	x.state = s
	fn := x.onStateChange
	x.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (x *xhr) Abort() {
	x.mu.Lock()
	defer x.mu.Unlock()

	switch {
	case x.state == Done:
	case x.sent:
		x.aborted = true
		x.cancel()
	default:
		x.state = Unsent
		x.header = make(http.Header)
	}
}

func (x *xhr) ReadyState() ReadyState {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.state
}

func (x *xhr) Status() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.status
}

func (x *xhr) ResponseText() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.responseText
}

func (x *xhr) ResponseHeader(name string) string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.responseHeader.Get(name)
}

func (x *xhr) ResponseHeaders() map[string]string {
	x.mu.Lock()
	defer x.mu.Unlock()

	headers := make(map[string]string, len(x.responseHeader))
	for k := range x.responseHeader {
		headers[k] = x.responseHeader.Get(k)
	}
	return headers
}

func (x *xhr) Done() <-chan struct{} {
	return x.done
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported URL scheme: %s (only http and https are allowed)", ErrInvalidURL, u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("%w: URL must have a host", ErrInvalidURL)
	}

	return nil
}
