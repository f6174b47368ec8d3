package ajax

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/ajax/packages/jsonp"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

type Client struct {
	httpClient     *http.Client
	restyClient    *resty.Client
	timeout        time.Duration
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
	defaultHeaders map[string]string
	limiter        *rate.Limiter
	logger         *zap.Logger

	engines    []string
	transports []TransportFactory

	jsonpPrefix string
	registry    *jsonp.Registry
	document    jsonp.Document
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:        DefaultTimeout,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
		defaultHeaders: make(map[string]string),
		logger:         zap.NewNop(),
		engines:        []string{EngineNet, EngineResty},
		jsonpPrefix:    jsonp.DefaultPrefix,
	}

	for _, opt := range opts {
		opt(c)
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	// Configure TLS verification
	if !c.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	// Configure proxy if specified
	if c.proxyURL != "" {
		proxyURL, err := neturl.Parse(c.proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		} else {
			c.logger.Warn("ignoring invalid proxy URL", zap.String("proxy", c.proxyURL), zap.Error(err))
		}
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !c.followRedirect {
			return http.ErrUseLastResponse
		}
		if len(via) >= c.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	c.httpClient = &http.Client{
		Transport:     transport,
		Timeout:       c.timeout,
		CheckRedirect: redirectPolicy,
	}
	c.restyClient = resty.NewWithClient(c.httpClient)

	if c.transports == nil {
		c.transports = c.engineChain(c.engines)
	}

	if c.registry == nil {
		c.registry = jsonp.NewRegistry(jsonp.WithPrefix(c.jsonpPrefix))
	}
	if c.document == nil {
		doc, err := jsonp.NewHTMLDocument(c.registry,
			jsonp.WithFetcher(jsonp.HTTPFetcher{Client: c.httpClient}),
			jsonp.WithLogger(c.logger))
		if err != nil {
			c.logger.Warn("jsonp document unavailable", zap.Error(err))
		} else {
			c.document = doc
		}
	}

	return c
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirect = follow
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

// WithDefaultHeader sets a header sent with every request unless the
// request sets it itself.
func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

// WithDefaultHeaders sets multiple default headers for all requests
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// WithRateLimit caps outgoing requests at rps per second with the given
// burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEngines sets the transport chain by engine name, most preferred
// first. Unknown names stay in the chain and always fail.
func WithEngines(names ...string) ClientOption {
	return func(c *Client) {
		c.engines = names
	}
}

// WithTransports replaces the transport chain. It takes precedence over
// WithEngines.
func WithTransports(factories ...TransportFactory) ClientOption {
	return func(c *Client) {
		c.transports = factories
	}
}

// WithJSONPPrefix sets the prefix of generated JSONP callback names.
func WithJSONPPrefix(prefix string) ClientOption {
	return func(c *Client) {
		c.jsonpPrefix = prefix
	}
}

// WithDocument sets the document JSONP scripts are appended to.
func WithDocument(doc jsonp.Document) ClientOption {
	return func(c *Client) {
		c.document = doc
	}
}

// WithRegistry sets the registry JSONP callbacks are named by. A document
// supplied through WithDocument must resolve names against the same one.
func WithRegistry(r *jsonp.Registry) ClientOption {
	return func(c *Client) {
		c.registry = r
	}
}

// Registry returns the registry correlating JSONP calls.
func (c *Client) Registry() *jsonp.Registry {
	return c.registry
}

func (c *Client) engineChain(names []string) []TransportFactory {
	var opts []TransportOption
	if c.limiter != nil {
		opts = append(opts, WithLimiter(c.limiter))
	}

	chain := make([]TransportFactory, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(name) {
		case EngineNet:
			chain = append(chain, NetFactory(c.httpClient, opts...))
		case EngineResty:
			chain = append(chain, RestyFactory(c.restyClient, opts...))
		default:
			chain = append(chain, unknownEngine(name))
		}
	}
	return chain
}

// newTransport walks the chain and returns the first transport built.
func (c *Client) newTransport() (Transport, error) {
	var errs []error
	for i, factory := range c.transports {
		t, err := factory()
		if err == nil && t != nil {
			return t, nil
		}
		if err == nil {
			err = errors.New("factory returned no transport")
		}
		c.logger.Debug("transport unavailable, trying next", zap.Int("index", i), zap.Error(err))
		errs = append(errs, err)
	}
	c.logger.Warn("no compatible transport", zap.Int("tried", len(c.transports)))
	return nil, fmt.Errorf("%w: %w", ErrNoTransport, errors.Join(errs...))
}

// Do dispatches a request with the method set in opts. It returns the
// transport carrying the request; handlers observe the outcome.
func (c *Client) Do(url string, opts Options) (Transport, error) {
	o := opts.normalize()
	if !isSupportedMethod(o.Method) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, o.Method)
	}

	t, err := c.newTransport()
	if err != nil {
		return nil, err
	}

	t.OnReadyStateChange(func() {
		if t.ReadyState() != Done {
			return
		}
		c.settle(t, &o)
	})

	if err := t.Open(o.Method, url, o.GetAsync()); err != nil {
		return nil, err
	}

	if o.ContentType != "" {
		setHeaderFold(o.Headers, "Content-Type", o.ContentType)
	}

	body, hasBody := Serialize(o.PostBody)

	if o.Timeout > 0 {
		t.SetTimeout(o.Timeout)
	}
	if o.Abort != nil {
		t.OnTimeout(o.Abort)
	}

	c.applyHeaders(t, o.Headers)

	var payload *string
	if hasBody {
		payload = &body
	}

	c.logger.Debug("dispatching request",
		zap.String("method", o.Method),
		zap.String("url", url),
		zap.Bool("async", o.GetAsync()),
		zap.Bool("body", hasBody))

	if err := t.Send(payload); err != nil {
		c.logger.Debug("send failed", zap.String("url", url), zap.Error(err))
		if o.Error != nil {
			o.Error(nil, nil)
		}
	}

	return t, nil
}

func (c *Client) settle(t Transport, o *Options) {
	resp := newResponse(t)
	c.logger.Debug("request settled",
		zap.String("method", o.Method),
		zap.Int("status", resp.Status),
		zap.Bool("success", resp.Success))

	if o.Callback != nil {
		o.Callback(resp, t)
		return
	}

	if resp.Success {
		if o.Success != nil {
			o.Success(resp, t)
		}
	} else if o.Error != nil {
		o.Error(resp, t)
	}
}

// applyHeaders fills in client and built-in defaults for absent keys and
// sets the result on t in sorted order.
func (c *Client) applyHeaders(t Transport, headers map[string]string) {
	for k, v := range c.defaultHeaders {
		if !hasHeaderFold(headers, k) {
			headers[k] = v
		}
	}

	defaults := map[string]string{
		"Accept":       DefaultAccept,
		"Content-Type": DefaultContentType,
	}
	for k, v := range defaults {
		if !hasHeaderFold(headers, k) {
			headers[k] = v
		}
	}

	for _, k := range sortedKeys(headers) {
		if err := t.SetRequestHeader(k, headers[k]); err != nil {
			c.logger.Debug("header rejected", zap.String("header", k), zap.Error(err))
		}
	}
}

func hasHeaderFold(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

// setHeaderFold sets name, replacing any key that differs only in case.
func setHeaderFold(headers map[string]string, name, value string) {
	for k := range headers {
		if strings.EqualFold(k, name) {
			delete(headers, k)
		}
	}
	headers[name] = value
}

// Get issues a GET request, or a JSONP round trip when opts.DataType is
// "jsonp". The JSONP path returns a nil transport.
func (c *Client) Get(url string, opts Options) (Transport, error) {
	if opts.IsJSONP() {
		_, err := c.JSONP(url, opts)
		return nil, err
	}
	opts.Method = MethodGet
	return c.Do(url, opts)
}

// Post issues a POST request with opts.Data as the body.
func (c *Client) Post(url string, opts Options) (Transport, error) {
	opts.Method = MethodPost
	opts.PostBody = opts.Data
	return c.Do(url, opts)
}

// Put issues a PUT request with opts.Data as the body.
func (c *Client) Put(url string, opts Options) (Transport, error) {
	opts.Method = MethodPut
	opts.PostBody = opts.Data
	return c.Do(url, opts)
}

// Kill issues a DELETE request.
func (c *Client) Kill(url string, opts Options) (Transport, error) {
	opts.Method = MethodDelete
	return c.Do(url, opts)
}
