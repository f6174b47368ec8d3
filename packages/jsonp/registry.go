package jsonp

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	// Placeholder is replaced in a callback URL by the generated name.
	Placeholder = "{callback}"
	// DefaultPrefix starts every generated callback name.
	DefaultPrefix = "__ajax_jsonp_"
)

// Namespace resolves the names remote scripts call.
type Namespace interface {
	// Invoke delivers payload to the callback registered under name and
	// reports whether one was found.
	Invoke(name string, payload json.RawMessage) bool
}

// Registry maps generated names to their pending callbacks.
type Registry struct {
	mu       sync.Mutex
	prefix   string
	newToken func() string
	pending  map[string]*Callback
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithPrefix sets the prefix of generated names.
func WithPrefix(prefix string) RegistryOption {
	return func(r *Registry) {
		r.prefix = prefix
	}
}

// WithTokenGenerator replaces the UUID token source.
func WithTokenGenerator(fn func() string) RegistryOption {
	return func(r *Registry) {
		r.newToken = fn
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		prefix:   DefaultPrefix,
		newToken: uuidToken,
		pending:  make(map[string]*Callback),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func uuidToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewCallback registers a callback under a fresh name. success receives
// the payload the remote script passes; failure receives load errors and
// timeouts. Either may be nil.
func (r *Registry) NewCallback(url string, success SuccessFunc, failure ErrorFunc, opts ...CallbackOption) *Callback {
	c := &Callback{
		URL:      url,
		registry: r,
		success:  success,
		failure:  failure,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		name := r.prefix + r.newToken()
		if _, taken := r.pending[name]; !taken {
			c.Name = name
			break
		}
	}
	r.pending[c.Name] = c
	return c
}

func (r *Registry) Invoke(name string, payload json.RawMessage) bool {
	r.mu.Lock()
	c, ok := r.pending[name]
	r.mu.Unlock()

	if !ok {
		return false
	}
	c.invoke(payload)
	return true
}

// Has reports whether name is currently registered.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[name]
	return ok
}

// Len returns the number of registered callbacks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Registry) remove(name string) {
	r.mu.Lock()
	delete(r.pending, name)
	r.mu.Unlock()
}
