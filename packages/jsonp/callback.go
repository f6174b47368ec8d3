package jsonp

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// State is the lifecycle position of a Callback.
type State int

const (
	Created State = iota
	Running
	// Abandoned means the script ran without calling back. The callback
	// stays registered unless a timeout later fails it.
	Abandoned
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Abandoned:
		return "abandoned"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) terminal() bool {
	return s == Succeeded || s == Failed
}

type (
	SuccessFunc func(payload json.RawMessage)
	ErrorFunc   func(err error)
)

// CallbackOption configures a Callback.
type CallbackOption func(*Callback)

// WithTimeout fails the callback with ErrTimeout when it has not been
// invoked within d of Run. Zero disables the timeout.
func WithTimeout(d time.Duration) CallbackOption {
	return func(c *Callback) {
		c.timeout = d
	}
}

// Callback is one in-flight JSONP round trip.
type Callback struct {
	URL  string
	Name string

	registry *Registry
	success  SuccessFunc
	failure  ErrorFunc
	timeout  time.Duration

	mu    sync.Mutex
	state State
	doc   Document
	timer *time.Timer
	done  chan struct{}
}

// Src returns the URL with the placeholder replaced by the callback name.
func (c *Callback) Src() string {
	return strings.Replace(c.URL, Placeholder, c.Name, 1)
}

// Run appends the script element that triggers the remote endpoint. It
// returns once the element is in the document.
func (c *Callback) Run(doc Document) error {
	c.mu.Lock()
	if c.state != Created {
		c.mu.Unlock()
		return ErrAlreadyRun
	}
	c.state = Running
	c.doc = doc
	if c.timeout > 0 {
		c.timer = time.AfterFunc(c.timeout, func() { c.fail(ErrTimeout) })
	}
	c.mu.Unlock()

	err := doc.AppendScript(Script{
		ID:      c.Name,
		Src:     c.Src(),
		OnLoad:  c.loaded,
		OnError: c.fail,
	})
	if err != nil {
		if c.settle(Failed) {
			c.registry.remove(c.Name)
			close(c.done)
		}
		return fmt.Errorf("append script: %w", err)
	}
	return nil
}

// State returns the current lifecycle state.
func (c *Callback) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed once the callback succeeded or failed. An abandoned
// callback without a timeout never closes it.
func (c *Callback) Done() <-chan struct{} {
	return c.done
}

func (c *Callback) invoke(payload json.RawMessage) {
	if !c.settle(Succeeded) {
		return
	}
	if c.success != nil {
		c.success(payload)
	}
	c.teardown()
}

func (c *Callback) fail(err error) {
	if !c.settle(Failed) {
		return
	}
	if c.failure != nil {
		c.failure(err)
	}
	c.teardown()
}

// loaded runs after the script executed.
func (c *Callback) loaded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Running {
		c.state = Abandoned
	}
}

func (c *Callback) settle(to State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.terminal() || c.state == Created {
		return false
	}
	c.state = to
	if c.timer != nil {
		c.timer.Stop()
	}
	return true
}

func (c *Callback) teardown() {
	c.registry.remove(c.Name)
	c.mu.Lock()
	doc := c.doc
	c.mu.Unlock()
	if doc != nil {
		doc.RemoveScript(c.Name)
	}
	close(c.done)
}
