package jsonp

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// ScriptAccept is the Accept header sent when fetching scripts.
const ScriptAccept = "text/javascript, application/javascript, application/ecmascript, */*"

const blankPage = `<!DOCTYPE html><html><head></head><body></body></html>`

// Script is a script element appended to a Document.
type Script struct {
	ID  string
	Src string
	// OnLoad runs after the script was fetched and executed.
	OnLoad func()
	// OnError runs when the script could not be fetched.
	OnError func(err error)
}

// Document hosts script elements.
type Document interface {
	// AppendScript inserts the element and starts loading it. It returns
	// before the script runs.
	AppendScript(s Script) error
	RemoveScript(id string)
}

// Fetcher retrieves script sources.
type Fetcher interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
}

// HTTPFetcher fetches scripts over HTTP.
type HTTPFetcher struct {
	Client *http.Client
}

func (f HTTPFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, &ScriptError{Src: src, Err: err}
	}
	req.Header.Set("Accept", ScriptAccept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ScriptError{Src: src, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ScriptError{Src: src, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ScriptError{Src: src, Err: err}
	}
	return body, nil
}

// HTMLDocument is an in-memory page whose appended scripts are fetched and
// executed against a Namespace.
type HTMLDocument struct {
	mu      sync.Mutex
	doc     *goquery.Document
	ns      Namespace
	fetcher Fetcher
	logger  *zap.Logger
}

// DocumentOption configures an HTMLDocument.
type DocumentOption func(*HTMLDocument)

func WithFetcher(f Fetcher) DocumentOption {
	return func(d *HTMLDocument) {
		d.fetcher = f
	}
}

func WithLogger(l *zap.Logger) DocumentOption {
	return func(d *HTMLDocument) {
		d.logger = l
	}
}

func NewHTMLDocument(ns Namespace, opts ...DocumentOption) (*HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(blankPage))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	d := &HTMLDocument{
		doc:     doc,
		ns:      ns,
		fetcher: HTTPFetcher{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *HTMLDocument) AppendScript(s Script) error {
	d.mu.Lock()
	if d.find(s.ID).Length() > 0 {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateScript, s.ID)
	}
	d.doc.Find("body").AppendHtml(fmt.Sprintf(`<script id="%s" src="%s"></script>`,
		html.EscapeString(s.ID), html.EscapeString(s.Src)))
	d.mu.Unlock()

	go d.load(s)
	return nil
}

func (d *HTMLDocument) load(s Script) {
	source, err := d.fetcher.Fetch(context.Background(), s.Src)
	if err != nil {
		d.logger.Debug("script failed to load", zap.String("id", s.ID), zap.Error(err))
		if s.OnError != nil {
			s.OnError(err)
		}
		return
	}

	if err := Execute(d.ns, source); err != nil {
		d.logger.Debug("script did not call back", zap.String("id", s.ID), zap.Error(err))
	}
	if s.OnLoad != nil {
		s.OnLoad()
	}
}

func (d *HTMLDocument) RemoveScript(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.find(id).Remove()
}

// Scripts returns the script elements currently in the body.
func (d *HTMLDocument) Scripts() []Script {
	d.mu.Lock()
	defer d.mu.Unlock()

	var scripts []Script
	d.doc.Find("body > script").Each(func(_ int, sel *goquery.Selection) {
		scripts = append(scripts, Script{
			ID:  sel.AttrOr("id", ""),
			Src: sel.AttrOr("src", ""),
		})
	})
	return scripts
}

// HTML renders the current page.
func (d *HTMLDocument) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Html()
}

func (d *HTMLDocument) find(id string) *goquery.Selection {
	return d.doc.Find(fmt.Sprintf(`script[id=%q]`, id))
}
