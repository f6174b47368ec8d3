package jsonp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedFetcher holds each fetch until release is closed.
type gatedFetcher struct {
	release chan struct{}
	source  func(src string) []byte
}

func (f *gatedFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	<-f.release
	return f.source(src), nil
}

func TestHTMLDocument_ScriptLifecycle(t *testing.T) {
	r := NewRegistry(WithTokenGenerator(func() string { return "one" }))
	cb := r.NewCallback("http://example.com/data?cb={callback}", nil, nil)

	fetcher := &gatedFetcher{
		release: make(chan struct{}),
		source: func(string) []byte {
			return []byte(fmt.Sprintf(`%s({"n":1})`, cb.Name))
		},
	}
	doc, err := NewHTMLDocument(r, WithFetcher(fetcher))
	require.NoError(t, err)

	require.NoError(t, cb.Run(doc))

	scripts := doc.Scripts()
	require.Len(t, scripts, 1)
	assert.Equal(t, cb.Name, scripts[0].ID)
	assert.Equal(t, "http://example.com/data?cb=__ajax_jsonp_one", scripts[0].Src)

	html, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, `id="__ajax_jsonp_one"`)

	close(fetcher.release)
	select {
	case <-cb.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("script never called back")
	}

	assert.Equal(t, Succeeded, cb.State())
	assert.Empty(t, doc.Scripts())
}

func TestHTMLDocument_DuplicateID(t *testing.T) {
	fetcher := &gatedFetcher{release: make(chan struct{}), source: func(string) []byte { return nil }}
	defer close(fetcher.release)

	doc, err := NewHTMLDocument(NewRegistry(), WithFetcher(fetcher))
	require.NoError(t, err)

	require.NoError(t, doc.AppendScript(Script{ID: "s1", Src: "http://example.com/a"}))
	err = doc.AppendScript(Script{ID: "s1", Src: "http://example.com/b"})
	assert.ErrorIs(t, err, ErrDuplicateScript)

	doc.RemoveScript("s1")
	assert.Empty(t, doc.Scripts())
}

func TestHTMLDocument_EscapesAttributes(t *testing.T) {
	fetcher := &gatedFetcher{release: make(chan struct{}), source: func(string) []byte { return nil }}
	defer close(fetcher.release)

	doc, err := NewHTMLDocument(NewRegistry(), WithFetcher(fetcher))
	require.NoError(t, err)

	src := `http://example.com/?a=1&b="><img>`
	require.NoError(t, doc.AppendScript(Script{ID: "s1", Src: src}))

	scripts := doc.Scripts()
	require.Len(t, scripts, 1)
	assert.Equal(t, src, scripts[0].Src)
}

func TestHTMLDocument_OverHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ScriptAccept, r.Header.Get("Accept"))
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprintf(w, "%s(%q);", r.URL.Query().Get("cb"), r.URL.Path)
	}))
	defer server.Close()

	r := NewRegistry()
	doc, err := NewHTMLDocument(r)
	require.NoError(t, err)

	t.Run("loads and invokes", func(t *testing.T) {
		got := make(chan string, 1)
		cb := r.NewCallback(server.URL+"/ok?cb={callback}", func(p json.RawMessage) {
			var s string
			_ = json.Unmarshal(p, &s)
			got <- s
		}, nil)
		require.NoError(t, cb.Run(doc))

		select {
		case s := <-got:
			assert.Equal(t, "/ok", s)
		case <-time.After(5 * time.Second):
			t.Fatal("no callback")
		}
	})

	t.Run("reports load failures", func(t *testing.T) {
		errs := make(chan error, 1)
		cb := r.NewCallback(server.URL+"/broken?cb={callback}", nil, func(err error) { errs <- err })
		require.NoError(t, cb.Run(doc))

		select {
		case err := <-errs:
			assert.ErrorIs(t, err, ErrScriptLoad)
			var scriptErr *ScriptError
			require.True(t, errors.As(err, &scriptErr))
			assert.Equal(t, http.StatusBadGateway, scriptErr.Status)
		case <-time.After(5 * time.Second):
			t.Fatal("no failure")
		}
	})
}

func TestHTTPFetcher_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := HTTPFetcher{}.Fetch(context.Background(), url)

	assert.ErrorIs(t, err, ErrScriptLoad)
	var scriptErr *ScriptError
	require.True(t, errors.As(err, &scriptErr))
	assert.Zero(t, scriptErr.Status)
	assert.Equal(t, url, scriptErr.Src)
}
