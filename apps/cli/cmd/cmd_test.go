package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/abdul-hamid-achik/ajax/packages/ajax"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so runs do not leak state.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"--no-color"}, args...))

	err := rootCmd.Execute()
	return buf.String(), err
}

type apiServer struct {
	*httptest.Server
	mu     sync.Mutex
	method string
	body   string
	header http.Header
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	s := &apiServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.method = r.Method
		s.body = string(data)
		s.header = r.Header.Clone()
		s.mu.Unlock()

		switch r.URL.Path {
		case "/user":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":1,"name":"ada"}`)
		case "/feed":
			w.Header().Set("Content-Type", "application/javascript")
			fmt.Fprintf(w, `%s({"items":[{"title":"first"}]});`, r.URL.Query().Get("cb"))
		case "/silent":
			fmt.Fprint(w, `void 0`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func TestGetCommand(t *testing.T) {
	server := newAPIServer(t)

	out, err := executeCommand(t, "get", server.URL+"/user")

	require.NoError(t, err)
	assert.Contains(t, out, "GET "+server.URL+"/user 200")
	assert.Contains(t, out, `{"id":1,"name":"ada"}`)
	assert.Equal(t, ajax.DefaultAccept, server.header.Get("Accept"))
}

func TestGetCommand_PathAndCapture(t *testing.T) {
	server := newAPIServer(t)

	out, err := executeCommand(t, "get", server.URL+"/user",
		"--path", "name",
		"--capture", "ct=header:Content-Type",
		"--capture", "missing=body:nope")

	require.NoError(t, err)
	assert.Contains(t, out, `"ada"`)
	assert.NotContains(t, out, `"id":1`)
	assert.Contains(t, out, "ct = application/json")
	assert.Contains(t, out, "missing = <not found>")
}

func TestGetCommand_VerboseHeaders(t *testing.T) {
	server := newAPIServer(t)

	out, err := executeCommand(t, "-v", "get", server.URL+"/user", "-H", "X-Trace: 7")

	require.NoError(t, err)
	assert.Contains(t, out, "Content-Type: application/json")
	assert.Equal(t, "7", server.header.Get("X-Trace"))
}

func TestGetCommand_JSONOutput(t *testing.T) {
	server := newAPIServer(t)

	out, err := executeCommand(t, "-o", "json", "get", server.URL+"/user", "--capture", "id=body:id")

	require.NoError(t, err)
	var decoded struct {
		Results []struct {
			Method   string         `json:"method"`
			Success  bool           `json:"success"`
			Captures map[string]any `json:"captures"`
			Response struct {
				Status int            `json:"status"`
				Body   map[string]any `json:"body"`
			} `json:"response"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded.Results, 1)
	assert.Equal(t, "GET", decoded.Results[0].Method)
	assert.True(t, decoded.Results[0].Success)
	assert.Equal(t, 200, decoded.Results[0].Response.Status)
	assert.Equal(t, "ada", decoded.Results[0].Response.Body["name"])
	assert.Equal(t, float64(1), decoded.Results[0].Captures["id"])
}

func TestUnknownOutputFormat(t *testing.T) {
	server := newAPIServer(t)

	_, err := executeCommand(t, "-o", "xml", "get", server.URL+"/user")

	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestGetCommand_FailureStatus(t *testing.T) {
	server := newAPIServer(t)

	out, err := executeCommand(t, "get", server.URL+"/missing")

	require.Error(t, err)
	assert.Equal(t, ExitRequestFailure, exitCode(err))
	assert.Contains(t, out, "404")
}

func TestGetCommand_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := executeCommand(t, "get", url)

	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, exitCode(err))
}

func TestGetCommand_InvalidURL(t *testing.T) {
	_, err := executeCommand(t, "get", "ftp://example.com")

	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestGetCommand_Schema(t *testing.T) {
	server := newAPIServer(t)
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.json")
	require.NoError(t, os.WriteFile(valid, []byte(`{"type":"object","required":["id"]}`), 0644))
	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"type":"object","required":["email"]}`), 0644))

	_, err := executeCommand(t, "get", server.URL+"/user", "--schema", valid)
	assert.NoError(t, err)

	_, err = executeCommand(t, "get", server.URL+"/user", "--schema", invalid)
	require.Error(t, err)
	assert.Equal(t, ExitSchemaMismatch, exitCode(err))
}

func TestPostCommand_Form(t *testing.T) {
	server := newAPIServer(t)

	_, err := executeCommand(t, "post", server.URL+"/user", "-d", "b=x y", "-d", "a=1")

	require.NoError(t, err)
	assert.Equal(t, "POST", server.method)
	assert.Equal(t, "b=x%20y&a=1", server.body)
	assert.Equal(t, ajax.DefaultContentType, server.header.Get("Content-Type"))
}

func TestPutCommand_Raw(t *testing.T) {
	server := newAPIServer(t)

	_, err := executeCommand(t, "put", server.URL+"/user", "--raw", `{"name":"grace"}`, "--content-type", "application/json")

	require.NoError(t, err)
	assert.Equal(t, "PUT", server.method)
	assert.Equal(t, `{"name":"grace"}`, server.body)
	assert.Equal(t, "application/json", server.header.Get("Content-Type"))
}

func TestPostCommand_RawAndData(t *testing.T) {
	_, err := executeCommand(t, "post", "http://example.com", "--raw", "x", "-d", "a=1")

	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestDeleteCommand_Alias(t *testing.T) {
	server := newAPIServer(t)

	_, err := executeCommand(t, "kill", server.URL+"/user")

	require.NoError(t, err)
	assert.Equal(t, "DELETE", server.method)
	assert.Empty(t, server.body)
}

func TestJSONPCommand(t *testing.T) {
	server := newAPIServer(t)

	out, err := executeCommand(t, "jsonp", server.URL+"/feed?cb={callback}", "--path", "items.0.title")

	require.NoError(t, err)
	assert.Contains(t, out, "JSONP")
	assert.Contains(t, out, `"first"`)
}

func TestJSONPCommand_RequiresPlaceholder(t *testing.T) {
	_, err := executeCommand(t, "jsonp", "http://example.com/feed")

	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestJSONPCommand_NoCallback(t *testing.T) {
	server := newAPIServer(t)

	_, err := executeCommand(t, "--timeout", "100ms", "jsonp", server.URL+"/silent?cb={callback}")

	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, exitCode(err))
	assert.Contains(t, err.Error(), "no callback received")
}

func TestJSONPCommand_LoadFailure(t *testing.T) {
	server := newAPIServer(t)

	_, err := executeCommand(t, "jsonp", server.URL+"/gone?cb={callback}")

	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, exitCode(err))
	assert.Contains(t, err.Error(), "status 404")
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "ajax version dev")
}

func TestInvalidTimeout(t *testing.T) {
	_, err := executeCommand(t, "--timeout", "soon", "get", "http://example.com")

	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestParseHeaders(t *testing.T) {
	headers, err := parseHeaders([]string{"Accept: text/plain", "X-Empty:", " Authorization :  Bearer a:b "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Accept":        "text/plain",
		"X-Empty":       "",
		"Authorization": "Bearer a:b",
	}, headers)

	_, err = parseHeaders([]string{"no colon"})
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestParseForm(t *testing.T) {
	form, err := parseForm([]string{"b=2", "a=x=y", "empty="})
	require.NoError(t, err)
	assert.Equal(t, ajax.Form{
		{Key: "b", Value: "2"},
		{Key: "a", Value: "x=y"},
		{Key: "empty", Value: ""},
	}, form)

	_, err = parseForm([]string{"=v"})
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSchemaMismatch, exitCode(withExitCode(ExitSchemaMismatch, fmt.Errorf("x"))))
	assert.Equal(t, ExitConfigError, exitCode(fmt.Errorf("wrapped: %w", withExitCode(ExitConfigError, fmt.Errorf("x")))))
	assert.Equal(t, ExitUsageError, exitCode(fmt.Errorf("plain")))
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, err := executeCommand(t, "completion", shell)
			require.NoError(t, err)
			assert.Contains(t, out, "ajax")
		})
	}

	_, err := executeCommand(t, "completion", "tcsh")
	assert.Error(t, err)
}
