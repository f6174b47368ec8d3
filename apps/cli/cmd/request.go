package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/ajax/packages/ajax"
	"github.com/abdul-hamid-achik/ajax/packages/capture"
	"github.com/abdul-hamid-achik/ajax/packages/output"
	"github.com/spf13/cobra"
)

// requestFlags holds the per-command flags of the request verbs.
type requestFlags struct {
	headers     []string
	data        []string
	raw         string
	contentType string
	path        string
	schema      string
	captures    []string
}

func newRequestCmd(method, use, short, example string, withBody bool) *cobra.Command {
	flags := &requestFlags{}
	c := &cobra.Command{
		Use:     use + " <url>",
		Short:   short,
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return requestCommand(cmd, method, args[0], flags)
		},
	}

	c.Flags().StringArrayVarP(&flags.headers, "header", "H", nil, "Request header \"Name: value\" (repeatable)")
	c.Flags().StringVar(&flags.contentType, "content-type", "", "Override the Content-Type header")
	c.Flags().StringVar(&flags.path, "path", "", "Print only the JSON value at this gjson path")
	c.Flags().StringVar(&flags.schema, "schema", "", "Validate the response body against a JSON schema file")
	c.Flags().StringArrayVar(&flags.captures, "capture", nil, "Print a captured value name=source:path (repeatable)")
	if withBody {
		c.Flags().StringArrayVarP(&flags.data, "data", "d", nil, "Form field key=value, sent in the given order (repeatable)")
		c.Flags().StringVar(&flags.raw, "raw", "", "Raw request body, sent as is")
	}
	return c
}

var getCmd = newRequestCmd(ajax.MethodGet, "get", "Send a GET request", `  ajax get https://api.example.com/users
  ajax get https://api.example.com/users/1 --path name`, false)

var postCmd = newRequestCmd(ajax.MethodPost, "post", "Send a POST request", `  ajax post https://api.example.com/users -d name=ada -d role=admin
  ajax post https://api.example.com/users --raw '{"name":"ada"}' --content-type application/json`, true)

var putCmd = newRequestCmd(ajax.MethodPut, "put", "Send a PUT request", `  ajax put https://api.example.com/users/1 -d name=grace`, true)

var deleteCmd = func() *cobra.Command {
	c := newRequestCmd(ajax.MethodDelete, "delete", "Send a DELETE request", `  ajax delete https://api.example.com/users/1`, false)
	c.Aliases = []string{"kill"}
	return c
}()

func requestCommand(cmd *cobra.Command, method, url string, flags *requestFlags) error {
	client, cfg, log, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	headers, err := parseHeaders(flags.headers)
	if err != nil {
		return err
	}

	opts := ajax.Options{
		Async:       ajax.Bool(false),
		Headers:     headers,
		ContentType: flags.contentType,
		Timeout:     cfg.TimeoutDuration(),
	}

	switch {
	case flags.raw != "" && len(flags.data) > 0:
		return withExitCode(ExitUsageError, errors.New("--raw and --data cannot be combined"))
	case flags.raw != "":
		opts.Data = flags.raw
	case len(flags.data) > 0:
		form, err := parseForm(flags.data)
		if err != nil {
			return err
		}
		opts.Data = form
	}

	var (
		result     *ajax.Response
		sendFailed bool
	)
	opts.Callback = func(resp *ajax.Response, _ ajax.Transport) {
		result = resp
	}
	opts.Error = func(resp *ajax.Response, _ ajax.Transport) {
		if resp == nil {
			sendFailed = true
		}
	}

	if _, err := dispatch(client, method, url, opts); err != nil {
		if errors.Is(err, ajax.ErrInvalidURL) {
			return withExitCode(ExitUsageError, err)
		}
		return withExitCode(ExitNetworkError, err)
	}
	if sendFailed || result == nil {
		return withExitCode(ExitNetworkError, fmt.Errorf("%s %s: request could not be sent", method, url))
	}

	return report(cmd, method, url, result, flags)
}

func dispatch(client *ajax.Client, method, url string, opts ajax.Options) (ajax.Transport, error) {
	switch method {
	case ajax.MethodPost:
		return client.Post(url, opts)
	case ajax.MethodPut:
		return client.Put(url, opts)
	case ajax.MethodDelete:
		return client.Kill(url, opts)
	default:
		return client.Get(url, opts)
	}
}

// report prints the response and maps its outcome to an exit code.
func report(cmd *cobra.Command, method, url string, resp *ajax.Response, flags *requestFlags) error {
	formatter, err := output.New(outputFlag, cmd.OutOrStdout(), verboseFlag > 0)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	result := &output.Result{
		Method:   method,
		URL:      url,
		Response: resp,
		Body:     resp.ResponseText,
	}
	result.Err = evaluate(method, url, resp, flags, result)

	formatter.FormatResult(result)
	if err := formatter.Flush(); err != nil {
		return withExitCode(ExitRequestFailure, err)
	}
	return result.Err
}

// evaluate fills in the selected body and captures and returns the error
// the command exits with.
func evaluate(method, url string, resp *ajax.Response, flags *requestFlags, result *output.Result) error {
	extractor := capture.NewExtractor(resp)

	for _, expr := range flags.captures {
		c := capture.ParseCapture(expr)
		value, ok := extractor.Extract(c)
		result.Captures = append(result.Captures, output.CaptureValue{Name: c.Name, Value: value, Found: ok})
	}

	if flags.path != "" {
		raw, ok := extractor.Raw(flags.path)
		if !ok {
			result.Body = ""
			return withExitCode(ExitRequestFailure, fmt.Errorf("path %q not found in response", flags.path))
		}
		result.Body = raw
	}

	if flags.schema != "" {
		schema, err := os.ReadFile(flags.schema)
		if err != nil {
			return withExitCode(ExitUsageError, fmt.Errorf("read schema: %w", err))
		}
		if err := capture.ValidateSchema(resp, schema); err != nil {
			return withExitCode(ExitSchemaMismatch, err)
		}
	}

	switch {
	case resp.Status == 0 && !resp.Success:
		return withExitCode(ExitNetworkError, fmt.Errorf("%s %s: no response", method, url))
	case !resp.Success:
		return withExitCode(ExitRequestFailure, fmt.Errorf("%s %s: status %d", method, url, resp.Status))
	}
	return nil
}
