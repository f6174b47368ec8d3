package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/ajax/packages/ajax"
	"github.com/abdul-hamid-achik/ajax/packages/jsonp"
	"github.com/spf13/cobra"
)

// defaultJSONPWait bounds a JSONP round trip when no timeout is configured.
const defaultJSONPWait = 30 * time.Second

var jsonpFlags = &requestFlags{}

var jsonpCmd = &cobra.Command{
	Use:   "jsonp <url>",
	Short: "Perform a JSONP round trip",
	Long: `Perform a JSONP round trip. The URL must contain the literal {callback}
placeholder, which is replaced by a generated callback name.`,
	Example: `  ajax jsonp 'https://api.example.com/feed?callback={callback}'
  ajax jsonp 'https://api.example.com/feed?cb={callback}' --path items.0.title`,
	Args: cobra.ExactArgs(1),
	RunE: jsonpCommand,
}

func init() {
	jsonpCmd.Flags().StringVar(&jsonpFlags.path, "path", "", "Print only the JSON value at this gjson path")
	jsonpCmd.Flags().StringVar(&jsonpFlags.schema, "schema", "", "Validate the payload against a JSON schema file")
	jsonpCmd.Flags().StringArrayVar(&jsonpFlags.captures, "capture", nil, "Print a captured value name=path (repeatable)")
}

func jsonpCommand(cmd *cobra.Command, args []string) error {
	url := args[0]
	if !strings.Contains(url, jsonp.Placeholder) {
		return withExitCode(ExitUsageError, fmt.Errorf("url must contain %s", jsonp.Placeholder))
	}

	client, cfg, log, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	timeout := cfg.TimeoutDuration()
	if timeout <= 0 {
		timeout = defaultJSONPWait
	}

	var (
		result *ajax.Response
		failed *ajax.Response
	)
	cb, err := client.JSONP(url, ajax.Options{
		DataType: ajax.DataTypeJSONP,
		Timeout:  timeout,
		Success: func(resp *ajax.Response, _ ajax.Transport) {
			result = resp
		},
		Error: func(resp *ajax.Response, _ ajax.Transport) {
			failed = resp
		},
	})
	if err != nil {
		return withExitCode(ExitNetworkError, err)
	}

	<-cb.Done()

	if result == nil {
		status := 0
		if failed != nil {
			status = failed.Status
		}
		if status != 0 {
			return withExitCode(ExitNetworkError, fmt.Errorf("jsonp %s: script failed to load (status %d)", cb.Src(), status))
		}
		return withExitCode(ExitNetworkError, errors.New("jsonp "+cb.Src()+": no callback received"))
	}

	return report(cmd, "JSONP", cb.Src(), result, jsonpFlags)
}
