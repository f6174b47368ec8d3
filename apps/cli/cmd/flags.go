package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/ajax/packages/ajax"
	"github.com/abdul-hamid-achik/ajax/packages/core/config"
	"github.com/abdul-hamid-achik/ajax/packages/core/logger"
	"github.com/abdul-hamid-achik/ajax/packages/output"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFlag   string
	verboseFlag  int // 0=off, 1=-v, 2=-vv
	noColorFlag  bool
	timeoutFlag  string
	proxyFlag    string
	insecureFlag bool
	engineFlag   []string
	logJSONFlag  bool
	outputFlag   string
)

func bindGlobalFlags(c *cobra.Command) {
	f := c.PersistentFlags()
	f.StringVar(&configFlag, "config", getEnvString("AJAX_CONFIG", ""), "Path to config file (env: AJAX_CONFIG)")
	f.CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-v headers and info logs, -vv debug logs)")
	f.BoolVar(&noColorFlag, "no-color", getEnvBool("AJAX_NO_COLOR", false), "Disable colored output (env: AJAX_NO_COLOR)")
	f.StringVar(&timeoutFlag, "timeout", getEnvString("AJAX_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: AJAX_TIMEOUT)")
	f.StringVar(&proxyFlag, "proxy", getEnvString("AJAX_PROXY", ""), "Proxy URL for HTTP requests (env: AJAX_PROXY)")
	f.BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("AJAX_INSECURE", false), "Disable SSL certificate validation (env: AJAX_INSECURE)")
	f.StringSliceVar(&engineFlag, "engine", nil, "Transport engines in order of preference (net, resty)")
	f.BoolVar(&logJSONFlag, "log-json", getEnvBool("AJAX_LOG_JSON", false), "Write logs as JSON (env: AJAX_LOG_JSON)")
	f.StringVarP(&outputFlag, "output", "o", getEnvString("AJAX_OUTPUT", output.FormatConsole), "Output format: console, json (env: AJAX_OUTPUT)")
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// loadConfig merges the config file with flag and environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, withExitCode(ExitConfigError, fmt.Errorf("load config: %w", err))
	}

	overrides := &config.Config{
		Proxy:      proxyFlag,
		Transports: engineFlag,
		RateLimit:  getEnvFloat("AJAX_RATE_LIMIT", 0),
	}
	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid timeout %q: %w", timeoutFlag, err))
		}
		overrides.Timeout = int(d.Milliseconds())
	}
	if insecureFlag {
		overrides.ValidateSSL = config.BoolPtr(false)
	}
	if noColorFlag {
		overrides.NoColor = config.BoolPtr(true)
	}
	switch {
	case verboseFlag >= 2:
		overrides.LogLevel = "debug"
	case verboseFlag == 1:
		overrides.LogLevel = "info"
	}

	return cfg.Merge(overrides), nil
}

// newClient builds a client and logger from the merged configuration.
func newClient(cmd *cobra.Command) (*ajax.Client, *config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.GetNoColor() {
		color.NoColor = true
	}

	log := logger.New(cfg.LogLevel, cmd.ErrOrStderr(), logJSONFlag)
	return ajax.NewClient(cfg.ClientOptions(log)...), cfg, log, nil
}

// parseHeaders reads "Name: value" pairs.
func parseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, h := range values {
		name, value, found := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid header %q, expected \"Name: value\"", h))
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// parseForm reads key=value pairs in order.
func parseForm(values []string) (ajax.Form, error) {
	var form ajax.Form
	for _, kv := range values {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid field %q, expected key=value", kv))
		}
		form = form.Add(key, value)
	}
	return form, nil
}
