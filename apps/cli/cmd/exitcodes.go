package cmd

// Exit codes for the ajax CLI
const (
	// ExitSuccess indicates the request succeeded
	ExitSuccess = 0

	// ExitRequestFailure indicates the server answered with a failure status
	ExitRequestFailure = 1

	// ExitSchemaMismatch indicates the body did not satisfy --schema
	ExitSchemaMismatch = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates no response arrived (status 0 or JSONP failure)
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)
