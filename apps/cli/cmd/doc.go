// Package cmd implements the ajax CLI commands using Cobra.
//
// Available commands:
//   - get, post, put, delete: Send a request and print the response
//   - jsonp: Perform a JSONP round trip
//   - version: Show version information
//   - completion: Generate shell completion scripts
//
// Configuration comes from .ajax.yaml or .ajax.json, AJAX_* environment
// variables and flags, in increasing order of precedence.
package cmd
