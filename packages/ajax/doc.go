// Package ajax issues HTTP requests and reports each outcome to caller
// supplied handlers.
//
// It provides:
//   - Get, Post, Put and Kill (DELETE) verbs funnelling into one dispatcher
//   - Form serialization of request bodies
//   - Default Accept and Content-Type headers
//   - An ordered transport fallback chain (net/http, then resty)
//   - JSONP requests through Get with DataType "jsonp"
//
// Every request that reaches its terminal state produces exactly one
// notification: Callback when set, otherwise one of Success or Error.
package ajax
