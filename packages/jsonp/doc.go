// Package jsonp performs JSONP round trips.
//
// A Registry hands out unique callback names and correlates the call made
// by a remote script with the Callback that started it. Scripts are
// appended to a Document, which fetches and executes them the way a
// browser would. HTMLDocument keeps the page in memory.
package jsonp
