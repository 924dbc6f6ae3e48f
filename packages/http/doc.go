// Package http executes requests against the comments service.
//
// It wraps the standard library's http package with:
//   - API key and request_id correlation metadata on every call
//   - A fixed end-to-end timeout (5s by default)
//   - A scoped timer emitting one metric and one log line per call
//   - Classification of the response status into a closed set of error kinds
//
// Transport failures, timeouts included, are returned unclassified.
package http
