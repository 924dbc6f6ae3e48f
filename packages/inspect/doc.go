// Package inspect pulls values out of comments service responses and checks
// response bodies against JSON schemas.
//
// Paths use gjson syntax against the body, with two reserved prefixes:
//   - "status" selects the status code
//   - "header.<Name>" selects a response header
package inspect
