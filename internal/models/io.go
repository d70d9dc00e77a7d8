// Package models provides the core data structures for handling proxied HTTP requests and responses.
package models

// Request represents an incoming client request. A nil Body means the proxy sent no body at all.
type Request struct {
	Method   string
	Body     *string
	Headers  map[string]string
	SourceIP string
}

// Response defines the structure for an HTTP response containing a JSON body, headers, and a status code.
type Response struct {
	Body       string
	Headers    map[string]string
	StatusCode int
}
