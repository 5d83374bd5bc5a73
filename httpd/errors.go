package httpd

import (
	"errors"
	"io"
	"os"

	"dqx0.com/go/webserv/httpd/internal/http1"
)

// Per-request parse failures, re-exported from the wire package so callers
// can match with errors.Is without importing internal/http1.
var (
	ErrMalformedRequestLine = http1.ErrMalformedRequestLine
	ErrMalformedHeader      = http1.ErrMalformedHeader
	ErrInvalidEscape        = http1.ErrInvalidEscape
	ErrUnsupportedEncoding  = http1.ErrUnsupportedEncoding
	ErrIncompleteRequest    = http1.ErrIncompleteRequest
	ErrHeaderTooLarge       = http1.ErrHeaderTooLarge
	ErrBodyTooLarge         = http1.ErrBodyTooLarge
)

var (
	ErrNotFound         = errors.New("httpd: not found")
	ErrMethodNotAllowed = errors.New("httpd: method not allowed")
	ErrWrite            = errors.New("httpd: write failed")
)

// Categorize maps an error to the category name recorded by the stats
// registry and the status code of the response sent back, if any.
func Categorize(err error) (category string, status int) {
	switch {
	case errors.Is(err, ErrMalformedRequestLine):
		return "malformed_request_line", 400
	case errors.Is(err, ErrMalformedHeader):
		return "malformed_header", 400
	case errors.Is(err, ErrInvalidEscape):
		return "invalid_escape", 400
	case errors.Is(err, ErrUnsupportedEncoding):
		return "unsupported_encoding", 411
	case errors.Is(err, ErrHeaderTooLarge):
		return "header_too_large", 431
	case errors.Is(err, ErrBodyTooLarge):
		return "body_too_large", 413
	case errors.Is(err, ErrIncompleteRequest),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, os.ErrDeadlineExceeded):
		return "incomplete_request", 408
	case errors.Is(err, ErrNotFound):
		return "not_found", 404
	case errors.Is(err, ErrMethodNotAllowed):
		return "method_not_allowed", 405
	case errors.Is(err, ErrWrite):
		return "write_failed", 0
	default:
		return "internal", 500
	}
}
