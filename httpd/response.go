package httpd

import (
	"dqx0.com/go/webserv/httpd/internal/http1"
)

// Response is built in full by a handler before any byte is written, so the
// status line, headers and body always reach the wire as one sequence.
// Header insertion order is preserved in the output.
type Response struct {
	StatusCode int
	Reason     string // default reason phrase when empty
	Body       []byte
	// Close forces the connection to close after this response even when
	// keep-alive would otherwise apply.
	Close bool

	fields []http1.HeaderField
}

func NewResponse(status int) *Response {
	return &Response{StatusCode: status}
}

// Text builds a plain-text response.
func Text(status int, body string) *Response {
	r := NewResponse(status)
	r.SetHeader("Content-Type", "text/plain; charset=utf-8")
	r.Body = []byte(body)
	return r
}

// HTML builds an HTML response. The caller is responsible for escaping any
// client-supplied input embedded in body.
func HTML(status int, body string) *Response {
	r := NewResponse(status)
	r.SetHeader("Content-Type", "text/html; charset=utf-8")
	r.Body = []byte(body)
	return r
}

// SetHeader sets key to value, replacing an earlier value in place so the
// field keeps its original position.
func (r *Response) SetHeader(key, value string) {
	for i := range r.fields {
		if r.fields[i].Key == key {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, http1.HeaderField{Key: key, Value: value})
}

// AddHeader appends a field without replacing earlier ones with the same key.
func (r *Response) AddHeader(key, value string) {
	r.fields = append(r.fields, http1.HeaderField{Key: key, Value: value})
}

// HeaderValue returns the first value set for key, or "".
func (r *Response) HeaderValue(key string) string {
	for _, f := range r.fields {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// Fields returns the handler-set header fields in insertion order.
func (r *Response) Fields() []http1.HeaderField {
	return r.fields
}
