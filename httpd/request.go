package httpd

import (
	"fmt"
	"strings"
	"time"

	"dqx0.com/go/webserv/httpd/internal/http1"
)

// Request is one parsed HTTP request. It is never mutated after parsing;
// handlers treat it as read-only.
type Request struct {
	Method        string
	Path          string // percent-decoded, query removed
	RawTarget     string // request target exactly as received
	Query         Query
	Proto         string
	Header        Header
	Body          []byte
	ContentLength int64

	// Connection context, filled in by the worker.
	RemoteAddr   string
	ConnID       string
	ConnOpened   time.Time
	ConnRequests int64 // requests served on this connection before this one
}

// newRequest finishes what the wire reader started: the raw target is split
// at the first '?', then path and query are percent-decoded separately.
func newRequest(pr *http1.ParsedRequest) (*Request, error) {
	rawPath, rawQuery := http1.SplitTarget(pr.RequestURI)
	path, err := http1.Unescape(rawPath, false)
	if err != nil {
		return nil, err
	}
	pairs, err := http1.ParseQuery(rawQuery)
	if err != nil {
		return nil, err
	}
	return &Request{
		Method:        pr.Method,
		Path:          path,
		RawTarget:     pr.RequestURI,
		Query:         Query(pairs),
		Proto:         pr.Proto,
		Header:        Header(pr.Header),
		Body:          pr.Body,
		ContentLength: pr.ContentLength,
	}, nil
}

// Cookie returns the value of the named cookie from the Cookie header.
// The name is case-sensitive.
func (r *Request) Cookie(name string) (string, bool) {
	raw := r.Header.Get("Cookie")
	if raw == "" {
		return "", false
	}
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		k, v, ok := strings.Cut(pair, "=")
		if ok && k == name {
			return v, true
		}
	}
	return "", false
}

// wantsKeepAlive reports what the client asked for: HTTP/1.1 defaults to
// keep-alive unless "Connection: close", HTTP/1.0 the other way around.
func (r *Request) wantsKeepAlive() bool {
	conn := strings.ToLower(r.Header.Get("Connection"))
	if r.Proto == "HTTP/1.1" {
		return conn != "close"
	}
	return conn == "keep-alive"
}

func (r *Request) String() string {
	return fmt.Sprintf("%s %s %s", r.Method, r.RawTarget, r.Proto)
}
