package httpd

import (
	"net/textproto"

	"dqx0.com/go/webserv/httpd/internal/http1"
)

// Header holds request headers under canonical MIME keys. Lookup is
// case-insensitive; Get returns the first value when a key repeats.
type Header map[string][]string

func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	k := textproto.CanonicalMIMEHeaderKey(key)
	if vv, ok := h[k]; ok && len(vv) > 0 {
		return vv[0]
	}
	return ""
}

// Values returns every value recorded for key in arrival order.
func (h Header) Values(key string) []string {
	if h == nil {
		return nil
	}
	return h[textproto.CanonicalMIMEHeaderKey(key)]
}

func (h Header) Set(key, value string) {
	if h == nil {
		return
	}
	h[textproto.CanonicalMIMEHeaderKey(key)] = []string{value}
}

func (h Header) Add(key, value string) {
	if h == nil {
		return
	}
	k := textproto.CanonicalMIMEHeaderKey(key)
	h[k] = append(h[k], value)
}

func (h Header) Del(key string) {
	if h == nil {
		return
	}
	delete(h, textproto.CanonicalMIMEHeaderKey(key))
}

// QueryPair is one decoded key=value pair from the query string.
type QueryPair = http1.QueryPair

// Query preserves every pair in arrival order, including duplicate keys.
type Query []QueryPair

// Get returns the first value for key, or "".
func (q Query) Get(key string) string {
	for _, p := range q {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// Values returns all values for key in order.
func (q Query) Values(key string) []string {
	var vv []string
	for _, p := range q {
		if p.Key == key {
			vv = append(vv, p.Value)
		}
	}
	return vv
}
