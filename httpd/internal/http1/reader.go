package http1

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse failures, classified so the server can pick a status code and an
// error category without string matching.
var (
	ErrMalformedRequestLine = errors.New("http1: malformed request line")
	ErrMalformedHeader      = errors.New("http1: malformed header")
	ErrUnsupportedEncoding  = errors.New("http1: chunked transfer encoding not supported")
	ErrIncompleteRequest    = errors.New("http1: incomplete request")
	ErrHeaderTooLarge       = errors.New("http1: header too large")
	ErrBodyTooLarge         = errors.New("http1: body too large")
)

// ParsedRequest is a minimal representation parsed from the wire. The body is
// fully read before this is returned, so a keep-alive connection needs no
// draining between requests.
type ParsedRequest struct {
	Method        string
	RequestURI    string
	Proto         string
	Header        map[string][]string
	ContentLength int64
	Body          []byte
}

type Reader struct {
	BR             *bufio.Reader
	MaxHeaderBytes int
	MaxBodyBytes   int64
}

// ReadRequest reads exactly one request from the stream: request line,
// headers up to the blank line, then Content-Length body bytes if any.
// A clean close before the first byte returns io.EOF unchanged; any close
// or timeout mid-request is reported as ErrIncompleteRequest.
func (r *Reader) ReadRequest() (*ParsedRequest, error) {
	line, first, err := r.readLine(true)
	if err != nil {
		if first && err == io.EOF {
			return nil, io.EOF
		}
		return nil, incomplete(err)
	}
	parts := strings.Split(line, " ")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRequestLine, line)
	}
	method, uri, proto := parts[0], parts[1], parts[2]
	if !strings.HasPrefix(proto, "HTTP/1.") {
		return nil, fmt.Errorf("%w: bad version %q", ErrMalformedRequestLine, proto)
	}
	hdr, err := r.readHeaders()
	if err != nil {
		return nil, err
	}
	if hasChunkedTE(hdr) {
		return nil, ErrUnsupportedEncoding
	}
	var cl int64
	if v := getHeader(hdr, "Content-Length"); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: Content-Length %q", ErrMalformedHeader, v)
		}
		cl = n
	}
	if r.MaxBodyBytes > 0 && cl > r.MaxBodyBytes {
		return nil, ErrBodyTooLarge
	}
	var body []byte
	if cl > 0 {
		body = make([]byte, cl)
		if _, err := io.ReadFull(r.BR, body); err != nil {
			return nil, incomplete(err)
		}
	}
	return &ParsedRequest{
		Method:        method,
		RequestURI:    uri,
		Proto:         proto,
		Header:        hdr,
		ContentLength: cl,
		Body:          body,
	}, nil
}

func (r *Reader) readHeaders() (map[string][]string, error) {
	h := make(map[string][]string)
	for {
		line, _, err := r.readLine(false)
		if err != nil {
			return nil, incomplete(err)
		}
		if line == "" {
			break
		}
		i := strings.IndexByte(line, ':')
		if i <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, line)
		}
		k := strings.TrimSpace(line[:i])
		v := strings.TrimSpace(line[i+1:])
		if k == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, line)
		}
		addHeader(h, k, v)
	}
	return h, nil
}

// readLine reads up to the next LF, dropping any CR. The second result
// reports whether the error happened before any byte of the line arrived,
// which is how a clean keep-alive close is told apart from a truncated
// request.
func (r *Reader) readLine(trackFirst bool) (string, bool, error) {
	var sb strings.Builder
	for {
		b, err := r.BR.ReadByte()
		if err != nil {
			return "", trackFirst && sb.Len() == 0, err
		}
		if b == '\n' {
			break
		}
		if b != '\r' {
			sb.WriteByte(b)
		}
		if r.MaxHeaderBytes > 0 && sb.Len() > r.MaxHeaderBytes {
			return "", false, ErrHeaderTooLarge
		}
	}
	return sb.String(), false, nil
}

func incomplete(err error) error {
	if errors.Is(err, ErrMalformedHeader) || errors.Is(err, ErrHeaderTooLarge) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrIncompleteRequest, err)
}

func addHeader(h map[string][]string, k, v string) {
	hk := canonicalHeaderKey(k)
	h[hk] = append(h[hk], v)
}

func getHeader(h map[string][]string, k string) string {
	hk := canonicalHeaderKey(k)
	if vv, ok := h[hk]; ok && len(vv) > 0 {
		return vv[0]
	}
	return ""
}

func hasChunkedTE(h map[string][]string) bool {
	hk := canonicalHeaderKey("Transfer-Encoding")
	if vv, ok := h[hk]; ok {
		for _, v := range vv {
			if strings.Contains(strings.ToLower(v), "chunked") {
				return true
			}
		}
	}
	return false
}

// Very small canonicalizer to avoid importing textproto here.
func canonicalHeaderKey(s string) string {
	b := []byte(strings.ToLower(s))
	upper := true
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			if upper {
				b[i] = byte(c - 'a' + 'A')
			}
			upper = false
			continue
		}
		upper = c == '-'
	}
	return string(b)
}
