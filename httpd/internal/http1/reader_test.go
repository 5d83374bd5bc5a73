package http1

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"
)

func readReq(t *testing.T, raw string) (*ParsedRequest, *Reader, error) {
	t.Helper()
	r := &Reader{BR: bufio.NewReader(strings.NewReader(raw)), MaxHeaderBytes: 8 << 10}
	pr, err := r.ReadRequest()
	return pr, r, err
}

func TestReader_RequestLine(t *testing.T) {
	pr, _, err := readReq(t, "GET /hello?name=x HTTP/1.1\r\nHost: h\r\n\r\n")
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	if pr.Method != "GET" || pr.RequestURI != "/hello?name=x" || pr.Proto != "HTTP/1.1" {
		t.Fatalf("parsed %q %q %q", pr.Method, pr.RequestURI, pr.Proto)
	}
	if got := getHeader(pr.Header, "host"); got != "h" {
		t.Fatalf("Host=%q", got)
	}
}

func TestReader_MalformedRequestLine(t *testing.T) {
	for _, raw := range []string{
		"GET /\r\n\r\n",
		"GET  / HTTP/1.1\r\n\r\n",
		"\r\n\r\n",
		"GET / SMTP/1.0\r\n\r\n",
	} {
		if _, _, err := readReq(t, raw); !errors.Is(err, ErrMalformedRequestLine) {
			t.Fatalf("raw %q: err=%v, want ErrMalformedRequestLine", raw, err)
		}
	}
}

func TestReader_MalformedHeader(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nno colon here\r\n\r\n"
	if _, _, err := readReq(t, raw); !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("err=%v, want ErrMalformedHeader", err)
	}
}

func TestReader_HeaderValueTrimmed(t *testing.T) {
	pr, _, err := readReq(t, "GET / HTTP/1.1\r\nX-Pad:   padded value  \r\n\r\n")
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	if got := getHeader(pr.Header, "X-Pad"); got != "padded value" {
		t.Fatalf("value=%q", got)
	}
}

func TestReader_ContentLengthBodyExact(t *testing.T) {
	// Exactly 5 body bytes must be consumed; the pipelined bytes after
	// them stay in the buffer for the next request.
	raw := "POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 5\r\n\r\nhelloNEXT"
	pr, r, err := readReq(t, raw)
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	if pr.ContentLength != 5 || string(pr.Body) != "hello" {
		t.Fatalf("ContentLength=%d body=%q", pr.ContentLength, pr.Body)
	}
	rest, _ := io.ReadAll(r.BR)
	if string(rest) != "NEXT" {
		t.Fatalf("leftover=%q, want %q", rest, "NEXT")
	}
}

func TestReader_NoContentLengthMeansNoBody(t *testing.T) {
	pr, _, err := readReq(t, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	if pr.ContentLength != 0 || pr.Body != nil {
		t.Fatalf("ContentLength=%d body=%q", pr.ContentLength, pr.Body)
	}
}

func TestReader_BadContentLength(t *testing.T) {
	for _, cl := range []string{"abc", "-3", "1x"} {
		raw := "POST / HTTP/1.1\r\nContent-Length: " + cl + "\r\n\r\n"
		if _, _, err := readReq(t, raw); !errors.Is(err, ErrMalformedHeader) {
			t.Fatalf("cl %q: err=%v, want ErrMalformedHeader", cl, err)
		}
	}
}

func TestReader_ChunkedRejected(t *testing.T) {
	raw := "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n3\r\nhey\r\n0\r\n\r\n"
	if _, _, err := readReq(t, raw); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Fatalf("err=%v, want ErrUnsupportedEncoding", err)
	}
}

func TestReader_UnterminatedHeaders(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nHost: x\r\n" // no blank line, stream ends
	if _, _, err := readReq(t, raw); !errors.Is(err, ErrIncompleteRequest) {
		t.Fatalf("err=%v, want ErrIncompleteRequest", err)
	}
}

func TestReader_TruncatedBody(t *testing.T) {
	raw := "POST / HTTP/1.1\r\nContent-Length: 10\r\n\r\nshort"
	if _, _, err := readReq(t, raw); !errors.Is(err, ErrIncompleteRequest) {
		t.Fatalf("err=%v, want ErrIncompleteRequest", err)
	}
}

func TestReader_CleanCloseIsEOF(t *testing.T) {
	if _, _, err := readReq(t, ""); err != io.EOF {
		t.Fatalf("err=%v, want io.EOF", err)
	}
}

func TestReader_HeaderTooLarge(t *testing.T) {
	r := &Reader{
		BR:             bufio.NewReader(strings.NewReader("GET / HTTP/1.1\r\nX: " + strings.Repeat("a", 100) + "\r\n\r\n")),
		MaxHeaderBytes: 32,
	}
	if _, err := r.ReadRequest(); !errors.Is(err, ErrHeaderTooLarge) {
		t.Fatalf("err=%v, want ErrHeaderTooLarge", err)
	}
}

func TestReader_BodyTooLarge(t *testing.T) {
	r := &Reader{
		BR:           bufio.NewReader(strings.NewReader("POST / HTTP/1.1\r\nContent-Length: 64\r\n\r\n")),
		MaxBodyBytes: 16,
	}
	if _, err := r.ReadRequest(); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("err=%v, want ErrBodyTooLarge", err)
	}
}

func TestCanonicalHeaderKey(t *testing.T) {
	for in, want := range map[string]string{
		"content-length": "Content-Length",
		"HOST":           "Host",
		"x-my-header":    "X-My-Header",
	} {
		if got := canonicalHeaderKey(in); got != want {
			t.Fatalf("canonicalHeaderKey(%q)=%q, want %q", in, got, want)
		}
	}
}
