package http1

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestWriteResponse_ExactBytes(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	fields := []HeaderField{
		{"Server", "webserv"},
		{"Content-Type", "text/plain"},
		{"Content-Length", "2"},
		{"Connection", "close"},
	}
	if err := WriteResponse(bw, 200, "", fields, []byte("ok")); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	want := "HTTP/1.1 200 OK\r\n" +
		"Server: webserv\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Length: 2\r\n" +
		"Connection: close\r\n" +
		"\r\n" +
		"ok"
	if got := buf.String(); got != want {
		t.Fatalf("wire bytes:\n%q\nwant:\n%q", got, want)
	}
}

func TestWriteResponse_CustomReason(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	if err := WriteResponse(bw, 404, "GONE FISHING", nil, nil); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}
	bw.Flush()
	if !strings.HasPrefix(buf.String(), "HTTP/1.1 404 GONE FISHING\r\n") {
		t.Fatalf("status line: %q", buf.String())
	}
}

func TestWriteResponse_SanitizesHeaderValues(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	fields := []HeaderField{{"X-Injected", "a\r\nSet-Cookie: evil=1"}}
	if err := WriteResponse(bw, 200, "", fields, nil); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}
	bw.Flush()
	out := buf.String()
	if strings.Count(out, "\r\n") != 3 { // status + 1 header + blank
		t.Fatalf("CRLF smuggled into header value:\n%q", out)
	}
}

func TestReasonPhrase(t *testing.T) {
	for code, want := range map[int]string{
		200: "OK",
		400: "Bad Request",
		404: "Not Found",
		405: "Method Not Allowed",
		411: "Length Required",
		500: "Internal Server Error",
		599: "Status",
	} {
		if got := ReasonPhrase(code); got != want {
			t.Fatalf("ReasonPhrase(%d)=%q, want %q", code, got, want)
		}
	}
}
