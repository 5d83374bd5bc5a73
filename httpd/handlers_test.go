package httpd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHello_ReflectsQueryEscaped(t *testing.T) {
	h := NewHello()
	req := get("/hello")
	req.Query = Query{{Key: "name", Value: "<script>alert(1)</script>"}}
	resp := h.Serve(req)

	require.Equal(t, 200, resp.StatusCode)
	body := string(resp.Body)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestHello_CounterAdvances(t *testing.T) {
	h := NewHello()
	first := string(h.Serve(get("/hello")).Body)
	second := string(h.Serve(get("/hello")).Body)
	assert.NotEqual(t, first, second)
	assert.Contains(t, second, "visited 2 times")
}

func TestHello_DefaultGreeting(t *testing.T) {
	h := NewHello()
	resp := h.Serve(get("/hello"))
	assert.Contains(t, string(resp.Body), "Welcome, World!")
}

func TestStatus_RendersSnapshot(t *testing.T) {
	reg := NewStatsRegistry()
	reg.ConnectionOpened()
	reg.RecordRequest(200, 5*time.Millisecond)
	reg.RecordRequest(404, time.Millisecond)
	reg.RecordError("not_found")

	h := NewStatus(reg)
	req := get("/status")
	req.ConnRequests = 3
	req.ConnOpened = time.Now().Add(-time.Second)
	resp := h.Serve(req)

	require.Equal(t, 200, resp.StatusCode)
	body := string(resp.Body)
	assert.Contains(t, body, "1 connections in total")
	assert.Contains(t, body, "2 requests handled")
	assert.Contains(t, body, "1 errors encountered")
	assert.Contains(t, body, "200: 1")
	assert.Contains(t, body, "404: 1")
	assert.Contains(t, body, "not_found: 1")
	assert.Contains(t, body, "3 requests handled so far")
}

func TestQuote_PicksFromFile(t *testing.T) {
	dir := t.TempDir()
	content := "First quote.\n  -- Someone\n%\nSecond quote.\n%\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quotations.txt"), []byte(content), 0o644))

	h := NewQuote(os.DirFS(dir))
	resp := h.Serve(get("/quote"))
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.HeaderValue("Content-Type"))
	body := string(resp.Body)
	assert.True(t, strings.Contains(body, "First quote.") || strings.Contains(body, "Second quote."))
}

func TestQuote_MissingFileIs404(t *testing.T) {
	h := NewQuote(os.DirFS(t.TempDir()))
	resp := h.Serve(get("/quote"))
	assert.Equal(t, 404, resp.StatusCode)
}

func TestSplitQuotes(t *testing.T) {
	quotes := splitQuotes("one\n%\ntwo\n%\n\n%\nthree")
	require.Len(t, quotes, 3)
	assert.Equal(t, "one", quotes[0])
	assert.Equal(t, "three", quotes[2])
}
