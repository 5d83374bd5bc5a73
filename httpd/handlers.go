package httpd

import (
	"fmt"
	"html"
	"io/fs"
	"math/rand"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// HelloHandler answers GET /hello with a page that changes per request: a
// visit counter, the current time, and any query parameters the client sent,
// reflected back HTML-escaped so client input can never inject markup or
// headers.
type HelloHandler struct {
	visits atomic.Int64
}

func NewHello() *HelloHandler {
	return &HelloHandler{}
}

func (h *HelloHandler) Serve(req *Request) *Response {
	n := h.visits.Add(1)
	name := req.Query.Get("name")
	if name == "" {
		name = "World"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Welcome, %s!\n", html.EscapeString(name))
	fmt.Fprintf(&sb, "The current date is %s.\n", time.Now().Format(time.RFC1123))
	fmt.Fprintf(&sb, "This page has been visited %d times since the server started.\n", n)
	if len(req.Query) > 0 {
		sb.WriteString("\nYou sent these parameters:\n")
		for _, p := range req.Query {
			fmt.Fprintf(&sb, "  %s = %s\n", html.EscapeString(p.Key), html.EscapeString(p.Value))
		}
	}
	sb.WriteString("\nOther pages on this server:\n")
	sb.WriteString("  /hello   - this page\n")
	sb.WriteString("  /status  - server status and statistics\n")
	sb.WriteString("  /quote   - a random quote\n")
	return Text(200, sb.String())
}

// StatusHandler renders a snapshot of the server statistics as plain text.
// The snapshot is a copy, so rendering never holds up other workers.
type StatusHandler struct {
	Stats *StatsRegistry
}

func NewStatus(reg *StatsRegistry) *StatusHandler {
	return &StatusHandler{Stats: reg}
}

func (h *StatusHandler) Serve(req *Request) *Response {
	g := h.Stats.Snapshot()
	var sb strings.Builder
	sb.WriteString("Server statistics:\n")
	fmt.Fprintf(&sb, "  %d connections in total\n", g.ConnectionsTotal)
	fmt.Fprintf(&sb, "  %d active connections\n", g.ConnectionsOpen)
	fmt.Fprintf(&sb, "  %d requests handled\n", g.Requests)
	fmt.Fprintf(&sb, "  %d errors encountered\n", g.Errors)
	fmt.Fprintf(&sb, "  %d bytes read, %d bytes written\n", g.BytesRead, g.BytesWritten)
	fmt.Fprintf(&sb, "  %.3f ms average request handling time\n", toMillis(g.AvgHandleTime))
	fmt.Fprintf(&sb, "  %.3f ms slowest request handling time\n", toMillis(g.MaxHandleTime))

	if len(g.StatusCounts) > 0 {
		sb.WriteString("\nResponses by status code:\n")
		codes := make([]int, 0, len(g.StatusCounts))
		for code := range g.StatusCounts {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			fmt.Fprintf(&sb, "  %d: %d\n", code, g.StatusCounts[code])
		}
	}
	if len(g.ErrorCounts) > 0 {
		sb.WriteString("\nErrors by category:\n")
		cats := make([]string, 0, len(g.ErrorCounts))
		for cat := range g.ErrorCounts {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			fmt.Fprintf(&sb, "  %s: %d\n", cat, g.ErrorCounts[cat])
		}
	}

	sb.WriteString("\nThis connection:\n")
	fmt.Fprintf(&sb, "  %d requests handled so far\n", req.ConnRequests)
	if !req.ConnOpened.IsZero() {
		fmt.Fprintf(&sb, "  %.3f s since the connection opened\n", time.Since(req.ConnOpened).Seconds())
	}
	return Text(200, sb.String())
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// QuoteHandler serves one randomly chosen quote from a quotations file in
// the document root. Quotes are separated by lines containing only "%".
type QuoteHandler struct {
	FS   fs.FS
	File string
}

func NewQuote(fsys fs.FS) *QuoteHandler {
	return &QuoteHandler{FS: fsys, File: "quotations.txt"}
}

func (h *QuoteHandler) Serve(req *Request) *Response {
	data, err := fs.ReadFile(h.FS, h.File)
	if err != nil {
		return Text(404, "no quotes available\n")
	}
	quotes := splitQuotes(string(data))
	if len(quotes) == 0 {
		return Text(404, "no quotes available\n")
	}
	q := quotes[rand.Intn(len(quotes))]
	var sb strings.Builder
	sb.WriteString("<html><head><title>Quotes!</title></head><body>\n")
	sb.WriteString("<p>Here is a randomly chosen quote:</p>\n")
	fmt.Fprintf(&sb, "<pre>%s</pre>\n", html.EscapeString(q))
	sb.WriteString(`<p>Hit refresh or <a href="/quote">click here</a> for another.</p>` + "\n")
	sb.WriteString("</body></html>\n")
	return HTML(200, sb.String())
}

func splitQuotes(s string) []string {
	var quotes []string
	for _, part := range strings.Split(s, "\n%") {
		part = strings.Trim(part, "%\r\n")
		if strings.TrimSpace(part) != "" {
			quotes = append(quotes, part)
		}
	}
	return quotes
}
