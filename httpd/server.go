package httpd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"dqx0.com/go/webserv/httpd/internal/http1"
	"dqx0.com/go/webserv/internal/obs"
)

// ErrServerClosed is returned by Serve after Shutdown.
var ErrServerClosed = errors.New("httpd: server closed")

const (
	defaultBacklog        = 128
	defaultMaxHeaderBytes = 8 << 10
	defaultShutdownGrace  = 5 * time.Second
)

// Config carries the recognized server options. The zero value listens on
// all interfaces with keep-alive disabled and no per-request timeouts.
type Config struct {
	Addr string // bind address, e.g. "127.0.0.1"
	Port int

	// Backlog bounds the number of concurrently served connections; the
	// accept loop stalls when every worker slot is taken.
	Backlog int

	// KeepAlive lets a connection carry multiple sequential exchanges.
	// Off by default: each connection closes after one response.
	KeepAlive bool
	// IdleTimeout bounds the wait for the next request on a kept-alive
	// connection. Zero means wait forever.
	IdleTimeout time.Duration
	// ReadHeaderTimeout bounds parsing a single request. Zero disables it.
	ReadHeaderTimeout time.Duration
	// MaxRequestsPerConn caps exchanges per kept-alive connection.
	// Zero means unlimited.
	MaxRequestsPerConn int64

	MaxHeaderBytes int
	MaxBodyBytes   int64

	// ShutdownGrace is how long Shutdown waits for in-flight workers
	// before force-closing their sockets.
	ShutdownGrace time.Duration
}

// Server owns the welcoming socket and spawns one worker per accepted
// connection. The worker carries the connection end to end: read, parse,
// route, handle, write, then close or loop for keep-alive.
type Server struct {
	Config  Config
	Handler Handler
	Stats   *StatsRegistry
	Log     obs.Logger
	Meter   obs.Meter

	mu         sync.Mutex
	ln         net.Listener
	conns      map[net.Conn]struct{}
	wg         sync.WaitGroup
	slots      chan struct{}
	inShutdown atomic.Bool
}

// ListenAndServe binds the welcoming socket and runs the accept loop until
// Shutdown. A bind failure is returned immediately, wrapped with the
// address it concerned.
func (s *Server) ListenAndServe() error {
	addr := net.JoinHostPort(s.Config.Addr, strconv.Itoa(s.Config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve runs the accept loop on an existing listener. Each accepted
// connection takes a worker slot and is served on its own goroutine; no
// failure on one connection ever reaches another or stops the loop.
func (s *Server) Serve(ln net.Listener) error {
	backlog := s.Config.Backlog
	if backlog <= 0 {
		backlog = defaultBacklog
	}
	s.mu.Lock()
	s.ln = ln
	if s.conns == nil {
		s.conns = make(map[net.Conn]struct{})
	}
	if s.slots == nil {
		s.slots = make(chan struct{}, backlog)
	}
	s.mu.Unlock()

	s.logf(obs.Info, "listening on %s", ln.Addr())
	for {
		c, err := ln.Accept()
		if err != nil {
			if s.inShutdown.Load() {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logf(obs.Warn, "accept: %v", err)
				continue
			}
			return err
		}
		s.slots <- struct{}{}
		s.meter().Counter("connections_accepted", 1)
		s.wg.Add(1)
		go s.serveConn(c)
	}
}

// Shutdown closes the listener, lets in-flight workers drain their current
// exchange, and force-closes whatever is left after the grace period.
func (s *Server) Shutdown(ctx context.Context) error {
	s.inShutdown.Store(true)
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln != nil {
		_ = ln.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	grace := s.Config.ShutdownGrace
	if grace <= 0 {
		grace = defaultShutdownGrace
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
	case <-timer.C:
		s.logf(obs.Warn, "grace period exceeded, closing remaining connections")
	}

	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()
	<-done
	return ctx.Err()
}

func (s *Server) serveConn(nc net.Conn) {
	defer s.wg.Done()
	defer func() { <-s.slots }()

	cs := ConnStats{ID: uuid.NewString(), OpenedAt: time.Now()}
	s.stats().ConnectionOpened()
	s.trackConn(nc, true)
	cc := &countingConn{Conn: nc}
	s.logf(obs.Info, "conn %s: accepted from %s", cs.ID, nc.RemoteAddr())

	defer func() {
		_ = nc.Close()
		s.trackConn(nc, false)
		cs.ClosedAt = time.Now()
		cs.BytesRead = cc.read
		cs.BytesWritten = cc.written
		s.stats().ConnectionClosed(cs)
		s.logf(obs.Info, "conn %s: closed after %d requests, %dB in, %dB out",
			cs.ID, cs.Requests, cs.BytesRead, cs.BytesWritten)
	}()

	br := bufio.NewReader(cc)
	bw := bufio.NewWriter(cc)
	for {
		if d := s.readDeadline(cs.Requests > 0); d > 0 {
			_ = nc.SetReadDeadline(time.Now().Add(d))
		}
		rr := &http1.Reader{BR: br, MaxHeaderBytes: s.headerLimit(), MaxBodyBytes: s.Config.MaxBodyBytes}
		pr, err := rr.ReadRequest()
		if err == io.EOF {
			return
		}
		_ = nc.SetReadDeadline(time.Time{})

		var req *Request
		if err == nil {
			req, err = newRequest(pr)
		}
		if err != nil {
			cat, status := Categorize(err)
			s.stats().RecordError(cat)
			s.logf(obs.Warn, "conn %s: %v", cs.ID, err)
			if status > 0 {
				resp := Text(status, http1.ReasonPhrase(status)+": "+cat+"\n")
				_ = s.writeResponse(bw, "", resp, false)
			}
			return
		}
		req.RemoteAddr = nc.RemoteAddr().String()
		req.ConnID = cs.ID
		req.ConnOpened = cs.OpenedAt
		req.ConnRequests = cs.Requests
		s.logf(obs.Info, "conn %s: request %d: %s", cs.ID, cs.Requests, req)

		start := time.Now()
		resp := s.handle(req)
		keep := s.keepAlive(req, resp, cs.Requests)
		if err := s.writeResponse(bw, req.Method, resp, keep); err != nil {
			cat, _ := Categorize(fmt.Errorf("%w: %v", ErrWrite, err))
			s.stats().RecordError(cat)
			s.logf(obs.Warn, "conn %s: write: %v", cs.ID, err)
			return
		}
		dur := time.Since(start)
		cs.Requests++
		s.stats().RecordRequest(resp.StatusCode, dur)
		s.meter().Histogram("request_duration_ms", float64(dur)/float64(time.Millisecond))
		if !keep {
			return
		}
	}
}

// handle dispatches through the configured Handler with a panic boundary:
// whatever goes wrong inside a handler becomes a 500, never a dead worker
// or a crashed process.
func (s *Server) handle(req *Request) (resp *Response) {
	defer func() {
		if v := recover(); v != nil {
			s.stats().RecordError("handler_panic")
			s.logf(obs.Error, "conn %s: handler panic on %s: %v", req.ConnID, req.Path, v)
			resp = Text(500, "internal server error\n")
		}
	}()
	h := s.Handler
	if h == nil {
		return Text(404, "no handler installed\n")
	}
	resp = h.Serve(req)
	if resp == nil {
		resp = Text(500, "handler returned no response\n")
	}
	return resp
}

// writeResponse finalizes the header block and emits the whole response in
// one buffered sequence. Server and Date come first, then handler headers,
// then Content-Length and Connection, so output bytes are deterministic for
// a given response.
func (s *Server) writeResponse(bw *bufio.Writer, method string, resp *Response, keepAlive bool) error {
	body := resp.Body
	fields := make([]http1.HeaderField, 0, len(resp.Fields())+4)
	fields = append(fields,
		http1.HeaderField{Key: "Server", Value: "webserv"},
		http1.HeaderField{Key: "Date", Value: time.Now().UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")},
	)
	for _, f := range resp.Fields() {
		switch f.Key {
		case "Server", "Date", "Content-Length", "Connection":
			continue
		}
		fields = append(fields, f)
	}
	fields = append(fields, http1.HeaderField{Key: "Content-Length", Value: strconv.Itoa(len(body))})
	if keepAlive {
		fields = append(fields, http1.HeaderField{Key: "Connection", Value: "keep-alive"})
	} else {
		fields = append(fields, http1.HeaderField{Key: "Connection", Value: "close"})
	}
	if method == "HEAD" {
		body = nil
	}
	if err := http1.WriteResponse(bw, resp.StatusCode, resp.Reason, fields, body); err != nil {
		return err
	}
	return bw.Flush()
}

func (s *Server) keepAlive(req *Request, resp *Response, served int64) bool {
	if !s.Config.KeepAlive || s.inShutdown.Load() || resp.Close {
		return false
	}
	if max := s.Config.MaxRequestsPerConn; max > 0 && served+1 >= max {
		return false
	}
	return req.wantsKeepAlive()
}

// readDeadline picks the parse deadline: the idle timeout between keep-alive
// requests, otherwise the header timeout for a fresh connection.
func (s *Server) readDeadline(idle bool) time.Duration {
	if idle && s.Config.IdleTimeout > 0 {
		return s.Config.IdleTimeout
	}
	return s.Config.ReadHeaderTimeout
}

func (s *Server) trackConn(c net.Conn, add bool) {
	s.mu.Lock()
	if s.conns == nil {
		s.conns = make(map[net.Conn]struct{})
	}
	if add {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
	s.mu.Unlock()
}

func (s *Server) headerLimit() int {
	if s.Config.MaxHeaderBytes <= 0 {
		return defaultMaxHeaderBytes
	}
	return s.Config.MaxHeaderBytes
}

func (s *Server) stats() *StatsRegistry {
	s.mu.Lock()
	if s.Stats == nil {
		s.Stats = NewStatsRegistry()
	}
	st := s.Stats
	s.mu.Unlock()
	return st
}

func (s *Server) meter() obs.Meter {
	if s.Meter == nil {
		return obs.NopMeter{}
	}
	return s.Meter
}

func (s *Server) logf(level obs.Level, format string, args ...interface{}) {
	if s.Log == nil {
		return
	}
	s.Log.Logf(level, format, args...)
}

// countingConn tracks bytes moved over the connection for ConnStats. It is
// only ever touched by the owning worker.
type countingConn struct {
	net.Conn
	read    int64
	written int64
}

func (c *countingConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	c.read += int64(n)
	return n, err
}

func (c *countingConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	c.written += int64(n)
	return n, err
}
