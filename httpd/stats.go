package httpd

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"dqx0.com/go/webserv/internal/obs"
)

// ConnStats are the per-connection counters. They are owned by the worker
// that serves the connection and published into the registry when it closes.
type ConnStats struct {
	ID           string
	Requests     int64
	BytesRead    int64
	BytesWritten int64
	OpenedAt     time.Time
	ClosedAt     time.Time
}

// GlobalStats is a point-in-time copy of the registry. The maps belong to
// the caller; mutating them does not affect the registry.
type GlobalStats struct {
	ConnectionsTotal int64
	ConnectionsOpen  int64
	Requests         int64
	Errors           int64
	BytesRead        int64
	BytesWritten     int64
	StatusCounts     map[int]int64
	ErrorCounts      map[string]int64
	AvgHandleTime    time.Duration
	MaxHandleTime    time.Duration
}

// StatsRegistry aggregates counters from every connection worker. All
// methods are safe for concurrent use; none of them performs I/O or blocks,
// so workers never stall each other here.
//
// It also implements obs.Meter, bridging generic counter/histogram
// measurements into the same registry.
type StatsRegistry struct {
	connsTotal atomic.Int64
	connsOpen  atomic.Int64
	requests   atomic.Int64
	errs       atomic.Int64
	bytesIn    atomic.Int64
	bytesOut   atomic.Int64

	statuses *xsync.MapOf[int, *xsync.Counter]
	errCats  *xsync.MapOf[string, *xsync.Counter]
	meters   *xsync.MapOf[string, *xsync.Counter]

	mu        sync.Mutex // guards timing aggregates only
	totalTime time.Duration
	maxTime   time.Duration
	timed     int64
}

func NewStatsRegistry() *StatsRegistry {
	return &StatsRegistry{
		statuses: xsync.NewMapOf[int, *xsync.Counter](),
		errCats:  xsync.NewMapOf[string, *xsync.Counter](),
		meters:   xsync.NewMapOf[string, *xsync.Counter](),
	}
}

func (s *StatsRegistry) ConnectionOpened() {
	s.connsTotal.Add(1)
	s.connsOpen.Add(1)
}

// ConnectionClosed folds the finished connection's counters into the
// registry and decrements the open count.
func (s *StatsRegistry) ConnectionClosed(cs ConnStats) {
	s.connsOpen.Add(-1)
	s.bytesIn.Add(cs.BytesRead)
	s.bytesOut.Add(cs.BytesWritten)
}

// RecordRequest counts one completed exchange with the status code that was
// sent and how long handling took.
func (s *StatsRegistry) RecordRequest(status int, d time.Duration) {
	s.requests.Add(1)
	c, _ := s.statuses.LoadOrCompute(status, xsync.NewCounter)
	c.Inc()

	s.mu.Lock()
	s.timed++
	s.totalTime += d
	if d > s.maxTime {
		s.maxTime = d
	}
	s.mu.Unlock()
}

func (s *StatsRegistry) RecordError(category string) {
	s.errs.Add(1)
	c, _ := s.errCats.LoadOrCompute(category, xsync.NewCounter)
	c.Inc()
}

// Snapshot returns a consistent copy of all counters. Totals are read once
// each; the per-status and per-category maps are materialized from the
// concurrent maps without blocking writers.
func (s *StatsRegistry) Snapshot() GlobalStats {
	g := GlobalStats{
		ConnectionsTotal: s.connsTotal.Load(),
		ConnectionsOpen:  s.connsOpen.Load(),
		Requests:         s.requests.Load(),
		Errors:           s.errs.Load(),
		BytesRead:        s.bytesIn.Load(),
		BytesWritten:     s.bytesOut.Load(),
		StatusCounts:     make(map[int]int64),
		ErrorCounts:      make(map[string]int64),
	}
	s.statuses.Range(func(code int, c *xsync.Counter) bool {
		g.StatusCounts[code] = c.Value()
		return true
	})
	s.errCats.Range(func(cat string, c *xsync.Counter) bool {
		g.ErrorCounts[cat] = c.Value()
		return true
	})
	s.mu.Lock()
	if s.timed > 0 {
		g.AvgHandleTime = s.totalTime / time.Duration(s.timed)
	}
	g.MaxHandleTime = s.maxTime
	s.mu.Unlock()
	return g
}

// Counter implements obs.Meter.
func (s *StatsRegistry) Counter(name string, value float64, _ ...obs.Label) {
	c, _ := s.meters.LoadOrCompute(name, xsync.NewCounter)
	c.Add(int64(value))
}

// Histogram implements obs.Meter. Only the sample count is retained.
func (s *StatsRegistry) Histogram(name string, _ float64, _ ...obs.Label) {
	c, _ := s.meters.LoadOrCompute(name, xsync.NewCounter)
	c.Inc()
}

var _ obs.Meter = (*StatsRegistry)(nil)
