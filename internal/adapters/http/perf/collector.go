package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 4096

// EntryKind distinguishes request vs query entries.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
)

// Entry is a single timing record stored in the ring buffer.
type Entry struct {
	Kind       EntryKind
	Path       string // "METHOD /route" for requests, db op for queries
	StatusCode int    // 0 for queries
	DurationMs float64
	Timestamp  time.Time
}

// Collector keeps the most recent timing entries for the /debug/perf report.
// When full, the oldest entries are overwritten. Aggregation happens on read.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	pos     int

	requests atomic.Int64
	queries  atomic.Int64
}

// NewCollector creates a collector holding up to size entries.
// A non-positive size falls back to DefaultRingSize.
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record stores e, overwriting the oldest entry when the buffer is full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % len(c.entries)
	c.mu.Unlock()

	if e.Kind == KindQuery {
		c.queries.Add(1)
	} else {
		c.requests.Add(1)
	}
}

// TotalRecorded returns how many entries of either kind were ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return c.requests.Load() + c.queries.Load()
}

// Snapshot is the aggregated view served as JSON.
type Snapshot struct {
	TotalRequests  int64      `json:"total_requests"`
	TotalQueries   int64      `json:"total_queries"`
	ServerErrors   int        `json:"server_errors"` // 5xx responses in the window
	RequestP50Ms   float64    `json:"request_p50_ms"`
	RequestP95Ms   float64    `json:"request_p95_ms"`
	RequestP99Ms   float64    `json:"request_p99_ms"`
	SlowestPaths   []PathStat `json:"slowest_paths"`
	SlowestQueries []PathStat `json:"slowest_queries"`
}

// PathStat aggregates timing for one route or db operation.
type PathStat struct {
	Path    string  `json:"path"`
	Count   int     `json:"count"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	TotalMs float64 `json:"total_ms"`
}

func (s *PathStat) add(ms float64) {
	s.Count++
	s.TotalMs += ms
	if ms > s.MaxMs {
		s.MaxMs = ms
	}
}

// Snapshot aggregates entries recorded at or after since.
// Totals cover the collector's lifetime; percentiles and top-N cover the window.
// PRE: topN >= 0
// POST: SlowestPaths and SlowestQueries hold at most topN entries each, slowest average first
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.entries))
	copy(buf, c.entries)
	c.mu.Unlock()

	var durations []float64
	routes := make(map[string]*PathStat)
	queries := make(map[string]*PathStat)
	serverErrors := 0

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		stats := routes
		if e.Kind == KindQuery {
			stats = queries
		} else {
			durations = append(durations, e.DurationMs)
			if e.StatusCode >= 500 {
				serverErrors++
			}
		}
		s, ok := stats[e.Path]
		if !ok {
			s = &PathStat{Path: e.Path}
			stats[e.Path] = s
		}
		s.add(e.DurationMs)
	}

	snap := Snapshot{
		TotalRequests:  c.requests.Load(),
		TotalQueries:   c.queries.Load(),
		ServerErrors:   serverErrors,
		SlowestPaths:   topByAvg(routes, topN),
		SlowestQueries: topByAvg(queries, topN),
	}
	if len(durations) > 0 {
		sort.Float64s(durations)
		snap.RequestP50Ms = percentile(durations, 50)
		snap.RequestP95Ms = percentile(durations, 95)
		snap.RequestP99Ms = percentile(durations, 99)
	}
	return snap
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

func topByAvg(stats map[string]*PathStat, n int) []PathStat {
	list := make([]PathStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.TotalMs / float64(s.Count)
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].AvgMs != list[j].AvgMs {
			return list[i].AvgMs > list[j].AvgMs
		}
		return list[i].Path < list[j].Path
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}
