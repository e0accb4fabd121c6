// Package profiler - lightweight operation timing for detection runs.
package profiler

import (
	"sort"
	"sync"
	"time"
)

// TimeTracker accumulates timing statistics for one named operation.
type TimeTracker struct {
	Name  string
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
	Count int64
}

// Avg returns the mean duration of the recorded operations.
func (t *TimeTracker) Avg() time.Duration {
	if t.Count == 0 {
		return 0
	}
	return t.Total / time.Duration(t.Count)
}

// Stopwatch collects per-operation timings across a run. It is safe for
// concurrent use, so worker goroutines can record into a shared instance.
type Stopwatch struct {
	mu     sync.Mutex
	starts time.Time
	ops    map[string]*TimeTracker
}

// NewStopwatch creates an empty stopwatch.
func NewStopwatch() *Stopwatch {
	return &Stopwatch{starts: time.Now(), ops: make(map[string]*TimeTracker)}
}

// StartOperation begins timing a named operation and returns the function
// that records its completion.
//
// Arguments:
// - name: The operation label, e.g. "load" or "scan"
//
// Returns:
// - A function to call when the operation completes
func (s *Stopwatch) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		s.record(name, time.Since(start))
	}
}

func (s *Stopwatch) record(name string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracker, ok := s.ops[name]
	if !ok {
		tracker = &TimeTracker{Name: name, Min: d, Max: d}
		s.ops[name] = tracker
	}
	tracker.Total += d
	tracker.Count++
	if d < tracker.Min {
		tracker.Min = d
	}
	if d > tracker.Max {
		tracker.Max = d
	}
}

// Elapsed returns the wall time since the stopwatch was created.
func (s *Stopwatch) Elapsed() time.Duration {
	return time.Since(s.starts)
}

// Operations returns a snapshot of every tracker, sorted by name for
// stable reporting.
func (s *Stopwatch) Operations() []TimeTracker {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TimeTracker, 0, len(s.ops))
	for _, t := range s.ops {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
