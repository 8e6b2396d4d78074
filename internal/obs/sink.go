package obs

import (
	"sync/atomic"
	"time"
)

// Sample is one completed request/response cycle as seen by the server.
// ServiceTime runs from request-read completion to response-write completion,
// excluding network transit.
type Sample struct {
	RequestID   uint64
	Variant     string
	Method      string
	Path        string
	Status      int
	ServiceTime time.Duration
	Timestamp   time.Time
}

// Sink consumes per-request samples. The server calls Record synchronously
// once per request; implementations decide whether to aggregate, persist or
// drop. A Sink must be safe for concurrent use: under the concurrent serve
// variant multiple workers record at once.
type Sink interface {
	Record(Sample)
}

// NopSink discards all samples.
type NopSink struct{}

func (NopSink) Record(Sample) {}

// CounterSink keeps process-wide totals with atomic updates, so counts stay
// exact under concurrent workers.
type CounterSink struct {
	total       atomic.Uint64
	failures    atomic.Uint64
	serviceNano atomic.Int64
}

func (c *CounterSink) Record(s Sample) {
	c.total.Add(1)
	if s.Status >= 400 {
		c.failures.Add(1)
	}
	c.serviceNano.Add(int64(s.ServiceTime))
}

func (c *CounterSink) Total() uint64    { return c.total.Load() }
func (c *CounterSink) Failures() uint64 { return c.failures.Load() }

// TotalServiceTime is the sum of all recorded service times.
func (c *CounterSink) TotalServiceTime() time.Duration {
	return time.Duration(c.serviceNano.Load())
}

// MultiSink fans a sample out to several sinks.
type MultiSink []Sink

func (m MultiSink) Record(s Sample) {
	for _, sink := range m {
		sink.Record(s)
	}
}
