package obs

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func sample(id uint64, status int) Sample {
	return Sample{
		RequestID:   id,
		Variant:     "concurrent",
		Method:      "GET",
		Path:        "/",
		Status:      status,
		ServiceTime: time.Millisecond,
		Timestamp:   time.Now(),
	}
}

func TestCounterSink_ConcurrentUpdates(t *testing.T) {
	s := &CounterSink{}
	const workers = 8
	const perWorker = 100
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				status := 200
				if i%10 == 0 {
					status = 500
				}
				s.Record(sample(uint64(w*perWorker+i), status))
			}
		}(w)
	}
	wg.Wait()
	if got := s.Total(); got != workers*perWorker {
		t.Fatalf("total=%d, want %d (lost updates)", got, workers*perWorker)
	}
	if got := s.Failures(); got != workers*perWorker/10 {
		t.Fatalf("failures=%d, want %d", got, workers*perWorker/10)
	}
	if s.TotalServiceTime() != workers*perWorker*time.Millisecond {
		t.Fatalf("service time sum=%v", s.TotalServiceTime())
	}
}

func TestMultiSink(t *testing.T) {
	a, b := &CounterSink{}, &CounterSink{}
	m := MultiSink{a, b}
	m.Record(sample(1, 200))
	if a.Total() != 1 || b.Total() != 1 {
		t.Fatalf("fan-out missed a sink: %d, %d", a.Total(), b.Total())
	}
}

func TestSQLiteSink_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.db")
	s, err := NewSQLiteSink(path)
	if err != nil {
		t.Fatalf("NewSQLiteSink: %v", err)
	}
	defer s.Close()
	for i := 0; i < 5; i++ {
		s.Record(sample(uint64(i), 200))
	}
	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 5 {
		t.Fatalf("stored %d samples, want 5", n)
	}
}

func TestSQLiteSink_SchemaIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.db")
	s, err := NewSQLiteSink(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	s.Record(sample(1, 200))
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	s2, err := NewSQLiteSink(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	n, err := s2.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("reopen lost samples: %d", n)
	}
}
