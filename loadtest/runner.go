package loadtest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/labredes/httpbench/internal/obs"
)

// Mix selects the request pattern a scenario drives.
type Mix string

const (
	MixFast  Mix = "fast"  // GET /
	MixSlow  Mix = "slow"  // GET /status
	MixPost  Mix = "post"  // POST /echo
	MixMixed Mix = "mixed" // rotation of the above
)

func (m Mix) request(i int) (method, path, body string) {
	switch m {
	case MixFast:
		return "GET", "/", ""
	case MixSlow:
		return "GET", "/status", ""
	case MixPost:
		return "POST", "/echo", fmt.Sprintf("test data %d", i)
	default:
		switch i % 3 {
		case 0:
			return "POST", "/echo", fmt.Sprintf("data %d", i)
		case 1:
			return "GET", "/info", ""
		default:
			return "GET", "/", ""
		}
	}
}

// Scenario is one load shape: how many clients, how many requests each, and
// what they send.
type Scenario struct {
	Name              string `json:"name"`
	Clients           int    `json:"clients"`
	RequestsPerClient int    `json:"requests_per_client"`
	Mix               Mix    `json:"mix"`
}

func (s Scenario) TotalRequests() int {
	return s.Clients * s.RequestsPerClient
}

// Runner executes scenarios against one server address. With Concurrent set,
// each simulated client runs on its own goroutine; otherwise clients take
// turns, which is the right probe shape for the sequential server variant.
type Runner struct {
	Addr           string
	Timeout        time.Duration
	Concurrent     bool
	IdentityHexLen int
	Logger         obs.Logger
}

// Report is the raw outcome of one scenario run.
type Report struct {
	Scenario Scenario      `json:"scenario"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration_ns"`
	Results  []Result      `json:"results"`
}

// Run executes the scenario and returns every per-request result in client
// order. Within one client, requests are strictly sequential.
func (r *Runner) Run(sc Scenario) *Report {
	rep := &Report{Scenario: sc, Started: time.Now()}
	perClient := make([][]Result, sc.Clients)

	runClient := func(ci int) {
		c := &Client{Addr: r.Addr, Timeout: r.Timeout, IdentityHexLen: r.IdentityHexLen}
		out := make([]Result, 0, sc.RequestsPerClient)
		for i := 0; i < sc.RequestsPerClient; i++ {
			method, path, body := sc.Mix.request(i)
			res := c.Do(ci*sc.RequestsPerClient+i, method, path, body)
			if res.Err != "" {
				r.logf(obs.Warn, "client %d request %d failed: %s", ci, i, res.Err)
			}
			out = append(out, res)
		}
		perClient[ci] = out
	}

	if r.Concurrent {
		var wg sync.WaitGroup
		for ci := 0; ci < sc.Clients; ci++ {
			wg.Add(1)
			go func(ci int) {
				defer wg.Done()
				runClient(ci)
			}(ci)
		}
		wg.Wait()
	} else {
		for ci := 0; ci < sc.Clients; ci++ {
			runClient(ci)
		}
	}
	rep.Duration = time.Since(rep.Started)
	for _, rs := range perClient {
		rep.Results = append(rep.Results, rs...)
	}
	r.logf(obs.Info, "scenario %q: %d requests in %v", sc.Name, len(rep.Results), rep.Duration)
	return rep
}

func (r *Runner) logf(level obs.Level, format string, args ...interface{}) {
	if r.Logger == nil {
		return
	}
	r.Logger.Logf(level, format, args...)
}

// Summary condenses a report into the handful of numbers the comparison
// needs. Heavier statistics live in the external analysis scripts.
type Summary struct {
	Scenario    string        `json:"scenario"`
	Total       int           `json:"total"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	SuccessRate float64       `json:"success_rate"`
	Mean        time.Duration `json:"mean_latency_ns"`
	Median      time.Duration `json:"median_latency_ns"`
	Min         time.Duration `json:"min_latency_ns"`
	Max         time.Duration `json:"max_latency_ns"`
	P95         time.Duration `json:"p95_latency_ns"`
	Throughput  float64       `json:"throughput_rps"`
}

func (rep *Report) Summary() Summary {
	s := Summary{Scenario: rep.Scenario.Name, Total: len(rep.Results)}
	if s.Total == 0 {
		return s
	}
	lat := make([]time.Duration, 0, s.Total)
	for _, r := range rep.Results {
		if r.OK {
			s.Succeeded++
		} else {
			s.Failed++
		}
		lat = append(lat, r.Latency)
	}
	sort.Slice(lat, func(i, j int) bool { return lat[i] < lat[j] })
	var sum time.Duration
	for _, d := range lat {
		sum += d
	}
	s.SuccessRate = float64(s.Succeeded) / float64(s.Total)
	s.Mean = sum / time.Duration(s.Total)
	s.Median = lat[s.Total/2]
	s.Min = lat[0]
	s.Max = lat[s.Total-1]
	s.P95 = lat[percentileIndex(s.Total, 95)]
	if secs := rep.Duration.Seconds(); secs > 0 {
		s.Throughput = float64(s.Total) / secs
	}
	return s
}

func percentileIndex(n, pct int) int {
	i := n*pct/100 - 1
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// WriteJSON saves the report for the external analysis layer.
func (rep *Report) WriteJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("loadtest: create report: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("loadtest: encode report: %w", err)
	}
	return nil
}
