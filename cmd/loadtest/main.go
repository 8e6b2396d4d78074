// Command loadtest drives a bench server and prints the latency/throughput
// summary for one scenario.
//
//	loadtest -addr 127.0.0.1:8080 -clients 10 -n 20 -mix mixed -concurrent -out results.json
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/labredes/httpbench/httpd"
	"github.com/labredes/httpbench/internal/obs"
	"github.com/labredes/httpbench/loadtest"
)

func main() {
	var (
		addr       = flag.String("addr", "127.0.0.1:8080", "server address host:port")
		clients    = flag.Int("clients", 1, "number of simulated clients")
		requests   = flag.Int("n", 10, "requests per client")
		mix        = flag.String("mix", "fast", "request mix: fast|slow|post|mixed")
		name       = flag.String("name", "adhoc", "scenario name")
		concurrent = flag.Bool("concurrent", false, "run clients in parallel")
		algo       = flag.String("algo", "sha1", "expected identity digest: md5|sha1")
		timeout    = flag.Duration("timeout", 5*time.Second, "per-request timeout")
		out        = flag.String("out", "", "write full JSON report to this file")
	)
	flag.Parse()

	a := httpd.Algorithm(*algo)
	if !a.Valid() {
		fmt.Fprintf(os.Stderr, "unknown -algo %q\n", *algo)
		os.Exit(1)
	}
	switch loadtest.Mix(*mix) {
	case loadtest.MixFast, loadtest.MixSlow, loadtest.MixPost, loadtest.MixMixed:
	default:
		fmt.Fprintf(os.Stderr, "unknown -mix %q\n", *mix)
		os.Exit(1)
	}

	r := &loadtest.Runner{
		Addr:           *addr,
		Timeout:        *timeout,
		Concurrent:     *concurrent,
		IdentityHexLen: a.HexLen(),
		Logger:         obs.NewStdLogger("loadtest", obs.Info),
	}
	rep := r.Run(loadtest.Scenario{
		Name:              *name,
		Clients:           *clients,
		RequestsPerClient: *requests,
		Mix:               loadtest.Mix(*mix),
	})
	sum := rep.Summary()

	fmt.Printf("scenario:     %s\n", sum.Scenario)
	fmt.Printf("requests:     %d (%d ok, %d failed)\n", sum.Total, sum.Succeeded, sum.Failed)
	fmt.Printf("success rate: %.2f%%\n", sum.SuccessRate*100)
	fmt.Printf("latency:      mean=%v median=%v min=%v max=%v p95=%v\n",
		sum.Mean, sum.Median, sum.Min, sum.Max, sum.P95)
	fmt.Printf("throughput:   %.2f req/s\n", sum.Throughput)

	if *out != "" {
		if err := rep.WriteJSON(*out); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("report:       %s\n", *out)
	}
	if sum.Failed > 0 {
		os.Exit(2)
	}
}
