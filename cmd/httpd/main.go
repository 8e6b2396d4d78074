// Command httpd runs the bench server in either servicing discipline.
//
//	httpd -variant sequential -addr 0.0.0.0:8080
//	httpd -variant concurrent -workers 16 -db samples.db
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labredes/httpbench/httpd"
	"github.com/labredes/httpbench/internal/obs"
)

func main() {
	var (
		configPath = flag.String("config", "", "JSON config file (optional)")
		variant    = flag.String("variant", "sequential", "serving discipline: sequential|concurrent")
		addr       = flag.String("addr", "", "listen address host:port (overrides config)")
		workers    = flag.Int("workers", 0, "worker pool size for the concurrent variant (overrides config)")
		algo       = flag.String("algo", "", "identity digest: md5|sha1 (overrides config)")
		dbPath     = flag.String("db", "", "sqlite file for per-request samples (optional)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	cfg, err := httpd.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *addr != "" {
		host, portStr, err := net.SplitHostPort(*addr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad -addr %q: %v\n", *addr, err)
			os.Exit(1)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad port in -addr %q\n", *addr)
			os.Exit(1)
		}
		cfg.Host, cfg.Port = host, port
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *algo != "" {
		cfg.Algorithm = httpd.Algorithm(*algo)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var v httpd.Variant
	switch *variant {
	case "sequential":
		v = httpd.Sequential
	case "concurrent":
		v = httpd.Concurrent
	default:
		fmt.Fprintf(os.Stderr, "unknown -variant %q (want sequential or concurrent)\n", *variant)
		os.Exit(1)
	}

	minLevel := obs.Info
	if *verbose {
		minLevel = obs.Debug
	}
	logger := obs.NewStdLogger(*variant, minLevel)

	counters := &obs.CounterSink{}
	sink := obs.MultiSink{counters}
	if *dbPath != "" {
		sq, err := obs.NewSQLiteSink(*dbPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer sq.Close()
		sink = append(sink, sq)
	}

	s := httpd.New(cfg, v)
	s.Logger = logger
	s.Sink = sink

	errc := make(chan error, 1)
	go func() { errc <- s.ListenAndServe() }()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		// Bind failure or a fatal accept error.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	case sig := <-sigc:
		logger.Logf(obs.Info, "received %v, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			logger.Logf(obs.Warn, "shutdown: %v", err)
		}
	}
	logger.Logf(obs.Info, "served %d requests (%d failed)", counters.Total(), counters.Failures())
}
