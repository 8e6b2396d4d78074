// Package httpd implements a minimal HTTP/1.1 server directly on TCP
// sockets, in two servicing disciplines: a sequential loop that handles one
// connection at a time, and a concurrent loop that dispatches accepted
// connections to a fixed worker pool. The two share the same parser,
// handler and response builder, so any performance difference between them
// comes from the concurrency strategy alone.
//
// Every response carries Content-Length (computed from the actual body),
// Content-Type, Date and an X-Custom-ID identity tag: an md5 or sha1 digest
// over the client address, request path and second-truncated receipt time.
//
// Quick start:
//
//	cfg := httpd.DefaultConfig()
//	s := httpd.New(cfg, httpd.Concurrent)
//	if err := s.ListenAndServe(); err != nil {
//		log.Fatal(err)
//	}
package httpd
