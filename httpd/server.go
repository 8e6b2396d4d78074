package httpd

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labredes/httpbench/httpd/internal/http1"
	"github.com/labredes/httpbench/internal/obs"
)

// Variant selects the servicing discipline.
type Variant int

const (
	// Sequential services one connection fully before accepting the next.
	// Concurrency is bounded to 1 by construction.
	Sequential Variant = iota
	// Concurrent accepts on a dedicated goroutine and hands connections to
	// a fixed pool of workers through a bounded queue.
	Concurrent
)

func (v Variant) String() string {
	if v == Sequential {
		return "sequential"
	}
	return "concurrent"
}

const rfc7231Time = "Mon, 02 Jan 2006 15:04:05 GMT"

// Server owns the listening socket and runs one of the two serve loops. The
// zero value is not usable; construct with New.
type Server struct {
	Config  Config
	Variant Variant
	Handler Handler
	Logger  obs.Logger
	Sink    obs.Sink

	mu       sync.Mutex
	ln       net.Listener
	closed   atomic.Bool
	inFlight sync.WaitGroup
	reqID    atomic.Uint64
}

// New builds a server with the bench handler and the given variant. Logger
// and Sink default to no-ops when nil.
func New(cfg Config, v Variant) *Server {
	return &Server{
		Config:  cfg,
		Variant: v,
		Handler: NewBenchHandler(cfg),
		Logger:  obs.NopLogger{},
		Sink:    obs.NopSink{},
	}
}

// ListenAndServe binds the configured address and runs the serve loop. A
// bind failure is fatal and returned immediately.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Config.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve runs the variant's accept loop on l until Shutdown closes it.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	s.ln = l
	s.mu.Unlock()
	defer l.Close()

	s.logf(obs.Info, "%s server listening on %s", s.Variant, l.Addr())
	if s.Variant == Sequential {
		return s.serveSequential(l)
	}
	return s.serveConcurrent(l)
}

// serveSequential accepts and services on a single goroutine: the next
// connection is not accepted until the current one is fully done. No two
// operations ever interleave.
func (s *Server) serveSequential(l net.Listener) error {
	for {
		c, err := l.Accept()
		if err != nil {
			return s.acceptErr(err)
		}
		s.inFlight.Add(1)
		s.serveConn(c)
	}
}

// serveConcurrent runs a fixed worker pool draining a bounded queue. When
// every worker is busy and the queue is full, the accept loop blocks and
// further connections wait in the OS accept queue; capacity is an explicit
// configuration value, not emergent behavior.
func (s *Server) serveConcurrent(l net.Listener) error {
	conns := make(chan net.Conn, s.Config.Backlog)
	var workers sync.WaitGroup
	for i := 0; i < s.Config.Workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for c := range conns {
				s.serveConn(c)
			}
		}()
	}
	var acceptErr error
	for {
		c, err := l.Accept()
		if err != nil {
			acceptErr = s.acceptErr(err)
			break
		}
		s.inFlight.Add(1)
		conns <- c
	}
	close(conns)
	workers.Wait()
	return acceptErr
}

func (s *Server) acceptErr(err error) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	s.logf(obs.Error, "accept failed: %v", err)
	return err
}

// serveConn applies the per-connection protocol shared by both variants:
// read request, handle, build and write response, then keep the connection
// or close it per the request's Connection header and protocol version.
// Exactly one goroutine owns the connection for its entire lifetime.
func (s *Server) serveConn(c net.Conn) {
	defer s.inFlight.Done()
	defer c.Close()
	br := bufio.NewReader(c)
	bw := bufio.NewWriter(c)
	remote := c.RemoteAddr().String()
	for {
		if t := s.Config.ReadTimeout; t > 0 {
			_ = c.SetReadDeadline(time.Now().Add(t))
		}
		rr := &http1.Reader{BR: br, MaxBodyBytes: s.Config.MaxBodyBytes}
		pr, err := rr.ReadRequest()
		received := time.Now()
		if err != nil {
			s.handleReadError(c, bw, remote, pr, err, received)
			return
		}
		req := &Request{
			Method:     ParseMethod(pr.Method),
			RawMethod:  pr.Method,
			Path:       pr.RequestURI,
			Proto:      pr.Proto,
			Header:     Header(pr.Header),
			Body:       pr.Body,
			RemoteAddr: remote,
			Received:   received,
		}
		keepAlive := wantKeepAlive(req)

		resp := s.Handler.Serve(req)
		if err := s.writeResponse(c, bw, resp, req.Path, remote, received, keepAlive, req.Method == MethodHead); err != nil {
			// Socket already broken: nothing more can be said to this
			// peer, so log and drop.
			s.logf(obs.Warn, "write to %s failed: %v", remote, err)
			return
		}
		s.record(req.Method.String(), req.Path, resp.Status, received)
		s.logf(obs.Debug, "%s %s -> %d (%s)", req.RawMethod, req.Path, resp.Status, remote)
		if !keepAlive {
			return
		}
	}
}

// handleReadError ends the connection after a failed read. Parse failures
// still get a well-formed error response; connection faults (peer gone,
// deadline hit) are logged and dropped without a response attempt.
func (s *Server) handleReadError(c net.Conn, bw *bufio.Writer, remote string, pr *http1.ParsedRequest, err error, received time.Time) {
	status := 0
	switch {
	case errors.Is(err, http1.ErrBodyTooLarge):
		status = 413
	case errors.Is(err, http1.ErrMalformedRequestLine),
		errors.Is(err, http1.ErrHeaderParse),
		errors.Is(err, http1.ErrIncompleteBody),
		errors.Is(err, http1.ErrHeaderTooLarge):
		status = 400
	default:
		// Peer closed or timed out mid-read. A partial read never
		// produces a response.
		s.logf(obs.Debug, "connection from %s dropped: %v", remote, err)
		return
	}
	path, method := "", "UNSUPPORTED"
	if pr != nil {
		path, method = pr.RequestURI, pr.Method
	}
	resp := errorResponse(status, err.Error())
	if werr := s.writeResponse(c, bw, resp, path, remote, received, false, false); werr != nil {
		s.logf(obs.Warn, "error response to %s failed: %v", remote, werr)
		return
	}
	s.record(method, path, status, received)
	s.logf(obs.Info, "bad request from %s: %v", remote, err)
}

// writeResponse runs every response, success or error, through the codec so
// Content-Length, Content-Type, Date and the identity header are always
// present on the wire.
func (s *Server) writeResponse(c net.Conn, bw *bufio.Writer, resp *Response, path, remote string, received time.Time, keepAlive, omitBody bool) error {
	if resp.Header == nil {
		resp.Header = Header{}
	}
	if resp.Header.Get("Content-Type") == "" {
		resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	}
	resp.Header.Set("Server", "httpbench/1.0")
	resp.Header.Set("Date", time.Now().UTC().Format(rfc7231Time))
	identity := Digest(s.Config.Algorithm, hostOnly(remote), path, received)
	if t := s.Config.WriteTimeout; t > 0 {
		_ = c.SetWriteDeadline(time.Now().Add(t))
	}
	if err := http1.WriteResponse(bw, resp.Status, resp.Reason, resp.Header, resp.Body, identity, keepAlive, omitBody); err != nil {
		return err
	}
	return bw.Flush()
}

func (s *Server) record(method, path string, status int, received time.Time) {
	s.Sink.Record(obs.Sample{
		RequestID:   s.reqID.Add(1),
		Variant:     s.Variant.String(),
		Method:      method,
		Path:        path,
		Status:      status,
		ServiceTime: time.Since(received),
		Timestamp:   received,
	})
}

// Shutdown closes the listening socket and waits for in-flight connections
// to finish, up to ctx's deadline. There is no cross-connection cancellation;
// accepted work is allowed to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closed.Store(true)
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln != nil {
		_ = ln.Close()
	}
	done := make(chan struct{})
	go func() {
		s.inFlight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) logf(level obs.Level, format string, args ...interface{}) {
	if s.Logger == nil {
		return
	}
	s.Logger.Logf(level, format, args...)
}

// wantKeepAlive applies the HTTP/1.1 default: keep the connection unless the
// request says close. HTTP/1.0 closes unless keep-alive is asked for.
func wantKeepAlive(r *Request) bool {
	connVal := strings.ToLower(r.Header.Get("Connection"))
	if r.Proto == "HTTP/1.1" {
		return connVal != "close"
	}
	return connVal == "keep-alive"
}

func hostOnly(addr string) string {
	if h, _, err := net.SplitHostPort(addr); err == nil {
		return h
	}
	return addr
}
