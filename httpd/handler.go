package httpd

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

// Handler maps one parsed request to a response. Implementations must not
// retain the request past the call.
type Handler interface {
	Serve(*Request) *Response
}

type HandlerFunc func(*Request) *Response

func (f HandlerFunc) Serve(r *Request) *Response {
	return f(r)
}

// AllowedMethods is the Allow header value for OPTIONS and 405 responses.
const AllowedMethods = "GET, HEAD, POST, OPTIONS"

// BenchHandler serves the bench endpoint set. Safe for concurrent use; the
// request counter is atomic.
type BenchHandler struct {
	Registration string
	StudentName  string
	Algorithm    Algorithm

	started  time.Time
	requests atomic.Uint64
}

func NewBenchHandler(cfg Config) *BenchHandler {
	return &BenchHandler{
		Registration: cfg.Registration,
		StudentName:  cfg.StudentName,
		Algorithm:    cfg.Algorithm,
		started:      time.Now(),
	}
}

// Serve dispatches on the closed method set. Every branch returns a
// response; the serve loop runs each through the codec so Content-Length,
// Date and the identity header are always present.
func (h *BenchHandler) Serve(r *Request) *Response {
	h.requests.Add(1)
	switch r.Method {
	case MethodGet:
		return h.serveGet(r)
	case MethodHead:
		// The codec omits the body for HEAD while keeping the
		// Content-Length a GET would have carried.
		return h.serveGet(r)
	case MethodPost:
		return h.servePost(r)
	case MethodOptions:
		resp := NewResponse(200)
		resp.Header.Set("Allow", AllowedMethods)
		resp.SetTextBody("")
		return resp
	default:
		resp := errorResponse(405, fmt.Sprintf("method %q is not supported", r.RawMethod))
		resp.Header.Set("Allow", AllowedMethods)
		return resp
	}
}

func (h *BenchHandler) serveGet(r *Request) *Response {
	switch r.Path {
	case "/":
		resp := NewResponse(200)
		resp.SetHTMLBody(fmt.Sprintf(indexPage, h.requests.Load(), h.uptime().Seconds()))
		return resp
	case "/status":
		resp := NewResponse(200)
		resp.SetJSONBody(map[string]any{
			"server":            "httpbench/1.0",
			"status":            "running",
			"uptime_seconds":    h.uptime().Seconds(),
			"requests_served":   h.requests.Load(),
			"timestamp":         time.Now().Unix(),
			"supported_methods": []string{"GET", "HEAD", "POST", "OPTIONS"},
		})
		return resp
	case "/info":
		resp := NewResponse(200)
		resp.SetJSONBody(map[string]any{
			"project":      "sequential vs concurrent web server bench",
			"registration": h.Registration,
			"student":      h.StudentName,
			"algorithm":    string(h.Algorithm),
			"station_hash": StationHash(h.Registration, h.StudentName, h.Algorithm),
		})
		return resp
	case "/time":
		now := time.Now()
		resp := NewResponse(200)
		resp.SetJSONBody(map[string]any{
			"timestamp":      now.Unix(),
			"datetime":       now.Format("2006-01-02 15:04:05"),
			"uptime_seconds": h.uptime().Seconds(),
		})
		return resp
	default:
		return errorResponse(404, fmt.Sprintf("path %q not found", r.Path))
	}
}

func (h *BenchHandler) servePost(r *Request) *Response {
	switch r.Path {
	case "/echo":
		if len(r.Body) == 0 {
			return errorResponse(400, "request body is empty")
		}
		resp := NewResponse(200)
		resp.SetBody(r.Body, "text/plain; charset=utf-8")
		return resp
	case "/hash":
		if len(r.Body) == 0 {
			return errorResponse(400, "request body required")
		}
		m := md5.Sum(r.Body)
		s := sha1.Sum(r.Body)
		resp := NewResponse(200)
		resp.SetJSONBody(map[string]any{
			"md5":    hex.EncodeToString(m[:]),
			"sha1":   hex.EncodeToString(s[:]),
			"length": len(r.Body),
		})
		return resp
	case "/submit":
		resp := NewResponse(201)
		resp.SetTextBody(fmt.Sprintf("accepted %d bytes", len(r.Body)))
		return resp
	default:
		resp := errorResponse(405, fmt.Sprintf("POST is not supported for %q", r.Path))
		resp.Header.Set("Allow", AllowedMethods)
		return resp
	}
}

func (h *BenchHandler) uptime() time.Duration {
	return time.Since(h.started)
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>httpbench</title><meta charset="utf-8"></head>
<body>
<h1>Sequential and Concurrent Web Server</h1>
<p>Raw TCP socket HTTP/1.1 server, no framework.</p>
<p>Requests served: %d</p>
<p>Uptime: %.2f seconds</p>
<ul>
<li>GET / - this page</li>
<li>GET /status - server status</li>
<li>GET /info - station info</li>
<li>GET /time - current timestamp</li>
<li>POST /echo - echo the request body</li>
<li>POST /hash - md5/sha1 of the request body</li>
<li>POST /submit - simulated resource creation</li>
</ul>
</body>
</html>
`
