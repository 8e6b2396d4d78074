// Package loadtest is the companion load-testing client: it drives the
// bench server over raw TCP, one connection per request, and records
// wall-clock round-trip time, status and success per request. The server is
// treated strictly as a black-box HTTP endpoint.
package loadtest

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

// Result is one completed probe.
type Result struct {
	ID        int           `json:"id"`
	Method    string        `json:"method"`
	Path      string        `json:"path"`
	Start     time.Time     `json:"start"`
	Latency   time.Duration `json:"latency_ns"`
	Status    int           `json:"status"`
	OK        bool          `json:"ok"`
	Err       string        `json:"error,omitempty"`
	BodyBytes int           `json:"body_bytes"`
}

// Client issues single-shot HTTP/1.1 requests. Every request opens a fresh
// connection and sends Connection: close, so the measured latency always
// includes connection setup — the same discipline for both server variants.
type Client struct {
	Addr    string
	Timeout time.Duration
	// IdentityHexLen is the expected X-Custom-ID length in hex chars
	// (32 for md5, 40 for sha1). Zero skips the length check but the
	// header must still be present and hex.
	IdentityHexLen int
}

// Do sends one request and returns its result. Errors are captured in the
// result rather than returned; a load run never stops on a single failure.
func (c *Client) Do(id int, method, path, body string) Result {
	res := Result{ID: id, Method: method, Path: path, Start: time.Now()}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	conn, err := net.DialTimeout("tcp", c.Addr, timeout)
	if err != nil {
		res.Latency = time.Since(res.Start)
		res.Err = err.Error()
		return res
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	if err := writeRequest(conn, c.Addr, method, path, body); err != nil {
		res.Latency = time.Since(res.Start)
		res.Err = err.Error()
		return res
	}
	status, hdr, n, err := readResponse(bufio.NewReader(conn))
	res.Latency = time.Since(res.Start)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.Status = status
	res.BodyBytes = n
	if err := c.checkIdentity(hdr); err != nil {
		res.Err = err.Error()
		return res
	}
	res.OK = status >= 200 && status < 400
	return res
}

func writeRequest(w io.Writer, host, method, path, body string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s HTTP/1.1\r\n", method, path)
	fmt.Fprintf(&sb, "Host: %s\r\n", host)
	sb.WriteString("User-Agent: httpbench-loadtest/1.0\r\n")
	sb.WriteString("Connection: close\r\n")
	if body != "" {
		fmt.Fprintf(&sb, "Content-Length: %d\r\n", len(body))
		sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	}
	sb.WriteString("\r\n")
	sb.WriteString(body)
	_, err := io.WriteString(w, sb.String())
	return err
}

// readResponse consumes the status line, headers and Content-Length body.
func readResponse(br *bufio.Reader) (int, textproto.MIMEHeader, int, error) {
	tp := textproto.NewReader(br)
	statusLine, err := tp.ReadLine()
	if err != nil {
		return 0, nil, 0, fmt.Errorf("read status line: %w", err)
	}
	parts := strings.SplitN(statusLine, " ", 3)
	if len(parts) < 2 {
		return 0, nil, 0, fmt.Errorf("bad status line %q", statusLine)
	}
	status, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, nil, 0, fmt.Errorf("bad status code in %q", statusLine)
	}
	hdr, err := tp.ReadMIMEHeader()
	if err != nil {
		return 0, nil, 0, fmt.Errorf("read headers: %w", err)
	}
	n := 0
	if v := hdr.Get("Content-Length"); v != "" {
		cl, err := strconv.Atoi(v)
		if err != nil || cl < 0 {
			return 0, nil, 0, fmt.Errorf("bad Content-Length %q", v)
		}
		if cl > 0 {
			body := make([]byte, cl)
			if _, err := io.ReadFull(br, body); err != nil {
				return 0, nil, 0, fmt.Errorf("short body: %w", err)
			}
			n = cl
		}
	}
	return status, hdr, n, nil
}

// checkIdentity enforces the collaborator contract: every response must
// carry a well-formed X-Custom-ID hex digest.
func (c *Client) checkIdentity(hdr textproto.MIMEHeader) error {
	id := hdr.Get("X-Custom-Id")
	if id == "" {
		return fmt.Errorf("response missing X-Custom-ID")
	}
	if _, err := hex.DecodeString(id); err != nil {
		return fmt.Errorf("X-Custom-ID %q is not hex", id)
	}
	if c.IdentityHexLen > 0 && len(id) != c.IdentityHexLen {
		return fmt.Errorf("X-Custom-ID length %d, want %d", len(id), c.IdentityHexLen)
	}
	return nil
}
