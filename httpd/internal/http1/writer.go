package http1

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// IdentityHeader carries the per-request identity tag. It is always the last
// header on the wire so its presence is easy to eyeball in captures.
const IdentityHeader = "X-Custom-ID"

// Headers the writer places itself, in this order, before any extras.
var orderedHeaders = []string{"Server", "Date", "Content-Type"}

// WriteResponse serializes one response. Content-Length is always computed
// from len(body), never taken from hdr, so the wire stays correct whatever
// the handler set. With omitBody the headers (including the Content-Length
// the body would have had) are written but the body bytes are not; that is
// the HEAD path.
func WriteResponse(bw *bufio.Writer, status int, reason string, hdr map[string][]string, body []byte, identity string, keepAlive, omitBody bool) error {
	if reason == "" {
		reason = defaultReason(status)
	}
	if _, err := fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", status, reason); err != nil {
		return err
	}
	for _, k := range orderedHeaders {
		for _, v := range hdr[k] {
			if err := writeHeaderLine(bw, k, v); err != nil {
				return err
			}
		}
	}
	if err := writeHeaderLine(bw, "Content-Length", strconv.Itoa(len(body))); err != nil {
		return err
	}
	for _, k := range sortedExtraKeys(hdr) {
		for _, v := range hdr[k] {
			if err := writeHeaderLine(bw, k, v); err != nil {
				return err
			}
		}
	}
	connVal := "close"
	if keepAlive {
		connVal = "keep-alive"
	}
	if err := writeHeaderLine(bw, "Connection", connVal); err != nil {
		return err
	}
	if identity != "" {
		if err := writeHeaderLine(bw, IdentityHeader, identity); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(bw, "\r\n"); err != nil {
		return err
	}
	if omitBody || len(body) == 0 {
		return nil
	}
	_, err := bw.Write(body)
	return err
}

func writeHeaderLine(bw *bufio.Writer, k, v string) error {
	_, err := fmt.Fprintf(bw, "%s: %s\r\n", k, sanitizeHeaderValue(v))
	return err
}

// sortedExtraKeys returns the caller-supplied header keys that the writer
// does not place itself, sorted for a deterministic wire layout.
func sortedExtraKeys(hdr map[string][]string) []string {
	var keys []string
	for k := range hdr {
		if k == "Content-Length" || k == "Connection" || k == IdentityHeader {
			continue
		}
		if isOrdered(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isOrdered(k string) bool {
	for _, o := range orderedHeaders {
		if k == o {
			return true
		}
	}
	return false
}

func defaultReason(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 204:
		return "No Content"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 408:
		return "Request Timeout"
	case 413:
		return "Payload Too Large"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	default:
		return "Unknown"
	}
}

func sanitizeHeaderValue(v string) string {
	if v == "" {
		return v
	}
	// Remove CR/LF and other control chars except HTAB
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\r' || c == '\n' || c == 0x7f {
			continue
		}
		if c < 0x20 && c != '\t' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
