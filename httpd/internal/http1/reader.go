package http1

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// Parse failures map to HTTP status codes in the serve loop: the first three
// become 400, ErrBodyTooLarge becomes 413.
var (
	ErrMalformedRequestLine = errors.New("http1: malformed request line")
	ErrHeaderParse          = errors.New("http1: malformed header line")
	ErrIncompleteBody       = errors.New("http1: connection closed before body was complete")
	ErrHeaderTooLarge       = errors.New("http1: header section too large")
	ErrBodyTooLarge         = errors.New("http1: declared body exceeds limit")
)

// ParsedRequest is a minimal representation parsed from the wire. Body is
// fully read before the request is handed to the handler; a request owns its
// bytes for the whole request/response cycle.
type ParsedRequest struct {
	Method        string
	RequestURI    string
	Proto         string
	Header        map[string][]string
	ContentLength int64
	Body          []byte
}

type Reader struct {
	BR *bufio.Reader
	// MaxLineBytes bounds a single request or header line, MaxHeaderBytes
	// bounds the whole header section, MaxBodyBytes bounds the declared
	// Content-Length. Zero means the package default.
	MaxLineBytes   int
	MaxHeaderBytes int
	MaxBodyBytes   int64
}

const (
	defaultMaxLineBytes   = 8 << 10
	defaultMaxHeaderBytes = 64 << 10
)

// ReadRequest reads one request from the stream: request line, headers up to
// the blank line, then exactly Content-Length body bytes.
func (r *Reader) ReadRequest() (*ParsedRequest, error) {
	line, err := r.readLine()
	if err != nil {
		if err == io.ErrShortBuffer {
			return nil, ErrHeaderTooLarge
		}
		return nil, err
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return nil, ErrMalformedRequestLine
	}
	method, uri, proto := parts[0], parts[1], parts[2]
	if !strings.HasPrefix(proto, "HTTP/1.") {
		return nil, ErrMalformedRequestLine
	}
	hdr, err := r.readHeaders()
	if err != nil {
		return nil, err
	}
	var cl int64
	if v := getHeader(hdr, "Content-Length"); v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || n < 0 {
			return nil, ErrHeaderParse
		}
		cl = n
	}
	if max := r.MaxBodyBytes; max > 0 && cl > max {
		// Request line and headers are intact; hand them back so the
		// caller can build a well-formed 413 for this request.
		return &ParsedRequest{
			Method:        method,
			RequestURI:    uri,
			Proto:         proto,
			Header:        hdr,
			ContentLength: cl,
		}, ErrBodyTooLarge
	}
	var body []byte
	if cl > 0 {
		body = make([]byte, cl)
		if _, err := io.ReadFull(r.BR, body); err != nil {
			return nil, ErrIncompleteBody
		}
	}
	return &ParsedRequest{
		Method:        method,
		RequestURI:    uri,
		Proto:         proto,
		Header:        hdr,
		ContentLength: cl,
		Body:          body,
	}, nil
}

func (r *Reader) readHeaders() (map[string][]string, error) {
	h := make(map[string][]string)
	total := 0
	limit := r.MaxHeaderBytes
	if limit <= 0 {
		limit = defaultMaxHeaderBytes
	}
	for {
		line, err := r.readLine()
		if err != nil {
			if err == io.ErrShortBuffer {
				return nil, ErrHeaderTooLarge
			}
			return nil, err
		}
		if line == "" {
			break
		}
		total += len(line)
		if total > limit {
			return nil, ErrHeaderTooLarge
		}
		i := strings.IndexByte(line, ':')
		if i <= 0 {
			return nil, ErrHeaderParse
		}
		k := strings.TrimSpace(line[:i])
		v := strings.TrimSpace(line[i+1:])
		if k == "" {
			return nil, ErrHeaderParse
		}
		addHeader(h, k, v)
	}
	return h, nil
}

func (r *Reader) readLine() (string, error) {
	limit := r.MaxLineBytes
	if limit <= 0 {
		limit = defaultMaxLineBytes
	}
	var sb strings.Builder
	for {
		b, err := r.BR.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\n' {
			break
		}
		if b != '\r' {
			sb.WriteByte(b)
		}
		if sb.Len() > limit {
			return "", io.ErrShortBuffer
		}
	}
	return sb.String(), nil
}

func addHeader(h map[string][]string, k, v string) {
	hk := canonicalHeaderKey(k)
	h[hk] = append(h[hk], v)
}

func getHeader(h map[string][]string, k string) string {
	hk := canonicalHeaderKey(k)
	if vv, ok := h[hk]; ok && len(vv) > 0 {
		return vv[0]
	}
	return ""
}

// Very small canonicalizer to avoid importing textproto here.
func canonicalHeaderKey(s string) string {
	b := []byte(strings.ToLower(s))
	upper := true
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			if upper {
				b[i] = byte(c - 'a' + 'A')
			}
			upper = false
			continue
		}
		upper = c == '-'
	}
	return string(b)
}
