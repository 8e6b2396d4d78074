package http1

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func buildResponse(t *testing.T, status int, hdr map[string][]string, body []byte, identity string, keepAlive, omitBody bool) string {
	t.Helper()
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	if err := WriteResponse(bw, status, "", hdr, body, identity, keepAlive, omitBody); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return buf.String()
}

func TestWriter_StatusLineAndBody(t *testing.T) {
	out := buildResponse(t, 200, map[string][]string{"Content-Type": {"text/plain"}}, []byte("hi"), "abc123", false, false)
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("status line wrong: %q", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\nhi") {
		t.Fatalf("body not terminated correctly: %q", out)
	}
	if !strings.Contains(out, "Content-Length: 2\r\n") {
		t.Fatalf("missing computed Content-Length: %q", out)
	}
}

func TestWriter_ContentLengthNeverTrusted(t *testing.T) {
	hdr := map[string][]string{"Content-Length": {"999"}}
	out := buildResponse(t, 200, hdr, []byte("abc"), "", false, false)
	if strings.Contains(out, "999") {
		t.Fatalf("caller Content-Length leaked: %q", out)
	}
	if !strings.Contains(out, "Content-Length: 3\r\n") {
		t.Fatalf("computed Content-Length missing: %q", out)
	}
}

func TestWriter_IdentityHeaderLast(t *testing.T) {
	hdr := map[string][]string{
		"Content-Type": {"text/html"},
		"Allow":        {"GET, HEAD"},
		"Date":         {"Mon, 01 Jan 2024 00:00:00 GMT"},
	}
	out := buildResponse(t, 200, hdr, nil, "deadbeef", true, false)
	head, _, ok := strings.Cut(out, "\r\n\r\n")
	if !ok {
		t.Fatalf("no header terminator: %q", out)
	}
	lines := strings.Split(head, "\r\n")
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, IdentityHeader+": deadbeef") {
		t.Fatalf("identity header not last: %q", last)
	}
}

func TestWriter_DeterministicOrder(t *testing.T) {
	hdr := map[string][]string{
		"Zeta-Header": {"z"},
		"Allow":       {"a"},
		"Date":        {"d"},
	}
	first := buildResponse(t, 200, hdr, []byte("x"), "id", false, false)
	for i := 0; i < 10; i++ {
		if got := buildResponse(t, 200, hdr, []byte("x"), "id", false, false); got != first {
			t.Fatalf("non-deterministic serialization:\n%q\nvs\n%q", first, got)
		}
	}
	if strings.Index(first, "Allow:") > strings.Index(first, "Zeta-Header:") {
		t.Fatalf("extra headers not sorted: %q", first)
	}
}

func TestWriter_OmitBodyKeepsLength(t *testing.T) {
	body := []byte("would-be GET body")
	out := buildResponse(t, 200, nil, body, "id", false, true)
	if !strings.Contains(out, "Content-Length: 17\r\n") {
		t.Fatalf("HEAD Content-Length wrong: %q", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\n") {
		t.Fatalf("body bytes written for omitBody: %q", out)
	}
}

func TestWriter_ConnectionHeader(t *testing.T) {
	if out := buildResponse(t, 200, nil, nil, "", true, false); !strings.Contains(out, "Connection: keep-alive\r\n") {
		t.Fatalf("keep-alive missing: %q", out)
	}
	if out := buildResponse(t, 200, nil, nil, "", false, false); !strings.Contains(out, "Connection: close\r\n") {
		t.Fatalf("close missing: %q", out)
	}
}

func TestWriter_SanitizesHeaderValues(t *testing.T) {
	hdr := map[string][]string{"X-Note": {"a\r\nInjected: yes"}}
	out := buildResponse(t, 200, hdr, nil, "", false, false)
	if strings.Contains(out, "Injected:") {
		t.Fatalf("CRLF injection not stripped: %q", out)
	}
}
