package httpd

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func benchReq(m Method, path string, body []byte) *Request {
	return &Request{
		Method:     m,
		RawMethod:  m.String(),
		Path:       path,
		Proto:      "HTTP/1.1",
		Header:     Header{},
		Body:       body,
		RemoteAddr: "127.0.0.1:5000",
		Received:   time.Now(),
	}
}

func newTestHandler() *BenchHandler {
	return NewBenchHandler(DefaultConfig())
}

func TestHandler_GetIndex(t *testing.T) {
	resp := newTestHandler().Serve(benchReq(MethodGet, "/", nil))
	if resp.Status != 200 {
		t.Fatalf("status=%d", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("Content-Type=%q", ct)
	}
	if len(resp.Body) == 0 {
		t.Fatal("empty index body")
	}
}

func TestHandler_GetJSONEndpoints(t *testing.T) {
	h := newTestHandler()
	for _, path := range []string{"/status", "/info", "/time"} {
		resp := h.Serve(benchReq(MethodGet, path, nil))
		if resp.Status != 200 {
			t.Fatalf("%s: status=%d", path, resp.Status)
		}
		var v map[string]any
		if err := json.Unmarshal(resp.Body, &v); err != nil {
			t.Fatalf("%s: invalid JSON: %v", path, err)
		}
	}
}

func TestHandler_GetUnknownPath(t *testing.T) {
	resp := newTestHandler().Serve(benchReq(MethodGet, "/missing", nil))
	if resp.Status != 404 {
		t.Fatalf("status=%d, want 404", resp.Status)
	}
}

func TestHandler_PostEcho(t *testing.T) {
	h := newTestHandler()
	resp := h.Serve(benchReq(MethodPost, "/echo", []byte("payload")))
	if resp.Status != 200 || string(resp.Body) != "payload" {
		t.Fatalf("status=%d body=%q", resp.Status, resp.Body)
	}
	resp = h.Serve(benchReq(MethodPost, "/echo", nil))
	if resp.Status != 400 {
		t.Fatalf("empty body: status=%d, want 400", resp.Status)
	}
}

func TestHandler_PostHash(t *testing.T) {
	resp := newTestHandler().Serve(benchReq(MethodPost, "/hash", []byte("abc")))
	if resp.Status != 200 {
		t.Fatalf("status=%d", resp.Status)
	}
	var v struct {
		MD5    string `json:"md5"`
		SHA1   string `json:"sha1"`
		Length int    `json:"length"`
	}
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if v.MD5 != "900150983cd24fb0d6963f7d28e17f72" {
		t.Fatalf("md5=%q", v.MD5)
	}
	if v.SHA1 != "a9993e364706816aba3e25717850c26c9cd0d89d" {
		t.Fatalf("sha1=%q", v.SHA1)
	}
	if v.Length != 3 {
		t.Fatalf("length=%d", v.Length)
	}
}

func TestHandler_PostSubmitCreates(t *testing.T) {
	resp := newTestHandler().Serve(benchReq(MethodPost, "/submit", []byte("x")))
	if resp.Status != 201 {
		t.Fatalf("status=%d, want 201", resp.Status)
	}
}

func TestHandler_PostUnknownPath(t *testing.T) {
	resp := newTestHandler().Serve(benchReq(MethodPost, "/", []byte("x")))
	if resp.Status != 405 {
		t.Fatalf("status=%d, want 405", resp.Status)
	}
	if resp.Header.Get("Allow") != AllowedMethods {
		t.Fatalf("Allow=%q", resp.Header.Get("Allow"))
	}
}

func TestHandler_Options(t *testing.T) {
	resp := newTestHandler().Serve(benchReq(MethodOptions, "*", nil))
	if resp.Status != 200 {
		t.Fatalf("status=%d", resp.Status)
	}
	if resp.Header.Get("Allow") != AllowedMethods {
		t.Fatalf("Allow=%q", resp.Header.Get("Allow"))
	}
	if len(resp.Body) != 0 {
		t.Fatalf("OPTIONS body not empty: %q", resp.Body)
	}
}

func TestHandler_UnsupportedMethod(t *testing.T) {
	req := benchReq(MethodUnsupported, "/", nil)
	req.RawMethod = "DELETE"
	resp := newTestHandler().Serve(req)
	if resp.Status != 405 {
		t.Fatalf("status=%d, want 405", resp.Status)
	}
	if resp.Header.Get("Allow") != AllowedMethods {
		t.Fatalf("Allow=%q", resp.Header.Get("Allow"))
	}
}
