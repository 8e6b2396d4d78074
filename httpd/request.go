package httpd

import (
	"time"
)

// Method is a closed set. Anything the parser accepted syntactically but the
// server does not implement maps to MethodUnsupported, so the handler's
// switch is exhaustive and nothing falls through silently.
type Method int

const (
	MethodUnsupported Method = iota
	MethodGet
	MethodHead
	MethodPost
	MethodOptions
)

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodHead:
		return "HEAD"
	case MethodPost:
		return "POST"
	case MethodOptions:
		return "OPTIONS"
	default:
		return "UNSUPPORTED"
	}
}

// ParseMethod maps a wire token to the closed Method set.
func ParseMethod(tok string) Method {
	switch tok {
	case "GET":
		return MethodGet
	case "HEAD":
		return MethodHead
	case "POST":
		return MethodPost
	case "OPTIONS":
		return MethodOptions
	default:
		return MethodUnsupported
	}
}

// Request is one parsed HTTP request. It is immutable after parse and owned
// by a single handling call for the whole request/response cycle.
type Request struct {
	Method     Method
	RawMethod  string
	Path       string
	Proto      string
	Header     Header
	Body       []byte
	RemoteAddr string
	// Received is the raw receipt timestamp, taken when the request line
	// arrived. It feeds the identity tag's time bucket.
	Received time.Time
}
