package httpd

import (
	"errors"

	"github.com/labredes/httpbench/httpd/internal/http1"
)

// Request-parse failures surface the codec's taxonomy; the serve loop turns
// them into HTTP error responses on the same connection.
var (
	ErrMalformedRequestLine = http1.ErrMalformedRequestLine
	ErrHeaderParse          = http1.ErrHeaderParse
	ErrIncompleteBody       = http1.ErrIncompleteBody
	ErrHeaderTooLarge       = http1.ErrHeaderTooLarge
	ErrPayloadTooLarge      = http1.ErrBodyTooLarge

	// ErrServerClosed is returned by Serve after Shutdown closes the listener.
	ErrServerClosed = errors.New("httpd: server closed")
)
