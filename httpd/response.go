package httpd

import (
	"encoding/json"
	"fmt"
)

// Response is built by a handler and serialized once. Content-Length, Date
// and the identity header are filled in by the codec/serve loop, so handlers
// only set the status, content type and body.
type Response struct {
	Status int
	Reason string
	Header Header
	Body   []byte
}

func NewResponse(status int) *Response {
	return &Response{Status: status, Header: Header{}}
}

// SetBody sets the body and its content type. Content-Length is derived at
// serialization time from the actual bytes.
func (r *Response) SetBody(body []byte, contentType string) {
	r.Body = body
	r.Header.Set("Content-Type", contentType)
}

func (r *Response) SetTextBody(s string) {
	r.SetBody([]byte(s), "text/plain; charset=utf-8")
}

func (r *Response) SetHTMLBody(s string) {
	r.SetBody([]byte(s), "text/html; charset=utf-8")
}

// SetJSONBody marshals v as the body. Marshal failure downgrades the
// response to a 500; handlers pass plain maps and structs, so this is a
// programming error, not an input error.
func (r *Response) SetJSONBody(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		r.Status = 500
		r.SetTextBody("internal error")
		return
	}
	r.SetBody(b, "application/json; charset=utf-8")
}

// errorResponse builds the standard error page for a status code.
func errorResponse(status int, detail string) *Response {
	resp := NewResponse(status)
	body := fmt.Sprintf("<!DOCTYPE html>\n<html>\n<head><title>Error %d</title></head>\n<body>\n<h1>Error %d</h1>\n", status, status)
	if detail != "" {
		body += "<p>" + detail + "</p>\n"
	}
	body += "</body>\n</html>\n"
	resp.SetHTMLBody(body)
	return resp
}
