package http

import (
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
	"github.com/lumen-web/lumen/http/status"
	"github.com/lumen-web/lumen/kv"
)

const preallocRespHeaders = 7

// Response is a builder for the reply a handler produces. One instance is
// reused across all requests of a connection; Respond hands it out cleared.
type Response struct {
	code    status.Code
	text    status.Status
	headers []kv.Pair
	body    []byte
}

func NewResponse() *Response {
	return &Response{
		code:    status.OK,
		headers: make([]kv.Pair, 0, preallocRespHeaders),
	}
}

// Code sets the response code; the reason phrase follows it automatically
// unless overridden via Status.
func (r *Response) Code(code status.Code) *Response {
	r.code = code
	return r
}

// Status sets a custom reason phrase. Clients generally ignore it.
func (r *Response) Status(text status.Status) *Response {
	r.text = text
	return r
}

// Header appends a response header.
func (r *Response) Header(key, value string) *Response {
	r.headers = append(r.headers, kv.Pair{Key: key, Value: value})
	return r
}

// String sets the response body to the passed string.
func (r *Response) String(body string) *Response {
	return r.Bytes(uf.S2B(body))
}

// Bytes sets the response body. The slice is not copied; it must stay
// intact until the response is written.
func (r *Response) Bytes(body []byte) *Response {
	r.body = body
	return r
}

// JSON marshals the model into the body and sets the content type. A model
// that cannot be marshalled degrades the response to 500.
func (r *Response) JSON(model any) *Response {
	body, err := json.Marshal(model)
	if err != nil {
		return r.Code(status.InternalServerError).Bytes(nil)
	}

	return r.Header("Content-Type", "application/json").Bytes(body)
}

// Expose reveals the built-up state for serialization.
func (r *Response) Expose() (status.Code, status.Status, []kv.Pair, []byte) {
	return r.code, r.text, r.headers, r.body
}

// Clear resets the builder between requests, keeping allocations.
func (r *Response) Clear() *Response {
	r.code = status.OK
	r.text = ""
	r.headers = r.headers[:0]
	r.body = nil

	return r
}
