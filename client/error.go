package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// maxErrBodySize caps the amount of response body read when
// building the message of a [RequestError]. This prevents
// unbounded memory usage when a large response arrives with a
// failing status.
const maxErrBodySize = 4 << 10 // 4KB

var (
	// ErrConnection covers DNS, TLS, socket and timeout failures while
	// opening a connection or completing a round trip.
	ErrConnection = errors.New("connection failed")
	// ErrTimeout is wrapped by [ErrConnection] when the configured request
	// timeout fired.
	ErrTimeout = errors.New("timed out")
	// ErrUsage marks caller misuse, such as a body on a GET request or
	// executing a request twice.
	ErrUsage = errors.New("invalid usage")
	// ErrBodyConsumed is returned by a second body read on a [Response].
	ErrBodyConsumed = fmt.Errorf("%w: response body already consumed", ErrUsage)
	// ErrDecode wraps malformed JSON, type mismatches and validation failures.
	ErrDecode = errors.New("decoding response")
	// ErrAuth is returned when credentials for an authenticated request
	// are unavailable.
	ErrAuth = errors.New("authentication unavailable")
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [RequestError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
)

// RequestError is returned by [Response.AssertOK] when the status code
// is outside [200, 300).
//
// Its message is built on first use and cached. It includes the server's
// error body when that can still be read; failing to read it only drops
// that part of the message.
type RequestError struct {
	Request    *Request
	Response   *Response
	Method     string
	URL        string
	StatusCode int
	Status     string

	once sync.Once
	msg  string
	body string
}

func newRequestError(req *Request, resp *Response) *RequestError {
	return &RequestError{
		Request:    req,
		Response:   resp,
		Method:     req.method,
		URL:        req.url.String(),
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}
}

func (e *RequestError) Error() string {
	e.once.Do(e.render)
	return e.msg
}

// Body returns the (possibly truncated) error body sent by the server,
// or an empty string if it could not be read.
func (e *RequestError) Body() string {
	e.once.Do(e.render)
	return e.body
}

func (e *RequestError) Unwrap() []error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return []error{ErrUnexpectedStatusCode, ErrAuthFailure}
	}
	return []error{ErrUnexpectedStatusCode}
}

func (e *RequestError) render() {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d: %s (%s)", e.StatusCode, e.Status, e.URL)

	if e.Response != nil {
		if body, ok := e.Response.errorBody(); ok {
			e.body = body
			if body != "" {
				sb.WriteByte('\n')
				sb.WriteString(body)
			}
		}
	}

	e.msg = sb.String()
}

// errorBody reads the unconsumed body for a RequestError message.
// Any failure is swallowed.
func (r *Response) errorBody() (string, bool) {
	rc, err := r.take()
	if err != nil {
		return "", false
	}
	defer rc.Close()

	b, err := io.ReadAll(io.LimitReader(rc, maxErrBodySize))
	if err != nil {
		return "", false
	}

	return string(b), true
}
