package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/aliucord/httpkit/client/download"
)

// Response is a completed round trip: the status line and headers have
// been received, the body has not been read yet.
//
// Text, Bytes, JSON, Stream, Pipe and SaveToFile each consume the body,
// so only one of them may be used, once. Later attempts fail with
// [ErrBodyConsumed].
type Response struct {
	StatusCode int
	// Status is the reason phrase, e.g. "Not Found".
	Status        string
	Header        http.Header
	ContentLength int64

	req      *Request
	body     io.ReadCloser
	consumed atomic.Bool

	errOnce sync.Once
	reqErr  atomic.Pointer[RequestError]
}

func newResponse(req *Request, resp *http.Response, body io.ReadCloser) *Response {
	return &Response{
		StatusCode:    resp.StatusCode,
		Status:        statusMessage(resp),
		Header:        resp.Header,
		ContentLength: resp.ContentLength,
		req:           req,
		body:          body,
	}
}

// Request returns the request this response answers.
func (r *Response) Request() *Request { return r.req }

// OK reports whether the status code is in [200, 300).
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// AssertOK returns a [*RequestError] unless [Response.OK]. Every call
// returns the same error value.
func (r *Response) AssertOK() error {
	if r.OK() {
		return nil
	}

	r.errOnce.Do(func() {
		r.reqErr.Store(newRequestError(r.req, r))
	})
	return r.reqErr.Load()
}

// Stream asserts the status and hands over the live body. The caller
// must close it.
func (r *Response) Stream() (io.ReadCloser, error) {
	if err := r.AssertOK(); err != nil {
		return nil, err
	}

	return r.take()
}

// Text reads the whole body as UTF-8. Invalid sequences are replaced
// with U+FFFD.
func (r *Response) Text() (string, error) {
	rc, err := r.Stream()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	b, err := io.ReadAll(transform.NewReader(rc, unicode.UTF8.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %w", ErrConnection, err)
	}

	return string(b), nil
}

// Bytes reads the whole body.
func (r *Response) Bytes() ([]byte, error) {
	rc, err := r.Stream()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrConnection, err)
	}

	return b, nil
}

// JSON reads the body as text and decodes it into v, which must be a
// pointer. Decoding failures are wrapped in [ErrDecode].
func (r *Response) JSON(v any, optFns ...DecodeOption) error {
	var opts decodeOpts
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return fmt.Errorf("applying decode option: %w", err)
		}
	}

	text, err := r.Text()
	if err != nil {
		return err
	}

	return decodeJSON(strings.NewReader(text), v, opts)
}

// Pipe copies the body into w. w is not closed.
func (r *Response) Pipe(w io.Writer) error {
	rc, err := r.Stream()
	if err != nil {
		return err
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("piping body: %w", err)
	}

	return nil
}

// SaveToFile downloads the body to path, which must be absolute.
//
// The data is written to a temporary file in the same directory and
// moved over path only once it is complete and, with [WithSHA1] or
// [WithChecksum], verified. On any failure path keeps its previous
// content, or stays absent.
func (r *Response) SaveToFile(path string, opts ...DownloadOption) error {
	if _, err := download.CheckDestination(path); err != nil {
		return classifyDownloadErr(err)
	}

	rc, err := r.Stream()
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := download.Handle(r.req.ctx, rc, r.ContentLength, path, r.req.client.logger, opts...); err != nil {
		return fmt.Errorf("saving to %s: %w", path, classifyDownloadErr(err))
	}

	return nil
}

// Close closes the owning [Request].
func (r *Response) Close() error {
	return r.req.Close()
}

// take hands out the body exactly once.
func (r *Response) take() (io.ReadCloser, error) {
	if !r.consumed.CompareAndSwap(false, true) {
		return nil, ErrBodyConsumed
	}
	return r.body, nil
}

// release is called by Request.Close. A RequestError that was handed out
// but never printed captures the error body first, since it cannot be
// read afterwards.
func (r *Response) release() error {
	if e := r.reqErr.Load(); e != nil {
		_ = e.Error()
	}

	if r.consumed.CompareAndSwap(false, true) {
		_, _ = io.Copy(io.Discard, io.LimitReader(r.body, maxDrainSize))
	}

	return r.body.Close()
}

// classifyDownloadErr lets an invalid destination match [ErrUsage] too.
func classifyDownloadErr(err error) error {
	if errors.Is(err, download.ErrInvalidDestination) {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return err
}
