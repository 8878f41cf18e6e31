package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Content-Type values set by the Execute helpers.
const (
	// ContentTypeJSON is sent by [Request.ExecuteWithJSON].
	ContentTypeJSON = "application/json"
	// ContentTypeForm is sent by [Request.ExecuteWithURLEncodedForm].
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// maxDrainSize bounds how much of an unread body Close discards to let
// the connection be reused.
const maxDrainSize = 64 << 10

var methods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace,
}

type requestState int

const (
	stateOpen requestState = iota
	stateExecuted
	stateClosed
)

// Request is a single outbound HTTP call. Configure it, execute it once,
// then Close it; Close is safe to defer straight after creation.
//
// A Request is meant for one goroutine. Only Close may be called
// concurrently with the other methods.
type Request struct {
	// ID identifies the request in logs and traces.
	ID string

	client          *Client
	ctx             context.Context
	cancel          context.CancelFunc
	method          string
	url             *url.URL
	header          http.Header
	timeout         time.Duration
	followRedirects bool

	mu       sync.Mutex
	state    requestState
	response *Response
	timer    *time.Timer
	timedOut atomic.Bool
}

// NewRequest prepares a request without sending anything. The fixed
// client User-Agent is attached. An unparseable URL or one that is not
// http(s) fails with [ErrConnection]; an unknown method with [ErrUsage].
//
// ctx bounds the whole exchange including body reads.
func (c *Client) NewRequest(ctx context.Context, rawURL, method string) (*Request, error) {
	method = strings.ToUpper(method)
	if !slices.Contains(methods, method) {
		return nil, fmt.Errorf("%w: unsupported method %q", ErrUsage, method)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing url: %w", ErrConnection, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme in %q", ErrConnection, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrConnection, rawURL)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	r := &Request{
		ID:              uuid.NewString(),
		client:          c,
		ctx:             ctx,
		cancel:          cancel,
		method:          method,
		url:             u,
		header:          make(http.Header),
		followRedirects: c.followRedirects,
	}
	r.header.Set("User-Agent", c.userAgent)

	return r, nil
}

// NewRequestFromQuery prepares a GET request for the URL built by qb.
func (c *Client) NewRequestFromQuery(ctx context.Context, qb *QueryBuilder) (*Request, error) {
	return c.NewRequest(ctx, qb.Build(), http.MethodGet)
}

// Method returns the upper-cased HTTP method.
func (r *Request) Method() string { return r.method }

// URL returns a copy of the target URL.
func (r *Request) URL() *url.URL {
	u := *r.url
	return &u
}

// Header returns a copy of the headers that will be sent.
func (r *Request) Header() http.Header { return r.header.Clone() }

// SetHeader adds or overwrites a header.
func (r *Request) SetHeader(key, value string) *Request {
	if r.mutable("header") {
		r.header.Set(key, value)
	}
	return r
}

// SetTimeout sets both the connect and the read timeout. The status line
// must arrive within d, and afterwards every body read must make
// progress within d. Zero disables both.
func (r *Request) SetTimeout(d time.Duration) *Request {
	if d < 0 {
		d = 0
	}
	if r.mutable("timeout") {
		r.timeout = d
	}
	return r
}

// SetFollowRedirects sets whether redirects are followed.
func (r *Request) SetFollowRedirects(follow bool) *Request {
	if r.mutable("follow redirects") {
		r.followRedirects = follow
	}
	return r
}

// mutable reports whether configuration may still change. Changes after
// execution are dropped with a warning.
func (r *Request) mutable(field string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != stateOpen {
		r.client.logger.Warn("ignoring change to executed request", "request_id", r.ID, "field", field)
		return false
	}
	return true
}

// Execute sends the request without a body and blocks until the status
// line is received.
func (r *Request) Execute() (*Response, error) {
	return r.send(nil)
}

// ExecuteWithBody sends body with the request. It fails with [ErrUsage]
// for GET requests before anything is sent.
func (r *Request) ExecuteWithBody(body []byte) (*Response, error) {
	if r.method == http.MethodGet {
		return nil, fmt.Errorf("%w: body may not be specified in GET requests", ErrUsage)
	}
	if body == nil {
		body = []byte{}
	}
	return r.send(body)
}

// ExecuteWithJSON sends v encoded as JSON.
func (r *Request) ExecuteWithJSON(v any) (*Response, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding json body: %w", ErrUsage, err)
	}

	return r.SetHeader("Content-Type", ContentTypeJSON).ExecuteWithBody(b)
}

// ExecuteWithURLEncodedForm sends params as x-www-form-urlencoded data.
// Keys are sent in sorted order; values are formatted with fmt, nil as
// an empty string.
func (r *Request) ExecuteWithURLEncodedForm(params map[string]any) (*Response, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	qb := NewQueryBuilder("")
	for _, k := range keys {
		qb.Append(k, formValue(params[k]))
	}

	return r.SetHeader("Content-Type", ContentTypeForm).ExecuteWithBody([]byte(qb.Encode()))
}

func formValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Close releases the connection. It is idempotent and safe to call on
// every exit path, including before execution.
func (r *Request) Close() error {
	r.mu.Lock()
	if r.state == stateClosed {
		r.mu.Unlock()
		return nil
	}
	r.state = stateClosed
	resp := r.response
	timer := r.timer
	r.mu.Unlock()

	var err error
	if resp != nil {
		err = resp.release()
	}
	if timer != nil {
		timer.Stop()
	}
	r.cancel()

	if err != nil {
		r.client.logger.Error("failed to close response body", "request_id", r.ID, "error", err)
	}
	return err
}

func (r *Request) send(body []byte) (*Response, error) {
	r.mu.Lock()
	switch r.state {
	case stateExecuted:
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: request already executed", ErrUsage)
	case stateClosed:
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: request already closed", ErrUsage)
	}
	r.state = stateExecuted
	r.mu.Unlock()

	ctx, span := r.client.tracer.Start(r.ctx, "HTTP "+r.method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.method),
			attribute.String("url.full", r.url.String()),
			attribute.String("httpkit.request_id", r.ID),
		),
	)
	defer span.End()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	hr, err := http.NewRequestWithContext(ctx, r.method, r.url.String(), reader)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: building request: %w", ErrConnection, err)
	}
	hr.Header = r.header.Clone()
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(hr.Header))

	hc := *r.client.c
	if !r.followRedirects {
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if r.timeout > 0 {
		r.mu.Lock()
		r.timer = time.AfterFunc(r.timeout, func() {
			r.timedOut.Store(true)
			r.cancel()
		})
		r.mu.Unlock()
	}

	start := time.Now()
	resp, err := hc.Do(hr)
	if r.timer != nil {
		r.timer.Stop()
	}
	if err != nil {
		if r.timedOut.Load() {
			err = fmt.Errorf("%w after %v: %w", ErrTimeout, r.timeout, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "round trip failed")
		r.client.logger.Debug("request failed", "request_id", r.ID, "method", r.method, "url", r.url.String(), "error", err)

		return nil, fmt.Errorf("%w: %s %s: %w", ErrConnection, r.method, r.url.String(), err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, resp.Status)
	}

	r.client.logger.Debug("request executed", "request_id", r.ID, "method", r.method, "url", r.url.String(),
		"status", resp.StatusCode, "since", time.Since(start).String())

	var rc io.ReadCloser = resp.Body
	if r.timer != nil {
		rc = &timeoutReader{rc: rc, timer: r.timer, timeout: r.timeout, timedOut: &r.timedOut}
	}

	response := newResponse(r, resp, rc)

	r.mu.Lock()
	closed := r.state == stateClosed
	r.response = response
	r.mu.Unlock()

	// Close raced with the round trip; release what it could not see.
	if closed {
		_ = response.release()
	}

	return response, nil
}

// timeoutReader enforces the read timeout: a Read blocking for longer
// than timeout cancels the request.
type timeoutReader struct {
	rc       io.ReadCloser
	timer    *time.Timer
	timeout  time.Duration
	timedOut *atomic.Bool
}

func (t *timeoutReader) Read(p []byte) (int, error) {
	t.timer.Reset(t.timeout)
	n, err := t.rc.Read(p)
	t.timer.Stop()

	if err != nil && !errors.Is(err, io.EOF) && t.timedOut.Load() {
		err = fmt.Errorf("%w after %v: %w", ErrTimeout, t.timeout, err)
	}
	return n, err
}

func (t *timeoutReader) Close() error {
	t.timer.Stop()
	return t.rc.Close()
}

func statusMessage(resp *http.Response) string {
	msg := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return msg
}
