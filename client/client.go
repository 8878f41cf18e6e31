package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/aliucord/httpkit/client/download"
	"github.com/aliucord/httpkit/client/throttle"
)

// DefaultUserAgent identifies requests that do not carry credentials.
const DefaultUserAgent = "Aliucord (https://github.com/Aliucord/Aliucord)"

const tracerName = "github.com/aliucord/httpkit/client"

// Client holds the transport and collaborators shared by the requests it
// creates. A Client is safe for concurrent use; the requests it creates
// are not.
type Client struct {
	c               *http.Client
	logger          *slog.Logger
	tracer          trace.Tracer
	userAgent       string
	followRedirects bool
	baseURL         string
	credentials     CredentialProvider
	metadata        MetadataProvider
}

// Build creates a [Client] from the given options. Without options it
// uses [http.DefaultTransport], [slog.Default] and a no-op tracer.
func Build(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	client := &Client{
		c:               &http.Client{},
		logger:          slog.Default(),
		tracer:          noop.NewTracerProvider().Tracer(tracerName),
		userAgent:       DefaultUserAgent,
		followRedirects: !opts.noFollowRedirects,
		baseURL:         DefaultBaseURL,
		credentials:     opts.credentials,
		metadata:        opts.metadata,
	}

	if opts.client != nil {
		// Copy so per-request redirect handling never mutates the caller's client.
		cpy := *opts.client
		client.c = &cpy
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.tracer != nil {
		client.tracer = opts.tracer
	}

	if opts.userAgent != "" {
		client.userAgent = opts.userAgent
	}

	if opts.baseURL != "" {
		client.baseURL = opts.baseURL
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	if opts.jar != nil {
		client.c.Jar = opts.jar
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(*opts.throttle, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	client.c.Transport = transport

	return client, nil
}

// DownloadAsync executes req on its own goroutine and saves the body to
// destPath through [Response.SaveToFile]. The download runs on q, which
// bounds concurrency and collects errors; a nil q gets a fresh unbounded
// queue, reachable through [DownloadResult.Queue] to add more work.
//
// req is always closed once the download finishes. Problems detectable
// up front, such as an invalid destination, are reported through the
// returned result without starting anything.
func (c *Client) DownloadAsync(q *download.Queue, req *Request, destPath string, opts ...DownloadOption) *DownloadResult {
	if q == nil {
		q = download.NewQueue(0)
	}

	if req == nil {
		return q.Fail(fmt.Errorf("%w: request must not be nil", ErrUsage))
	}

	if _, err := download.CheckDestination(destPath); err != nil {
		_ = req.Close()
		return q.Fail(classifyDownloadErr(err))
	}

	return q.Start(req.ctx, func(ctx context.Context) error {
		defer req.Close()

		stop := context.AfterFunc(ctx, req.cancel)
		defer stop()

		resp, err := req.Execute()
		if err != nil {
			return err
		}

		return resp.SaveToFile(destPath, opts...)
	})
}
