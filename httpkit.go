// Package httpkit exposes the client builder and one-call helpers for
// the common cases.
//
// The helpers share a default client built on first use. They close their
// request on every path; use [client.Client] directly for streaming,
// custom headers or timeouts.
package httpkit

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/aliucord/httpkit/client"
)

// NewClient instantiates a new *Client with the provided options.
// If not specified, the default http.Transport and slog.Default are used.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}

var defaultClient = sync.OnceValues(func() (*client.Client, error) {
	return client.Build()
})

// Get fetches url and returns the body as text.
func Get(ctx context.Context, url string) (string, error) {
	c, err := defaultClient()
	if err != nil {
		return "", err
	}

	req, err := c.NewRequest(ctx, url, http.MethodGet)
	if err != nil {
		return "", err
	}
	defer req.Close()

	resp, err := req.Execute()
	if err != nil {
		return "", err
	}

	return resp.Text()
}

// GetJSON fetches url and decodes the JSON body into a T.
func GetJSON[T any](ctx context.Context, url string, opts ...client.DecodeOption) (T, error) {
	var v T

	c, err := defaultClient()
	if err != nil {
		return v, err
	}

	req, err := c.NewRequest(ctx, url, http.MethodGet)
	if err != nil {
		return v, err
	}
	defer req.Close()

	resp, err := req.Execute()
	if err != nil {
		return v, err
	}

	if err := resp.JSON(&v, opts...); err != nil {
		return v, err
	}

	return v, nil
}

// Post sends body to url and returns the response body as text.
func Post(ctx context.Context, url, body string) (string, error) {
	c, err := defaultClient()
	if err != nil {
		return "", err
	}

	req, err := c.NewRequest(ctx, url, http.MethodPost)
	if err != nil {
		return "", err
	}
	defer req.Close()

	resp, err := req.ExecuteWithBody([]byte(body))
	if err != nil {
		return "", err
	}

	return resp.Text()
}

// PostJSON sends body to url as JSON and decodes the JSON response into
// a T. A string, []byte or [json.RawMessage] body is taken to be encoded
// already and is sent unchanged. Any other body is marshalled.
func PostJSON[T any](ctx context.Context, url string, body any, opts ...client.DecodeOption) (T, error) {
	var v T

	c, err := defaultClient()
	if err != nil {
		return v, err
	}

	req, err := c.NewRequest(ctx, url, http.MethodPost)
	if err != nil {
		return v, err
	}
	defer req.Close()

	var resp *client.Response
	switch b := body.(type) {
	case string:
		resp, err = req.SetHeader("Content-Type", client.ContentTypeJSON).ExecuteWithBody([]byte(b))
	case []byte:
		resp, err = req.SetHeader("Content-Type", client.ContentTypeJSON).ExecuteWithBody(b)
	case json.RawMessage:
		resp, err = req.SetHeader("Content-Type", client.ContentTypeJSON).ExecuteWithBody(b)
	default:
		resp, err = req.ExecuteWithJSON(body)
	}
	if err != nil {
		return v, err
	}

	if err := resp.JSON(&v, opts...); err != nil {
		return v, err
	}

	return v, nil
}

// Download saves the body of url to the absolute path dest, replacing
// it atomically. See [client.Response.SaveToFile].
func Download(ctx context.Context, url, dest string, opts ...client.DownloadOption) error {
	c, err := defaultClient()
	if err != nil {
		return err
	}

	req, err := c.NewRequest(ctx, url, http.MethodGet)
	if err != nil {
		return err
	}
	defer req.Close()

	resp, err := req.Execute()
	if err != nil {
		return err
	}

	return resp.SaveToFile(dest, opts...)
}
