package client

import (
	"context"
	"fmt"
	"strings"
)

// DefaultBaseURL is the API origin relative authenticated URLs resolve against.
const DefaultBaseURL = "https://discord.com/api/v9"

// AnalyticsHeader carries the client metadata provider's analytics payload.
const AnalyticsHeader = "X-Super-Properties"

// CredentialProvider supplies the session token sent as Authorization.
// It should return an error when no session exists.
type CredentialProvider interface {
	AuthToken(ctx context.Context) (string, error)
}

// CredentialFunc adapts a function to [CredentialProvider].
type CredentialFunc func(ctx context.Context) (string, error)

func (f CredentialFunc) AuthToken(ctx context.Context) (string, error) { return f(ctx) }

// MetadataProvider identifies the client on authenticated requests.
type MetadataProvider interface {
	UserAgent() string
	AnalyticsHeader() string
}

// StaticMetadata is a [MetadataProvider] with fixed values.
type StaticMetadata struct {
	Agent     string
	Analytics string
}

func (m StaticMetadata) UserAgent() string       { return m.Agent }
func (m StaticMetadata) AnalyticsHeader() string { return m.Analytics }

// NewAuthenticatedRequest prepares a request carrying the session
// credentials. URLs that do not start with "http" are treated as paths
// on the configured base URL.
//
// Headers sent in addition to [Client.NewRequest]: Authorization, the
// provider's User-Agent (replacing the fixed one), [AnalyticsHeader] and
// Accept: */*. A missing provider, a provider error or an empty token
// fail with [ErrAuth].
func (c *Client) NewAuthenticatedRequest(ctx context.Context, rawURL, method string) (*Request, error) {
	if c.credentials == nil {
		return nil, fmt.Errorf("%w: no credential provider configured", ErrAuth)
	}

	if !strings.HasPrefix(rawURL, "http") {
		rawURL = c.baseURL + rawURL
	}

	req, err := c.NewRequest(ctx, rawURL, method)
	if err != nil {
		return nil, err
	}

	token, err := c.credentials.AuthToken(req.ctx)
	if err != nil {
		_ = req.Close()
		return nil, fmt.Errorf("%w: %w", ErrAuth, err)
	}
	if token == "" {
		_ = req.Close()
		return nil, fmt.Errorf("%w: no session token", ErrAuth)
	}

	req.SetHeader("Authorization", token)
	if c.metadata != nil {
		if ua := c.metadata.UserAgent(); ua != "" {
			req.SetHeader("User-Agent", ua)
		}
		if props := c.metadata.AnalyticsHeader(); props != "" {
			req.SetHeader(AnalyticsHeader, props)
		}
	}
	req.SetHeader("Accept", "*/*")

	return req, nil
}
