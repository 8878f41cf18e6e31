package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/publicsuffix"

	"github.com/aliucord/httpkit/client/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	throttle          *throttle.Config
	noFollowRedirects bool
	logger            *slog.Logger
	tracer            trace.Tracer
	jar               http.CookieJar
	baseURL           string
	credentials       CredentialProvider
	metadata          MetadataProvider
}

// WithClient replaces the default [http.Client] used by the [Client].
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout bounds every exchange end to end, body included.
// Per-request connect and read timeouts are set with [Request.SetTimeout].
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent replaces the identification header sent by every
// non-authenticated request.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		if strings.TrimSpace(header) == "" {
			return errors.New("user agent must not be empty")
		}
		c.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		cfg := throttle.Config{RPS: rps, Burst: burst}
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.throttle = &cfg
		return nil
	}
}

// WithNoFollowRedirects makes new requests default to not following
// redirects. [Request.SetFollowRedirects] still overrides it per request.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithTracer records a client span for every executed request.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// WithCookieJar keeps cookies between requests, scoped by the public
// suffix list.
func WithCookieJar() Option {
	return func(c *options) error {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return fmt.Errorf("creating cookie jar: %w", err)
		}
		c.jar = jar
		return nil
	}
}

// WithBaseURL sets the API origin relative authenticated request URLs are
// resolved against. Defaults to [DefaultBaseURL].
func WithBaseURL(base string) Option {
	return func(c *options) error {
		if !strings.HasPrefix(base, "http") {
			return fmt.Errorf("base url[%s] must be absolute", base)
		}
		c.baseURL = strings.TrimSuffix(base, "/")
		return nil
	}
}

// WithCredentials sets the provider of the Authorization token used by
// [Client.NewAuthenticatedRequest].
func WithCredentials(cp CredentialProvider) Option {
	return func(c *options) error {
		if cp == nil {
			return errors.New("credential provider must not be nil")
		}
		c.credentials = cp
		return nil
	}
}

// WithClientMetadata sets the provider of the User-Agent and analytics
// headers used by [Client.NewAuthenticatedRequest].
func WithClientMetadata(mp MetadataProvider) Option {
	return func(c *options) error {
		if mp == nil {
			return errors.New("metadata provider must not be nil")
		}
		c.metadata = mp
		return nil
	}
}
