package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-imagesync/internal/logging"
	"github.com/goliatone/go-imagesync/pkg/interfaces"
)

const defaultUserAgent = "go-imagesync/1.0"

// Options configures the HTTP fetch client.
type Options struct {
	// Timeout bounds each request including redirects. Zero means 30s.
	Timeout time.Duration
	// Retries is the number of additional attempts after a failed request.
	Retries int
	// UserAgent overrides the default request user agent.
	UserAgent string
	// Logger receives per-request diagnostics.
	Logger interfaces.Logger
}

// Client downloads remote image bytes. Retry and backoff live entirely here;
// the engine only consumes success or a classified failure.
type Client struct {
	http   *resty.Client
	logger interfaces.Logger
}

var _ interfaces.Fetcher = (*Client)(nil)

// New constructs a fetch client with redirects followed and bounded retries.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetHeader("User-Agent", userAgent)
	if opts.Retries > 0 {
		client.SetRetryCount(opts.Retries)
		client.SetRetryWaitTime(500 * time.Millisecond)
		client.SetRetryMaxWaitTime(5 * time.Second)
	}

	return &Client{http: client, logger: logger}
}

// Fetch downloads the bytes behind url. Failures are wrapped with the fetch
// category and one of the taxonomy sentinels (ErrTimeout, ErrHTTPStatus,
// ErrNetwork) so callers can classify them with errors.Is.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		wrapped := classifyTransportError(url, err)
		c.logger.Warn("fetch.request.failed", "url", url, "error", err)
		return nil, wrapped
	}

	if !resp.IsSuccess() {
		c.logger.Warn("fetch.request.http_error", "url", url, "status", resp.StatusCode())
		return nil, goerrors.Wrap(
			fmt.Errorf("%w: %d for %s", ErrHTTPStatus, resp.StatusCode(), url),
			CategoryFetch, "fetch returned non-success status").
			WithTextCode(fetchHTTPCode)
	}

	body := resp.Body()
	c.logger.Debug("fetch.request.ok", "url", url, "size", len(body))
	return body, nil
}

func classifyTransportError(url string, err error) error {
	if isTimeout(err) {
		return goerrors.Wrap(
			fmt.Errorf("%w: %s", ErrTimeout, url),
			CategoryFetch, "fetch timed out").
			WithTextCode(fetchTimeoutCode)
	}
	return goerrors.Wrap(
		fmt.Errorf("%w: %s: %v", ErrNetwork, url, err),
		CategoryFetch, "fetch transport failure").
		WithTextCode(fetchNetworkCode)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
