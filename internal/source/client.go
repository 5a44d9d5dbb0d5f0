package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vytor/vocabflash/internal/logger"
)

// ErrUnsupportedSource is returned for sources that are not http(s) URLs
// when local files are not enabled.
var ErrUnsupportedSource = errors.New("source must be an http or https URL")

// Client fetches raw CSV text over HTTP, and from the local filesystem when
// WithLocalFiles is set.
type Client struct {
	httpClient *http.Client
	now        func() time.Time
	localFiles bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock sets the time source used for cache-busting parameters.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLocalFiles lets Fetch read file:// URLs and bare paths.
func WithLocalFiles() Option {
	return func(c *Client) { c.localFiles = true }
}

// New creates a Client. A zero timeout means requests never time out.
func New(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is returned when the source answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("source status %d", e.StatusCode)
	}
	return fmt.Sprintf("source status %d: %s", e.StatusCode, e.Body)
}

func (c *Client) Fetch(ctx context.Context, rawURL string, bust bool) (string, error) {
	log := logger.FromContext(ctx).WithPrefix("source").WithField("url", rawURL)

	if path, ok := localPath(rawURL); ok {
		if !c.localFiles {
			log.Warn("rejected non-http source")
			return "", ErrUnsupportedSource
		}
		log.Debug("reading local source: %s", path)
		b, err := os.ReadFile(path)
		if err != nil {
			log.Error("failed to read local source: %v", err)
			return "", err
		}
		return string(b), nil
	}

	target := rawURL
	if bust {
		busted, err := withCacheBuster(rawURL, c.now())
		if err != nil {
			log.Error("invalid source url: %v", err)
			return "", err
		}
		target = busted
	}

	log.Debug("fetching source: %s", target)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		log.Error("failed to create request: %v", err)
		return "", err
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("failed to fetch source: %v", err)
		return "", err
	}
	defer resp.Body.Close()

	log.Debug("source response received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error("source request failed: status=%d", resp.StatusCode)
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("failed to read source body: %v", err)
		return "", err
	}

	log.Info("fetched %d bytes", len(body))
	return string(body), nil
}

func withCacheBuster(rawURL string, now time.Time) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("_ts", strconv.FormatInt(now.UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// localPath reports whether rawURL names a file rather than an HTTP resource.
func localPath(rawURL string) (string, bool) {
	if strings.HasPrefix(rawURL, "file://") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return strings.TrimPrefix(rawURL, "file://"), true
		}
		return u.Path, true
	}
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return "", false
	}
	return rawURL, true
}

// ValidateURL reports whether rawURL is an absolute http(s) URL with a host.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ErrUnsupportedSource
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrUnsupportedSource
	}
	return nil
}
