package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "thebanscraper/pkg/errors"
	"thebanscraper/pkg/logger"
	"thebanscraper/pkg/ratelimit"
	"thebanscraper/pkg/retry"
)

// DefaultMaxBodySize caps how much of a response body is read into memory.
const DefaultMaxBodySize = 64 << 20

// Fetcher retrieves the body behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Options configures a Client
type Options struct {
	Timeout       time.Duration
	UserAgent     string
	Delay         time.Duration
	MaxRetries    int
	RespectRobots bool
	// MaxBodySize defaults to DefaultMaxBodySize. Larger responses fail.
	MaxBodySize int64
	Logger      logger.Logger
	// Limiter overrides the politeness limiter built from Delay
	Limiter ratelimit.Limiter
}

// Client is a polite HTTP GET client: every request, retries and robots.txt
// lookups included, waits for the limiter first.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	limiter    ratelimit.Limiter
	retry      *retry.Config
	robots     *robotsCache
	maxBody    int64
	logger     logger.Logger
}

// New creates a Client from opts
func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.NewPoliteness(opts.Delay)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		headers: map[string]string{
			"User-Agent":      opts.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/*,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		limiter: limiter,
		retry: &retry.Config{
			MaxRetries: opts.MaxRetries,
			Delay:      opts.Delay,
			Logger:     log,
		},
		maxBody: opts.MaxBodySize,
		logger:  log,
	}
	if c.maxBody <= 0 {
		c.maxBody = DefaultMaxBodySize
	}
	if opts.RespectRobots {
		c.robots = newRobotsCache(opts.UserAgent)
	}
	return c
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// Fetch GETs url and returns its body. Transient failures are retried;
// all failures are *errors.Error.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if c.robots != nil {
		allowed, err := c.robots.allowed(ctx, url, c.get)
		if err != nil {
			return nil, err
		}
		if !allowed {
			c.logger.WarnWithFields("robots.txt disallows URL", map[string]interface{}{"url": url})
			return nil, &errs.Error{
				Type:    errs.ErrorTypeDisallowed,
				Message: "disallowed by robots.txt",
				URL:     url,
			}
		}
	}

	return retry.DoWithResult(ctx, func() ([]byte, error) {
		status, body, err := c.get(ctx, url)
		if err != nil {
			return nil, err
		}
		if err := checkResponseStatus(url, status); err != nil {
			return nil, err
		}
		return body, nil
	}, c.retry)
}

// get performs one paced GET and returns the status and body.
func (c *Client) get(ctx context.Context, url string) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, &errs.Error{
			Type:    errs.ErrorTypeClient,
			Message: fmt.Sprintf("failed to create request: %v", err),
			URL:     url,
		}
	}
	for key, value := range c.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return 0, nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			URL:     url,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return resp.StatusCode, nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
			URL:     url,
		}
	}
	if int64(len(body)) > c.maxBody {
		return resp.StatusCode, nil, &errs.Error{
			Type:    errs.ErrorTypeClient,
			Message: fmt.Sprintf("response exceeds %d bytes", c.maxBody),
			Code:    resp.StatusCode,
			URL:     url,
		}
	}
	return resp.StatusCode, body, nil
}

// checkResponseStatus turns a non-2xx status into a typed error
func checkResponseStatus(url string, status int) error {
	if status >= 200 && status < 300 {
		return nil
	}
	return &errs.Error{
		Type:    errs.TypeForStatus(status),
		Message: fmt.Sprintf("unexpected status %d %s", status, http.StatusText(status)),
		Code:    status,
		URL:     url,
	}
}
