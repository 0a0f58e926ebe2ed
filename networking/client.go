package networking

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rafabd1/LPParser/utils"
	"golang.org/x/time/rate"
)

// maxBodySize caps how much of a page is read
const maxBodySize = 10 * 1024 * 1024

// Client implements an HTTP client with rate limiting and bounded retries
type Client struct {
	httpClient    *http.Client
	filter        *ResponseFilter
	maxRetries    int
	retryBackoff  time.Duration
	headers       map[string]string
	globalLimiter *rate.Limiter
	perHostRate   rate.Limit
	hostLimiters  sync.Map
	mu            sync.RWMutex
}

// NewClient creates a new HTTP client. timeout is in seconds.
func NewClient(timeout int, maxRetries int) *Client {
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 32,
				IdleConnTimeout:     30 * time.Second,
				TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
		filter:       NewResponseFilter(),
		maxRetries:   maxRetries,
		retryBackoff: 200 * time.Millisecond,
		headers:      make(map[string]string),
	}
}

// SetInsecureSkipVerify disables TLS certificate verification
func (c *Client) SetInsecureSkipVerify(skip bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.TLSClientConfig.InsecureSkipVerify = skip
	}
}

// SetRequestHeader adds a header sent with every request
func (c *Client) SetRequestHeader(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers[name] = value
}

// SetGlobalRateLimit caps requests per second across all hosts
func (c *Client) SetGlobalRateLimit(requestsPerSecond int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if requestsPerSecond <= 0 {
		c.globalLimiter = nil
		return
	}
	c.globalLimiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
}

// SetPerHostRateLimit caps requests per second to each host
func (c *Client) SetPerHostRateLimit(requestsPerSecond float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.perHostRate = rate.Limit(requestsPerSecond)
}

// SetRetryBackoff sets the base delay between attempts
func (c *Client) SetRetryBackoff(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retryBackoff = d
}

func (c *Client) getHostLimiter(host string) *rate.Limiter {
	c.mu.RLock()
	perHost := c.perHostRate
	c.mu.RUnlock()

	if perHost <= 0 {
		return nil
	}
	if v, ok := c.hostLimiters.Load(host); ok {
		return v.(*rate.Limiter)
	}
	lim, _ := c.hostLimiters.LoadOrStore(host, rate.NewLimiter(perHost, 1))
	return lim.(*rate.Limiter)
}

func (c *Client) wait(ctx context.Context, host string) error {
	c.mu.RLock()
	global := c.globalLimiter
	c.mu.RUnlock()

	if global != nil {
		if err := global.Wait(ctx); err != nil {
			return err
		}
	}
	if lim := c.getHostLimiter(host); lim != nil {
		return lim.Wait(ctx)
	}
	return nil
}

/*
   Fetch downloads a page. Transient failures (timeouts, 5xx, connection
   resets) are retried up to maxRetries times with a linear backoff.
   Non-200 responses come back as *utils.AppError carrying the status code.
*/
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	host, err := utils.ExtractDomain(url)
	if err != nil {
		return nil, utils.NewError(utils.NetworkError, "invalid URL", err)
	}

	c.mu.RLock()
	backoff := c.retryBackoff
	c.mu.RUnlock()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, utils.NewError(utils.NetworkError, "request canceled", ctx.Err())
			case <-time.After(time.Duration(attempt) * backoff):
			}
		}

		if err := c.wait(ctx, host); err != nil {
			return nil, utils.NewError(utils.NetworkError, "rate limiter wait failed", err)
		}

		body, err := c.tryOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil || !utils.IsTemporaryError(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *Client) tryOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, utils.NewError(utils.NetworkError, "failed to create request", err)
	}

	c.mu.RLock()
	for name, value := range c.headers {
		req.Header.Set(name, value)
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewError(utils.NetworkError, fmt.Sprintf("request to %s failed", url), err)
	}
	defer resp.Body.Close()

	if !c.filter.ShouldProcess(resp) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		statusErr := utils.NewStatusError(resp.StatusCode, url)
		switch {
		case c.filter.IsRateLimited(resp):
			statusErr.Type = utils.RateLimitError
		case c.filter.IsWAFBlocked(resp):
			statusErr.Type = utils.WAFError
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, utils.NewError(utils.NetworkError, "reading body interrupted", err)
		}
		return nil, utils.NewError(utils.TemporaryError, "failed to read body", err)
	}

	return body, nil
}
