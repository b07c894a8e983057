package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Client wraps resty with rate limiting and per-route transports
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Mu      sync.RWMutex

	router *router
}

// Config controls client construction
type Config struct {
	Timeout            time.Duration
	UserAgent          string
	MaxRedirects       int
	RateLimit          float64
	InsecureSkipVerify bool
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		Timeout:      60 * time.Second,
		UserAgent:    "Mozilla/5.0 (compatible; asybalance/1.0)",
		MaxRedirects: 20,
	}
}

// NewClient creates a client that stores cookies in jar
func NewClient(cfg Config, jar http.CookieJar) *Client {
	// Pooled transport only; the executor never retries
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil

	base, ok := retryClient.HTTPClient.Transport.(*http.Transport)
	if !ok {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}

	rt := newRouter(base, cfg.InsecureSkipVerify)

	restyClient := resty.New()
	restyClient.
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetTransport(rt).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects(cfg.MaxRedirects)))
	if cfg.UserAgent != "" {
		restyClient.SetHeader("User-Agent", cfg.UserAgent)
	}
	if jar != nil {
		restyClient.SetCookieJar(jar)
	}

	c := &Client{
		Resty:   restyClient,
		Limiter: rate.NewLimiter(rate.Inf, 0),
		router:  rt,
	}
	c.SetRateLimit(cfg.RateLimit)
	return c
}

func maxRedirects(n int) int {
	if n <= 0 {
		return 20
	}
	return n
}

// SetRateLimit configures rate limiting (requests per second)
func (c *Client) SetRateLimit(rps float64) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// SetBasicAuth applies basic authentication to subsequent requests
func (c *Client) SetBasicAuth(username, password string) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetBasicAuth(username, password)
}

// ClearAuth removes any configured authentication
func (c *Client) ClearAuth() {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.UserInfo = nil
	c.Resty.Token = ""
}

// Request creates a new request after waiting for the rate limiter
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	c.Mu.RLock()
	limiter := c.Limiter
	c.Mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Resty.R().SetContext(ctx), nil
}

// Close releases idle connections of every route
func (c *Client) Close() {
	c.router.closeIdle()
}
