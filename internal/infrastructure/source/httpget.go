package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	userAgent    = "feedrelay/1.0"
	maxErrorBody = 512
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Code, e.Body)
}

// Client is the GET-and-decode helper shared by the provider adapters.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	headers map[string]string
}

type Option func(*Client)

// WithRate paces requests to perSec with the given burst.
func WithRate(perSec float64, burst int) Option {
	return func(c *Client) {
		if perSec > 0 {
			if burst <= 0 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if value != "" {
			c.headers[key] = value
		}
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON issues a GET and decodes the JSON body into v, keeping numbers as json.Number.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// Get issues a GET and returns the body of a 2xx response. The caller closes it.
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(b)}
	}
	return resp.Body, nil
}
