package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps resty for HTTP requests to payment providers and chat APIs.
type Client struct {
	r *resty.Client
}

// New creates a new HTTP client with sensible defaults.
func New() *Client {
	r := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &Client{r: r}
}

// WithTimeout sets a custom timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.r.SetTimeout(d)
	return c
}

// WithRetryCount sets how many times a failed request is retried.
// Payment creation uses 0: a retried create could open a second checkout.
func (c *Client) WithRetryCount(n int) *Client {
	c.r.SetRetryCount(n)
	return c
}

// WithBaseURL sets a base URL prepended to relative request paths.
func (c *Client) WithBaseURL(url string) *Client {
	c.r.SetBaseURL(url)
	return c
}

// WithHeader sets a header sent with every request.
func (c *Client) WithHeader(key, value string) *Client {
	c.r.SetHeader(key, value)
	return c
}

// PostJSON sends a POST request with a JSON body and returns body and status code.
func (c *Client) PostJSON(ctx context.Context, url string, body interface{}) ([]byte, int, error) {
	req := c.r.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Post(url)
	if err != nil {
		return nil, 0, err
	}
	return resp.Body(), resp.StatusCode(), nil
}

// PostJSONInto posts body and decodes a successful response into out.
// The response is decoded whatever Content-Type the server declares.
func (c *Client) PostJSONInto(ctx context.Context, url string, body, out interface{}) error {
	raw, status, err := c.PostJSON(ctx, url, body)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("POST %s: status %d: %s", url, status, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("POST %s: decode response: %w", url, err)
	}
	return nil
}
