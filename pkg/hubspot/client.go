// Package hubspot provides a client for the HubSpot CRM v3 objects API.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the HubSpot CRM operations used by the reconciler.
type Client interface {
	SearchContacts(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
	CreateContact(ctx context.Context, properties map[string]any) (*Object, error)
	UpdateContact(ctx context.Context, id string, properties map[string]any) error
	SearchTickets(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
	CreateTicket(ctx context.Context, properties map[string]any, associations []Association) (*Object, error)
	UpdateTicket(ctx context.Context, id string, properties map[string]any) error
}

// Option configures the HubSpot client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate limit (4 req/s).
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new HubSpot client with the given private app token.
// By default, API calls are throttled to 4 req/s to stay inside HubSpot's
// burst limits.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: "https://api.hubapi.com",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(4, 4),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// do executes an authenticated JSON request with exponential backoff on
// transient failures. Non-2xx terminal responses are returned as *APIError
// so callers can inspect the status and body (the 409 conflict path depends
// on the body text).
func (c *httpClient) do(ctx context.Context, method, path string, payload, out any) error {
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return eris.Wrapf(err, "hubspot: marshal %s %s", method, path)
		}
	}

	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.wait(ctx); err != nil {
			return eris.Wrap(err, "hubspot: rate limit")
		}

		var reqBody io.Reader
		if bodyBytes != nil {
			reqBody = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return eris.Wrapf(err, "hubspot: create request %s %s", method, path)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return eris.Wrapf(lastErr, "hubspot: %s %s", method, path)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return eris.Wrap(readErr, "hubspot: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("hubspot: status %d: %s", resp.StatusCode, string(respBody))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
		}

		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return eris.Wrapf(err, "hubspot: unmarshal %s %s", method, path)
			}
		}
		return nil
	}

	return eris.Wrapf(lastErr, "hubspot: %s %s", method, path)
}

// IsConflict reports whether err is a HubSpot 409 conflict response.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

// ErrorBody returns the raw response body of a HubSpot API error, or "".
func ErrorBody(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Body
	}
	return ""
}

// objectRequest is the create/update body for a CRM v3 object.
type objectRequest struct {
	Properties   map[string]any `json:"properties"`
	Associations []Association  `json:"associations,omitempty"`
}

func (c *httpClient) SearchContacts(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	var out SearchResponse
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/contacts/search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) CreateContact(ctx context.Context, properties map[string]any) (*Object, error) {
	var out Object
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/contacts", objectRequest{Properties: properties}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) UpdateContact(ctx context.Context, id string, properties map[string]any) error {
	return c.do(ctx, http.MethodPatch, "/crm/v3/objects/contacts/"+id, objectRequest{Properties: properties}, nil)
}

func (c *httpClient) SearchTickets(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	var out SearchResponse
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/tickets/search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) CreateTicket(ctx context.Context, properties map[string]any, associations []Association) (*Object, error) {
	var out Object
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/tickets", objectRequest{Properties: properties, Associations: associations}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) UpdateTicket(ctx context.Context, id string, properties map[string]any) error {
	return c.do(ctx, http.MethodPatch, "/crm/v3/objects/tickets/"+id, objectRequest{Properties: properties}, nil)
}
