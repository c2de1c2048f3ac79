// Package aex provides a client for the AEX fiber network operator API.
package aex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the AEX back-office operations used by the sync pipeline.
type Client interface {
	// ListServices fetches one page of services changed after updatedAfter
	// (formatted "YYYY-MM-DD HH:MM:SS"). Pages start at 1.
	ListServices(ctx context.Context, updatedAfter string, page int) (*ServicePage, error)
	// GetService fetches a single service record, including its status.
	GetService(ctx context.Context, id int64) (*Service, error)
	// GetFullService fetches the nested premise/service/product detail.
	GetFullService(ctx context.Context, id int64) (*ServiceDetail, error)
	// ListWorkOrders fetches the work orders attached to a service.
	ListWorkOrders(ctx context.Context, serviceID int64) (*WorkOrderPage, error)
	// GetCustomer fetches a customer profile.
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	// ListCustomerServices fetches the services owned by a customer.
	ListCustomerServices(ctx context.Context, customerID int64) (*ServicePage, error)
	// ListPremises fetches the premises attached to a customer.
	ListPremises(ctx context.Context, customerID int64) (*PremisePage, error)
}

// Option configures the AEX client.
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

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a new AEX API client authenticated with a bearer token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: "https://fno.national-us.aex.systems",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes an HTTP request with exponential backoff retries on
// transient failures (429, 500, 502, 503). Returns the response body and
// status code on success, or the last error after exhausting retries.
func (c *httpClient) retryDo(ctx context.Context, req *http.Request) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		retryReq := req.Clone(ctx)

		resp, err := c.http.Do(retryReq)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "aex: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("aex: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

// getJSON performs an authenticated GET and decodes the JSON response into out.
func (c *httpClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrapf(err, "aex: create request %s", path)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	body, statusCode, err := c.retryDo(ctx, req)
	if err != nil {
		return eris.Wrapf(err, "aex: GET %s", path)
	}
	if statusCode != http.StatusOK {
		return eris.Errorf("aex: GET %s: unexpected status %d: %s", path, statusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "aex: unmarshal %s", path)
	}
	return nil
}

func (c *httpClient) ListServices(ctx context.Context, updatedAfter string, page int) (*ServicePage, error) {
	q := url.Values{}
	q.Set("updated_after", updatedAfter)
	q.Set("page", strconv.Itoa(page))

	var out ServicePage
	if err := c.getJSON(ctx, "/services", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) GetService(ctx context.Context, id int64) (*Service, error) {
	var out Service
	if err := c.getJSON(ctx, fmt.Sprintf("/services/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) GetFullService(ctx context.Context, id int64) (*ServiceDetail, error) {
	var out ServiceDetail
	if err := c.getJSON(ctx, fmt.Sprintf("/services/%d/full", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) ListWorkOrders(ctx context.Context, serviceID int64) (*WorkOrderPage, error) {
	q := url.Values{}
	q.Set("service", strconv.FormatInt(serviceID, 10))

	var out WorkOrderPage
	if err := c.getJSON(ctx, "/work-orders", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	var out Customer
	if err := c.getJSON(ctx, fmt.Sprintf("/customers/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) ListCustomerServices(ctx context.Context, customerID int64) (*ServicePage, error) {
	var out ServicePage
	if err := c.getJSON(ctx, fmt.Sprintf("/customers/%d/services", customerID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) ListPremises(ctx context.Context, customerID int64) (*PremisePage, error) {
	q := url.Values{}
	q.Set("customer", strconv.FormatInt(customerID, 10))

	var out PremisePage
	if err := c.getJSON(ctx, "/premises", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
