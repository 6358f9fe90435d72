// Package orderapi is the typed client for the order REST backend. It wraps
// every call with a fixed timeout and normalizes transport and HTTP failures
// into the structured errors of pkg/errors.
package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/licshop/ordermgr/internal/config"
	"github.com/licshop/ordermgr/internal/domain"
	"github.com/licshop/ordermgr/pkg/errors"
)

// DefaultTimeout is applied when the configuration does not set one.
const DefaultTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an order API client
func NewClient(cfg config.APIConfig, logger *zap.Logger) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		// the per-request context deadline is the effective limit; the
		// http.Client timeout is a backstop
		httpClient: &http.Client{Timeout: timeout + time.Second},
		logger:     logger,
	}
}

// ListResult is one page of orders plus the pagination echo.
type ListResult struct {
	Rows  []domain.Order
	Total int
	Page  int
	Limit int
}

// ImportResult reports the outcome of a CSV import.
type ImportResult struct {
	Imported int `json:"imported"`
	Total    int `json:"total"`
}

// ListOrders fetches one search-filtered page of orders.
func (c *Client) ListOrders(ctx context.Context, page, limit int, search string) (*ListResult, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("search", search)

	var env struct {
		Data struct {
			Data       []domain.Order `json:"data"`
			Pagination struct {
				Total int `json:"total"`
				Page  int `json:"page"`
				Limit int `json:"limit"`
			} `json:"pagination"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders.php?"+q.Encode(), nil, &env); err != nil {
		return nil, err
	}

	res := &ListResult{
		Rows:  env.Data.Data,
		Total: env.Data.Pagination.Total,
		Page:  env.Data.Pagination.Page,
		Limit: env.Data.Pagination.Limit,
	}
	if res.Rows == nil {
		res.Rows = []domain.Order{}
	}
	if res.Page == 0 {
		res.Page = page
	}
	if res.Limit == 0 {
		res.Limit = limit
	}
	return res, nil
}

// CreateOrder creates a new order from the partial payload. The server
// assigns identity and order number.
func (c *Client) CreateOrder(ctx context.Context, patch domain.OrderPatch) (*domain.Order, error) {
	var env struct {
		Data domain.Order `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders.php", patch, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// GetOrder fetches a single order by id.
func (c *Client) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var env struct {
		Data domain.Order `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/order.php/"+url.PathEscape(id), nil, &env); err != nil {
		return nil, asNotFound(err, id)
	}
	return &env.Data, nil
}

// UpdateOrder sends a partial patch and returns the server's canonical row.
func (c *Client) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	var env struct {
		Data domain.Order `json:"data"`
	}
	if err := c.do(ctx, http.MethodPut, "/order.php/"+url.PathEscape(id), patch, &env); err != nil {
		return nil, asNotFound(err, id)
	}
	return &env.Data, nil
}

// DeleteOrder removes an order. Deleting an already-deleted id yields
// ErrNotFound.
func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/order.php/"+url.PathEscape(id), nil, nil); err != nil {
		return asNotFound(err, id)
	}
	return nil
}

// DuplicateOrder asks the server to clone the order under a new identity and
// order number.
func (c *Client) DuplicateOrder(ctx context.Context, id string) (*domain.Order, error) {
	var env struct {
		Data domain.Order `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/order.php/"+url.PathEscape(id), actionBody{Action: "duplicate"}, &env); err != nil {
		return nil, asNotFound(err, id)
	}
	return &env.Data, nil
}

// ConfirmPayment marks the order paid on the server.
func (c *Client) ConfirmPayment(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPost, "/order.php/"+url.PathEscape(id), actionBody{Action: "confirm_payment"}, nil); err != nil {
		return asNotFound(err, id)
	}
	return nil
}

// ProvisionResource triggers provisioning on the server. The outcome shows up
// in the order's resource_status on the next fetch.
func (c *Client) ProvisionResource(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodPost, "/order.php/"+url.PathEscape(id), actionBody{Action: "provision_resource"}, nil); err != nil {
		return asNotFound(err, id)
	}
	return nil
}

// ExportCSV downloads the server-generated CSV of the full collection.
func (c *Client) ExportCSV(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/export.php", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	c.logger.Debug("api request", zap.String("method", http.MethodGet), zap.String("path", "/export.php"))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, "GET /export.php", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.ErrNetwork{Operation: "GET /export.php", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpError(resp.StatusCode, resp.Status, body)
	}
	return body, nil
}

// ImportCSV uploads a CSV file as multipart form data under the "file" field.
func (c *Client) ImportCSV(ctx context.Context, filename string, content io.Reader) (*ImportResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/import", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Debug("api request", zap.String("method", http.MethodPost), zap.String("path", "/import"))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, "POST /import", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.ErrNetwork{Operation: "POST /import", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, httpError(resp.StatusCode, resp.Status, body)
	}

	var env struct {
		Data ImportResult `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal import response: %w", err)
	}
	return &env.Data, nil
}

type actionBody struct {
	Action string `json:"action"`
}

// do executes one JSON request/response cycle against the backend.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	op := method + " " + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("api request", zap.String("method", method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.ErrNetwork{Operation: op, Err: err}
	}

	c.logger.Debug("api response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpError(resp.StatusCode, resp.Status, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// transportError classifies a failed round trip: deadline exceeded is a
// Timeout, everything else a network failure.
func transportError(ctx context.Context, op string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return &errors.ErrTimeout{Operation: op}
	}
	return &errors.ErrNetwork{Operation: op, Err: err}
}

// httpError builds an ErrHTTP from a non-2xx response, preferring the
// server's {message} body.
func httpError(status int, statusText string, body []byte) error {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return &errors.ErrHTTP{Status: status, Message: payload.Message}
	}
	text := strings.TrimPrefix(statusText, strconv.Itoa(status)+" ")
	return &errors.ErrHTTP{Status: status, Message: fmt.Sprintf("HTTP %d: %s", status, text)}
}

// asNotFound rewrites a 404 into ErrNotFound for id-addressed operations.
func asNotFound(err error, id string) error {
	if he, ok := err.(*errors.ErrHTTP); ok && he.Status == http.StatusNotFound {
		return &errors.ErrNotFound{Resource: "order", ID: id}
	}
	return err
}
