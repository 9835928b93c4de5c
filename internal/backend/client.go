// Package backend is the HTTP client for the storefront backend API.
//
// Every authenticated call takes the caller's token explicitly and fails
// with ErrMissingCredentials, without touching the network, when it is
// empty. Responses are decoded from the shared {success, message, ...}
// envelope into either a payload or one of APIError / TransportError.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront-admin/internal/models"

	"github.com/rs/zerolog"
)

// Operation names, used for errors, logs and metric labels.
const (
	OpAuthenticate      = "authenticate"
	OpCreateProduct     = "create_product"
	OpListProducts      = "list_products"
	OpRemoveProduct     = "remove_product"
	OpListOrders        = "list_orders"
	OpUpdateOrderStatus = "update_order_status"
)

const (
	pathAdminLogin    = "/api/user/admin"
	pathProductAdd    = "/api/product/add"
	pathProductList   = "/api/product/list"
	pathProductRemove = "/api/product/remove"
	pathOrderList     = "/api/order/list"
	pathOrderStatus   = "/api/order/status"
)

const endpointNotFoundMessage = "endpoint not found on server"

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger
	metrics    *Metrics
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}

	return c
}

// newJSONRequest builds a request whose body is body encoded as JSON.
// A nil body sends no payload.
func (c *Client) newJSONRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func authorize(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

// do sends req and decodes the envelope. The returned envelope always has
// Success set; every other outcome is an error.
func (c *Client) do(op string, req *http.Request) (*models.Envelope, error) {
	start := time.Now()
	env, err := c.roundTrip(op, req)
	elapsed := time.Since(start)

	outcome := outcomeOf(err)
	c.metrics.observe(op, outcome, elapsed)

	event := c.logger.Debug()
	if err != nil {
		event = c.logger.Warn().Err(err)
	}
	event.
		Str("operation", op).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("outcome", outcome).
		Dur("duration", elapsed).
		Msg("Backend call")

	return env, err
}

func (c *Client) roundTrip(op string, req *http.Request) (*models.Envelope, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	var env models.Envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		switch {
		case decodeErr == nil && env.Message != "":
			return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Message: env.Message}
		case bytes.Contains(body, []byte("Cannot POST")) || bytes.Contains(body, []byte("Cannot GET")):
			return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Message: endpointNotFoundMessage}
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, &APIError{Op: op, StatusCode: resp.StatusCode}
		default:
			return nil, &TransportError{Op: op, Err: fmt.Errorf("server returned %d", resp.StatusCode)}
		}
	}

	if decodeErr != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("malformed response: %w", decodeErr)}
	}
	if !env.Success {
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Message: env.Message}
	}
	return &env, nil
}

func outcomeOf(err error) string {
	var apiErr *APIError
	var transportErr *TransportError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrMissingCredentials):
		return OutcomeMissingCredentials
	case errors.Is(err, ErrUnauthorized):
		return OutcomeUnauthorized
	case errors.As(err, &apiErr):
		return OutcomeAPIError
	case errors.As(err, &transportErr):
		return OutcomeTransportError
	default:
		return OutcomeTransportError
	}
}

// refuse short-circuits an authenticated call made without a token.
func (c *Client) refuse(op string) error {
	c.metrics.observe(op, OutcomeMissingCredentials, 0)
	c.logger.Debug().Str("operation", op).Msg("Backend call skipped, no token")
	return fmt.Errorf("%s: %w", op, ErrMissingCredentials)
}

// decodeList decodes the first non-empty raw payload into dst.
func decodeList(op string, dst any, candidates ...json.RawMessage) error {
	for _, raw := range candidates {
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("malformed payload: %w", err)}
		}
		return nil
	}
	return nil
}
