package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tradecontrol/src/activation"
	"tradecontrol/src/controlplane"
	"tradecontrol/src/orders"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

const (
	apiPrefix              = "/api/v1/control"
	defaultRetryAttempts   = 3
	defaultRetryBaseDelay  = 300 * time.Millisecond
	defaultRetryMaxBackoff = 3 * time.Second
)

// APIError is a non-2xx answer from the control API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("control api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("control api: %s: %s", e.Code, e.Message)
}

// Client talks to a running control API on behalf of one user.
type Client struct {
	http *resty.Client
}

func New(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(baseURL+apiPrefix).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader(cfg.IdentityHeader, cfg.UserID).
		SetError(&APIError{}).
		SetRetryCount(defaultRetryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &Client{http: httpClient}
}

// isRetryableResp retries reads only. Mutations are never replayed because
// a timed out write may still have been applied.
func isRetryableResp(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	code := r.StatusCode()
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	req := c.http.R().SetContext(ctx).SetResult(result)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		logger.WithError(err).WithField("path", path).Error("control api request failed")
		return err
	}
	if resp.IsError() {
		apiErr, ok := resp.Error().(*APIError)
		if !ok || apiErr == nil {
			apiErr = &APIError{Message: strings.TrimSpace(resp.String())}
		}
		apiErr.Status = resp.StatusCode()
		return apiErr
	}
	return nil
}

func (c *Client) Status(ctx context.Context) (*controlplane.Snapshot, error) {
	var snap controlplane.Snapshot
	if err := c.do(ctx, http.MethodGet, "/", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) ToggleAccount(ctx context.Context) (bool, error) {
	var resp struct {
		AccountActive bool `json:"account_active"`
	}
	if err := c.do(ctx, http.MethodPost, "/account/toggle", nil, &resp); err != nil {
		return false, err
	}
	return resp.AccountActive, nil
}

func (c *Client) StartEngine(ctx context.Context) (*activation.Engine, error) {
	return c.engine(ctx, "/engine/start")
}

func (c *Client) StopEngine(ctx context.Context) (*activation.Engine, error) {
	return c.engine(ctx, "/engine/stop")
}

func (c *Client) engine(ctx context.Context, path string) (*activation.Engine, error) {
	var engine activation.Engine
	if err := c.do(ctx, http.MethodPost, path, nil, &engine); err != nil {
		return nil, err
	}
	return &engine, nil
}

// SubmitOrder queues a manual order and returns its id.
func (c *Client) SubmitOrder(ctx context.Context, req orders.Request) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}
