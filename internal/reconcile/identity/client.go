package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/reconcile/models"
)

// Provider type codes that identify a failure independently of its message.
const (
	typeInvalidCredentials = "user_invalid_credentials"
	typeUserNotFound       = "user_not_found"
	typeUserAlreadyExists  = "user_already_exists"
	typeEmailAlreadyExists = "user_email_already_exists"
	typeRateLimitExceeded  = "general_rate_limit_exceeded"
)

const maxErrorBody = 64 << 10

// ClientConfig configures the hosted identity service client.
type ClientConfig struct {
	BaseURL   string
	ProjectID string
	// APIKey enables server-side calls. Without it AccountExists is unsupported.
	APIKey  string
	Timeout time.Duration
}

// Client talks to the hosted identity service over its REST API.
type Client struct {
	baseURL    string
	projectID  string
	apiKey     string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient overrides the transport, mainly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient builds a client. BaseURL and ProjectID are required.
func NewClient(cfg ClientConfig, opts ...ClientOption) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("identity base URL is required")
	}
	if cfg.ProjectID == "" {
		return nil, errors.New("identity project id is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		projectID:  cfg.ProjectID,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SupportsExistenceCheck reports whether AccountExists can be used.
func (c *Client) SupportsExistenceCheck() bool {
	return c.apiKey != ""
}

type sessionResponse struct {
	ID     string    `json:"$id"`
	UserID string    `json:"userId"`
	Expire time.Time `json:"expire"`
}

type accountResponse struct {
	ID    string `json:"$id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type tokenResponse struct {
	ID     string    `json:"$id"`
	UserID string    `json:"userId"`
	Expire time.Time `json:"expire"`
}

type userListResponse struct {
	Total int `json:"total"`
}

type errorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

func (c *Client) CreateSession(ctx context.Context, email, password string) (*models.Session, error) {
	var out sessionResponse
	err := c.do(ctx, "create_session", http.MethodPost, "/account/sessions/email", false, map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &models.Session{ID: out.ID, AccountID: out.UserID, Email: email, ExpiresAt: out.Expire}, nil
}

func (c *Client) CreateAccount(ctx context.Context, id, email, password, displayName string) (*models.IdentityAccount, error) {
	var out accountResponse
	err := c.do(ctx, "create_account", http.MethodPost, "/account", false, map[string]string{
		"userId":   id,
		"email":    email,
		"password": password,
		"name":     displayName,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &models.IdentityAccount{ID: out.ID, Email: out.Email, DisplayName: out.Name}, nil
}

func (c *Client) StartRecovery(ctx context.Context, email, callbackURL string) (*models.RecoveryToken, error) {
	var out tokenResponse
	err := c.do(ctx, "start_recovery", http.MethodPost, "/account/recovery", false, map[string]string{
		"email": email,
		"url":   callbackURL,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &models.RecoveryToken{ID: out.ID, AccountID: out.UserID, ExpiresAt: out.Expire}, nil
}

// AccountExists looks the email up through the server API. Requires an API key.
func (c *Client) AccountExists(ctx context.Context, email string) (bool, error) {
	if !c.SupportsExistenceCheck() {
		return false, NewError(KindOther, "account_exists", "existence check requires an API key", nil)
	}
	var out userListResponse
	path := "/users?" + url.Values{"email": []string{email}}.Encode()
	if err := c.do(ctx, "account_exists", http.MethodGet, path, true, nil, &out); err != nil {
		return false, err
	}
	return out.Total > 0, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, server bool, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return NewError(KindOther, op, "encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return NewError(KindOther, op, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Identity-Project", c.projectID)
	if server {
		req.Header.Set("X-Identity-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewError(transportKind(err), op, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return NewError(KindOther, op, "decode response", err)
		}
		return nil
	}

	var apiErr errorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(raw, &apiErr)
	return NewError(classify(resp.StatusCode, apiErr.Type), op,
		fmt.Sprintf("status %d type %q", resp.StatusCode, apiErr.Type), nil)
}

// classify maps a provider response to a kind. The type code wins over the
// status; the message text is never consulted.
func classify(status int, typeCode string) ErrorKind {
	switch typeCode {
	case typeInvalidCredentials:
		return KindInvalidCredentials
	case typeUserNotFound:
		return KindNotFound
	case typeUserAlreadyExists, typeEmailAlreadyExists:
		return KindCollision
	case typeRateLimitExceeded:
		return KindRateLimited
	}

	switch {
	case status == http.StatusUnauthorized:
		return KindInvalidCredentials
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindCollision
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500:
		return KindUnavailable
	default:
		return KindOther
	}
}

func transportKind(err error) ErrorKind {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return KindUnavailable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindUnavailable
	}
	return KindOther
}
