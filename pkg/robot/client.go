package robot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
)

const (
	triggerPath                 = "/trigger.php"
	responseBodyReadLimit int64 = 1024
	defaultTimeout              = 15 * time.Second
)

var errBaseURLRequired = errors.New("robot gateway base url is required")

// Dispenser is the surface the jobcards service depends on. The approval
// transaction calls it exactly once per successful approval.
type Dispenser interface {
	Trigger(ctx context.Context, taskName, material string) (int64, error)
}

// Client talks to the robot dispensing gateway over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds the gateway round trip.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a gateway client for the configured base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Trigger submits a dispensing task and returns the gateway-assigned task id.
// The call is made at most once; callers decide how to handle failure, there
// is no retry here.
func (c *Client) Trigger(ctx context.Context, taskName, material string) (int64, error) {
	form := url.Values{}
	form.Set("task", taskName)
	form.Set("material", material)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+triggerPath, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeRobotGateway, err, "build dispense request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeRobotGateway, err, "robot gateway unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeRobotGateway, err, "read gateway response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, pkgerrors.New(pkgerrors.CodeRobotGateway, fmt.Sprintf("robot gateway returned status %d", resp.StatusCode)).
			WithDetails(map[string]any{"status": resp.StatusCode, "body": strings.TrimSpace(string(body))})
	}

	taskID, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeRobotGateway, "robot gateway returned a non-numeric task id").
			WithDetails(map[string]any{"body": strings.TrimSpace(string(body))})
	}
	return taskID, nil
}
