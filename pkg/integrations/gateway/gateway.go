// Package gateway implements the device, alarm and notification services
// against a field gateway that speaks JSON over HTTP.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fieldflow/orchestrator/pkg/log"
	"github.com/fieldflow/orchestrator/pkg/protocol"
)

const (
	DefaultTimeout   = 30 * time.Second
	maxResponseBytes = 1 << 20
)

var ErrMissingBaseURL = errors.New("gateway base url is required")

// StatusError is returned for non-2xx gateway responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

type Client struct {
	baseURL *url.URL
	client  *http.Client
	token   string
	logger  *slog.Logger
}

var (
	_ protocol.DeviceService       = (*Client)(nil)
	_ protocol.AlarmService        = (*Client)(nil)
	_ protocol.NotificationService = (*Client)(nil)
)

type Option func(*Client)

// WithHTTPClient replaces the default client with a DefaultTimeout.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.With("module", "gateway")
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrMissingBaseURL
	}

	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid gateway url %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL: parsed,
		client:  &http.Client{Timeout: DefaultTimeout},
		logger:  log.Discard(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Client) Query(ctx context.Context, deviceID string, fields []string) (map[string]any, error) {
	var out map[string]any

	err := c.do(ctx, http.MethodPost, devicePath(deviceID, "query"), nil, map[string]any{"fields": fields}, &out)

	return out, err
}

func (c *Client) Control(ctx context.Context, deviceID, command string, params map[string]any) (map[string]any, error) {
	var out map[string]any

	body := map[string]any{"command": command, "params": params}
	err := c.do(ctx, http.MethodPost, devicePath(deviceID, "control"), nil, body, &out)

	return out, err
}

func (c *Client) CollectData(ctx context.Context, deviceID string, points []string) (map[string]any, error) {
	var out map[string]any

	err := c.do(ctx, http.MethodPost, devicePath(deviceID, "data"), nil, map[string]any{"points": points}, &out)

	return out, err
}

func (c *Client) GetStatus(ctx context.Context, deviceID string) (string, error) {
	var out struct {
		Status string `json:"status"`
	}

	if err := c.do(ctx, http.MethodGet, devicePath(deviceID, "status"), nil, nil, &out); err != nil {
		return "", err
	}

	return out.Status, nil
}

func (c *Client) Trigger(ctx context.Context, alarm protocol.Alarm) (string, error) {
	var out struct {
		ID string `json:"id"`
	}

	if err := c.do(ctx, http.MethodPost, "/alarms", nil, alarm, &out); err != nil {
		return "", err
	}

	return out.ID, nil
}

// Clear resolves an alarm by id, or every open alarm of deviceID when
// alarmID is empty.
func (c *Client) Clear(ctx context.Context, alarmID, deviceID string) error {
	query := url.Values{}
	if deviceID != "" {
		query.Set("device_id", deviceID)
	}

	path := "/alarms"
	if alarmID != "" {
		path += "/" + url.PathEscape(alarmID)
	}

	return c.do(ctx, http.MethodDelete, path, query, nil, nil)
}

func (c *Client) SendEmail(ctx context.Context, msg protocol.Message) error {
	msg.Channel = "email"

	return c.Send(ctx, msg)
}

func (c *Client) SendSMS(ctx context.Context, msg protocol.Message) error {
	msg.Channel = "sms"

	return c.Send(ctx, msg)
}

func (c *Client) Send(ctx context.Context, msg protocol.Message) error {
	channel := msg.Channel
	if channel == "" {
		channel = "default"
	}

	return c.do(ctx, http.MethodPost, "/notifications/"+url.PathEscape(channel), nil, msg, nil)
}

func devicePath(deviceID, action string) string {
	return "/devices/" + url.PathEscape(deviceID) + "/" + action
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	// path segments are already escaped
	target := c.baseURL.String() + path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	var body io.Reader

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode gateway request: %w", err)
		}

		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create gateway request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s %s failed: %w", method, path, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	c.logger.DebugContext(ctx, "Gateway call", "method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return nil
}
