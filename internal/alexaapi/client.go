// Package alexaapi talks to the voice platform's device settings and
// reminder management APIs on behalf of a single request.
package alexaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"meetremind/internal/reminder"
	logx "meetremind/pkg/logx"
)

const (
	defaultTimeout      = 8 * time.Second
	defaultMaxBodyBytes = 64 << 10

	timeZonePath  = "/v2/devices/%s/settings/System.timeZone"
	remindersPath = "/v1/alerts/reminders"
)

type Config struct {
	Timeout      time.Duration
	RatePerSec   int // 0 disables the outbound limiter
	MaxBodyBytes int64
}

// Client is safe for concurrent use. Credentials are per call: every
// request carries its own short-lived access token.
type Client struct {
	base    *http.Client
	limiter *rate.Limiter
	maxBody int64
	log     logx.Logger
}

// ReminderResponse is the body returned on successful creation.
type ReminderResponse struct {
	AlertToken  string `json:"alertToken"`
	CreatedTime string `json:"createdTime"`
	UpdatedTime string `json:"updatedTime"`
	Status      string `json:"status"`
	Version     string `json:"version"`
	Href        string `json:"href"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func New(cfg Config, log logx.Logger) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	limit := rate.Inf
	burst := 1
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
		burst = cfg.RatePerSec
	}
	return &Client{
		base:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		maxBody: maxBody,
		log:     log,
	}
}

// WithHTTPClient replaces the underlying transport client. Tests point it
// at an httptest server.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	cp := *c
	cp.base = hc
	return &cp
}

// authed wraps the base client with a bearer token source for one call.
func (c *Client) authed(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
}

// TimeZone returns the IANA time zone configured on deviceID.
func (c *Client) TimeZone(ctx context.Context, endpoint, token, deviceID string) (string, error) {
	if strings.TrimSpace(deviceID) == "" {
		return "", ErrNoDevice
	}
	u, err := buildURL(endpoint, fmt.Sprintf(timeZonePath, url.PathEscape(deviceID)))
	if err != nil {
		return "", err
	}
	var zone string
	if err := c.do(ctx, ServiceTimeZone, http.MethodGet, u, token, nil, &zone); err != nil {
		return "", err
	}
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return "", ErrEmptyZone
	}
	return zone, nil
}

// CreateReminder books one reminder.
func (c *Client) CreateReminder(ctx context.Context, endpoint, token string, req reminder.WireRequest) (*ReminderResponse, error) {
	u, err := buildURL(endpoint, remindersPath)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal reminder: %w", err)
	}
	var out ReminderResponse
	if err := c.do(ctx, ServiceReminders, http.MethodPost, u, token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, service, method, u, token string, body []byte, out any) error {
	if strings.TrimSpace(token) == "" {
		return ErrNoToken
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit wait: %w", service, err)
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", service, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.authed(ctx, token).Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", service, err)
	}
	defer resp.Body.Close()

	data, err := readLimited(resp.Body, c.maxBody)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", service, err)
	}

	c.log.Debug("platform api call",
		logx.String("service", service),
		logx.String("method", method),
		logx.Int("status", resp.StatusCode),
		logx.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &ServiceError{Service: service, StatusCode: resp.StatusCode}
		var eb errorBody
		if len(data) > 0 && json.Unmarshal(data, &eb) == nil {
			se.Code = eb.Code
			se.Message = eb.Message
		}
		return se
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", service, err)
	}
	return nil
}

func buildURL(endpoint, path string) (string, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return "", ErrNoEndpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return "", fmt.Errorf("alexaapi: bad endpoint %q: %w", endpoint, err)
	}
	return endpoint + path, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}
