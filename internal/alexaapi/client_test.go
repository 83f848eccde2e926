package alexaapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"meetremind/internal/reminder"
	logx "meetremind/pkg/logx"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, string) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(Config{Timeout: 2 * time.Second}, logx.Nop()).WithHTTPClient(srv.Client())
	return c, srv.URL
}

// seenRequest is what a test server observed. Handlers run on the server
// goroutine, so they only record; assertions happen in the test.
type seenRequest struct {
	method, path, auth, contentType string
	body                            []byte
}

func record(r *http.Request) seenRequest {
	body, _ := io.ReadAll(r.Body)
	return seenRequest{
		method:      r.Method,
		path:        r.URL.EscapedPath(),
		auth:        r.Header.Get("Authorization"),
		contentType: r.Header.Get("Content-Type"),
		body:        body,
	}
}

func TestTimeZone(t *testing.T) {
	t.Parallel()
	seen := make(chan seenRequest, 1)
	c, endpoint := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen <- record(r)
		_, _ = io.WriteString(w, `"Asia/Tokyo"`)
	})

	zone, err := c.TimeZone(context.Background(), endpoint+"/", "tok-1", "dev/1")
	require.NoError(t, err)
	require.Equal(t, "Asia/Tokyo", zone)

	got := <-seen
	require.Equal(t, http.MethodGet, got.method)
	require.Equal(t, "/v2/devices/dev%2F1/settings/System.timeZone", got.path)
	require.Equal(t, "Bearer tok-1", got.auth)
}

func TestTimeZoneEmpty(t *testing.T) {
	t.Parallel()
	c, endpoint := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `""`)
	})
	_, err := c.TimeZone(context.Background(), endpoint, "tok", "dev")
	require.ErrorIs(t, err, ErrEmptyZone)
}

func TestCreateReminder(t *testing.T) {
	t.Parallel()
	seen := make(chan seenRequest, 1)
	c, endpoint := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen <- record(r)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"alertToken":"a-1","status":"ON","version":"1"}`)
	})

	loc := time.FixedZone("JST", 9*3600)
	req := reminder.Request{Trigger: time.Date(2024, 1, 1, 14, 20, 0, 0, loc), Title: "t", Notify: true}
	resp, err := c.CreateReminder(context.Background(), endpoint, "tok-2", req.Wire())
	require.NoError(t, err)
	require.Equal(t, "a-1", resp.AlertToken)
	require.Equal(t, "ON", resp.Status)

	sr := <-seen
	require.Equal(t, http.MethodPost, sr.method)
	require.Equal(t, "/v1/alerts/reminders", sr.path)
	require.Equal(t, "Bearer tok-2", sr.auth)
	require.Equal(t, "application/json", sr.contentType)
	var got reminder.WireRequest
	require.NoError(t, json.Unmarshal(sr.body, &got))
	require.Equal(t, "2024-01-01T14:20:00", got.Trigger.ScheduledTime)
	require.Equal(t, "SCHEDULED_ABSOLUTE", got.Trigger.Type)
	require.Equal(t, "ENABLED", got.PushNotification.Status)
}

func TestServiceErrors(t *testing.T) {
	t.Parallel()
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError} {
		status := status
		c, endpoint := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"code":"DENIED","message":"nope"}`)
		})
		_, err := c.CreateReminder(context.Background(), endpoint, "tok", reminder.WireRequest{})
		require.Error(t, err)

		var se *ServiceError
		require.True(t, errors.As(err, &se))
		require.Equal(t, status, se.StatusCode)
		require.Equal(t, ServiceReminders, se.Service)
		require.Equal(t, "DENIED", se.Code)
		require.Equal(t, "nope", se.Message)
		require.Equal(t, status, StatusCode(err))
	}
}

func TestServiceErrorWithoutBody(t *testing.T) {
	t.Parallel()
	c, endpoint := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	_, err := c.TimeZone(context.Background(), endpoint, "tok", "dev")
	require.Equal(t, http.StatusForbidden, StatusCode(err))
	require.True(t, strings.Contains(err.Error(), "Forbidden"))
}

func TestPreconditions(t *testing.T) {
	t.Parallel()
	c := New(Config{}, logx.Nop())
	ctx := context.Background()

	_, err := c.TimeZone(ctx, "", "tok", "dev")
	require.ErrorIs(t, err, ErrNoEndpoint)
	_, err = c.TimeZone(ctx, "https://api.example", "", "dev")
	require.ErrorIs(t, err, ErrNoToken)
	_, err = c.TimeZone(ctx, "https://api.example", "tok", " ")
	require.ErrorIs(t, err, ErrNoDevice)
	require.Zero(t, StatusCode(err))
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `"`+strings.Repeat("x", 64)+`"`)
	}))
	t.Cleanup(srv.Close)
	c := New(Config{MaxBodyBytes: 16}, logx.Nop()).WithHTTPClient(srv.Client())
	_, err := c.TimeZone(context.Background(), srv.URL, "tok", "dev")
	require.ErrorIs(t, err, ErrBodyTooLarge)
}
