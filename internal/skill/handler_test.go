package skill

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"meetremind/internal/alexa"
	"meetremind/internal/alexaapi"
	"meetremind/internal/metrics"
	"meetremind/internal/reminder"
	logx "meetremind/pkg/logx"
)

type fakeAPI struct {
	mu      sync.Mutex
	zone    string
	zoneErr error
	// failAt fails the n-th CreateReminder call (1-based); 0 never fails.
	failAt    int
	createErr error

	calls   []string
	created []reminder.WireRequest
}

func (f *fakeAPI) TimeZone(_ context.Context, endpoint, token, deviceID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "timezone")
	if f.zoneErr != nil {
		return "", f.zoneErr
	}
	return f.zone, nil
}

func (f *fakeAPI) CreateReminder(_ context.Context, endpoint, token string, req reminder.WireRequest) (*alexaapi.ReminderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create")
	n := 0
	for _, c := range f.calls {
		if c == "create" {
			n++
		}
	}
	if f.failAt != 0 && n == f.failAt {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &alexaapi.ReminderResponse{AlertToken: "tok", Status: "ON"}, nil
}

func tokyo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	return loc
}

func newTestHandler(api PlatformAPI, now time.Time, opts Options) *Handler {
	opts.Now = func() time.Time { return now }
	return NewHandler(api, reminder.DefaultCatalog(), opts, logx.Nop())
}

func dateTimeEnvelope(status alexa.ConfirmationStatus, date, clock string) *alexa.RequestEnvelope {
	env := &alexa.RequestEnvelope{Version: "1.0"}
	env.Context.System.APIEndpoint = "https://api.example"
	env.Context.System.APIAccessToken = "access"
	env.Context.System.Device.DeviceID = "device-1"
	env.Context.System.Application.ApplicationID = "amzn1.ask.skill.test"
	env.Request = alexa.Request{
		Type:      alexa.RequestIntent,
		RequestID: "req-1",
		Intent: &alexa.Intent{
			Name:               alexa.IntentDateTime,
			ConfirmationStatus: status,
			Slots: map[string]alexa.Slot{
				alexa.SlotDate: {Name: alexa.SlotDate, Value: date},
				alexa.SlotTime: {Name: alexa.SlotTime, Value: clock},
			},
		},
	}
	return env
}

func speech(env alexa.ResponseEnvelope) string { return env.Response.OutputSpeech.SpeechText() }

func TestDateTimeScenarios(t *testing.T) {
	t.Parallel()
	loc := tokyo(t)
	cat := reminder.DefaultCatalog()

	tests := []struct {
		name    string
		now     time.Time
		want    string
		created []string
	}{
		{
			name:    "both in future",
			now:     time.Date(2024, 6, 3, 10, 0, 0, 0, loc),
			want:    "2024年06月3日、14:20と14:29" + cat.ReminderSet,
			created: []string{"2024-06-03T14:20:00", "2024-06-03T14:29:00"},
		},
		{
			name:    "ten minute trigger passed",
			now:     time.Date(2024, 6, 3, 14, 25, 0, 0, loc),
			want:    "2024年06月3日、14:29" + cat.ReminderSet,
			created: []string{"2024-06-03T14:29:00"},
		},
		{
			name: "meeting already started",
			now:  time.Date(2024, 6, 3, 14, 30, 0, 0, loc),
			want: cat.NoReminderSet,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			api := &fakeAPI{zone: "Asia/Tokyo"}
			h := newTestHandler(api, tt.now, Options{})

			resp, err := h.Handle(context.Background(), dateTimeEnvelope(alexa.ConfirmationConfirmed, "2024-06-03", "14:30"))
			require.NoError(t, err)
			require.Equal(t, tt.want, speech(resp))
			require.Nil(t, resp.Response.Reprompt)

			var got []string
			for _, c := range api.created {
				got = append(got, c.Trigger.ScheduledTime)
			}
			require.Equal(t, tt.created, got)
			require.Equal(t, "timezone", api.calls[0])
		})
	}
}

func TestDateTimeTitlesAndOrder(t *testing.T) {
	t.Parallel()
	loc := tokyo(t)
	cat := reminder.DefaultCatalog()
	api := &fakeAPI{zone: "Asia/Tokyo"}
	h := newTestHandler(api, time.Date(2024, 6, 3, 9, 0, 0, 0, loc), Options{})

	_, err := h.Handle(context.Background(), dateTimeEnvelope(alexa.ConfirmationConfirmed, "2024-06-03", "10:00"))
	require.NoError(t, err)
	require.Equal(t, []string{"timezone", "create", "create"}, api.calls)
	require.Len(t, api.created, 2)
	require.Equal(t, cat.TenMinutesTitle, api.created[0].AlertInfo.SpokenInfo.Content[0].Text)
	require.Equal(t, cat.OneMinuteTitle, api.created[1].AlertInfo.SpokenInfo.Content[0].Text)
}

func TestDateTimeConfirmation(t *testing.T) {
	t.Parallel()
	cat := reminder.DefaultCatalog()

	t.Run("denied", func(t *testing.T) {
		t.Parallel()
		api := &fakeAPI{zone: "Asia/Tokyo"}
		h := newTestHandler(api, time.Now(), Options{})
		resp, err := h.Handle(context.Background(), dateTimeEnvelope(alexa.ConfirmationDenied, "", "14:30"))
		require.NoError(t, err)
		require.Equal(t, cat.Denied, speech(resp))
		require.NotNil(t, resp.Response.Reprompt)
		require.Empty(t, api.calls)
	})

	for _, status := range []alexa.ConfirmationStatus{"", alexa.ConfirmationNone, "MAYBE"} {
		status := status
		t.Run("delegate "+string(status), func(t *testing.T) {
			t.Parallel()
			api := &fakeAPI{zone: "Asia/Tokyo"}
			h := newTestHandler(api, time.Now(), Options{})
			resp, err := h.Handle(context.Background(), dateTimeEnvelope(status, "", "14:30"))
			require.NoError(t, err)
			require.Nil(t, resp.Response.OutputSpeech)
			require.Len(t, resp.Response.Directives, 1)
			require.Equal(t, "Dialog.Delegate", resp.Response.Directives[0].Type)
			require.Empty(t, api.calls)
		})
	}
}

func TestDateTimeMissingConsent(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{zone: "Asia/Tokyo"}
	h := newTestHandler(api, time.Now(), Options{})
	env := dateTimeEnvelope(alexa.ConfirmationConfirmed, "", "14:30")
	env.Context.System.APIAccessToken = ""

	resp, err := h.Handle(context.Background(), env)
	require.NoError(t, err)
	require.Equal(t, reminder.DefaultCatalog().NotifyMissingPermissions, speech(resp))
	require.NotNil(t, resp.Response.Card)
	require.Equal(t, []string{alexa.ScopeRemindersReadWrite}, resp.Response.Card.Permissions)
	require.Empty(t, api.calls)
}

func TestDateTimeNoTime(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{zone: "Asia/Tokyo"}
	h := newTestHandler(api, time.Now(), Options{})

	resp, err := h.Handle(context.Background(), dateTimeEnvelope(alexa.ConfirmationConfirmed, "2024-06-03", ""))
	require.NoError(t, err)
	require.Equal(t, reminder.DefaultCatalog().NoValue, speech(resp))
	require.Equal(t, []string{"timezone"}, api.calls)
}

func TestDateTimeInvalidSlot(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{zone: "Asia/Tokyo"}
	h := newTestHandler(api, time.Now(), Options{})

	resp, err := h.Handle(context.Background(), dateTimeEnvelope(alexa.ConfirmationConfirmed, "2024-W23", "14:30"))
	require.NoError(t, err)
	require.Equal(t, reminder.DefaultCatalog().Fallback, speech(resp))
	require.NotNil(t, resp.Response.Reprompt)
	require.Empty(t, api.created)
}

func TestDateTimeErrors(t *testing.T) {
	t.Parallel()
	cat := reminder.DefaultCatalog()
	unauthorized := &alexaapi.ServiceError{Service: alexaapi.ServiceReminders, StatusCode: http.StatusUnauthorized}
	forbidden := &alexaapi.ServiceError{Service: alexaapi.ServiceReminders, StatusCode: http.StatusForbidden}
	unavailable := &alexaapi.ServiceError{Service: alexaapi.ServiceReminders, StatusCode: http.StatusServiceUnavailable}

	tests := []struct {
		name     string
		api      *fakeAPI
		want     string
		card     bool
		reprompt bool
	}{
		{name: "create 401", api: &fakeAPI{zone: "Asia/Tokyo", failAt: 1, createErr: unauthorized}, want: cat.PermissionsRequired, card: true},
		{name: "create 403", api: &fakeAPI{zone: "Asia/Tokyo", failAt: 1, createErr: forbidden}, want: cat.UnsupportedDevice, reprompt: true},
		{name: "create 503", api: &fakeAPI{zone: "Asia/Tokyo", failAt: 1, createErr: unavailable}, want: cat.StatusUnknown},
		{name: "timezone 401", api: &fakeAPI{zoneErr: &alexaapi.ServiceError{Service: alexaapi.ServiceTimeZone, StatusCode: 401}}, want: cat.PermissionsRequired, card: true},
		{name: "transport failure", api: &fakeAPI{zoneErr: errors.New("dial tcp: refused")}, want: cat.StatusUnknown},
		{name: "unknown zone", api: &fakeAPI{zone: "Mars/Olympus_Mons"}, want: cat.StatusUnknown},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newTestHandler(tt.api, time.Date(2024, 6, 3, 9, 0, 0, 0, tokyo(t)), Options{})
			resp, err := h.Handle(context.Background(), dateTimeEnvelope(alexa.ConfirmationConfirmed, "2024-06-03", "14:30"))
			require.NoError(t, err)
			require.Equal(t, tt.want, speech(resp))
			require.Equal(t, tt.card, resp.Response.Card != nil)
			require.Equal(t, tt.reprompt, resp.Response.Reprompt != nil)
		})
	}
}

func TestPartialFailureKeepsFirstReminder(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{
		zone:      "Asia/Tokyo",
		failAt:    2,
		createErr: &alexaapi.ServiceError{Service: alexaapi.ServiceReminders, StatusCode: 500},
	}
	h := newTestHandler(api, time.Date(2024, 6, 3, 9, 0, 0, 0, tokyo(t)), Options{})

	resp, err := h.Handle(context.Background(), dateTimeEnvelope(alexa.ConfirmationConfirmed, "2024-06-03", "14:30"))
	require.NoError(t, err)
	require.Equal(t, reminder.DefaultCatalog().StatusUnknown, speech(resp))
	require.Len(t, api.created, 1)
	require.Equal(t, "2024-06-03T14:20:00", api.created[0].Trigger.ScheduledTime)
}

func TestParallelCreate(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{zone: "Asia/Tokyo"}
	h := newTestHandler(api, time.Date(2024, 6, 3, 9, 0, 0, 0, tokyo(t)), Options{ParallelCreate: true})

	resp, err := h.Handle(context.Background(), dateTimeEnvelope(alexa.ConfirmationConfirmed, "2024-06-03", "14:30"))
	require.NoError(t, err)
	require.Contains(t, speech(resp), reminder.DefaultCatalog().ReminderSet)

	var got []string
	for _, c := range api.created {
		got = append(got, c.Trigger.ScheduledTime)
	}
	require.ElementsMatch(t, []string{"2024-06-03T14:20:00", "2024-06-03T14:29:00"}, got)
}

func TestSimpleKinds(t *testing.T) {
	t.Parallel()
	cat := reminder.DefaultCatalog()
	intent := func(name string) *alexa.RequestEnvelope {
		return &alexa.RequestEnvelope{Request: alexa.Request{Type: alexa.RequestIntent, Intent: &alexa.Intent{Name: name}}}
	}

	tests := []struct {
		name     string
		env      *alexa.RequestEnvelope
		want     string
		reprompt bool
	}{
		{name: "launch", env: &alexa.RequestEnvelope{Request: alexa.Request{Type: alexa.RequestLaunch}}, want: cat.Welcome, reprompt: true},
		{name: "help", env: intent(alexa.IntentHelp), want: cat.Help, reprompt: true},
		{name: "cancel", env: intent(alexa.IntentCancel), want: cat.Stop},
		{name: "stop", env: intent(alexa.IntentStop), want: cat.Stop},
		{name: "fallback", env: intent(alexa.IntentFallback), want: cat.Fallback, reprompt: true},
		{name: "unknown intent", env: intent("OtherIntent"), want: cat.Fallback, reprompt: true},
		{name: "session ended", env: &alexa.RequestEnvelope{Request: alexa.Request{
			Type: alexa.RequestSessionEnded, Reason: "ERROR",
			Error: &alexa.RequestError{Type: "INVALID_RESPONSE", Message: "bad"},
		}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			api := &fakeAPI{}
			h := newTestHandler(api, time.Now(), Options{})
			resp, err := h.Handle(context.Background(), tt.env)
			require.NoError(t, err)
			require.Equal(t, "1.0", resp.Version)
			require.Equal(t, tt.want, speech(resp))
			require.Equal(t, tt.reprompt, resp.Response.Reprompt != nil)
			require.Empty(t, api.calls)
		})
	}
}

func TestSkillMismatch(t *testing.T) {
	t.Parallel()
	h := newTestHandler(&fakeAPI{}, time.Now(), Options{SkillID: "amzn1.ask.skill.other"})
	_, err := h.Handle(context.Background(), dateTimeEnvelope(alexa.ConfirmationConfirmed, "", "14:30"))
	require.ErrorIs(t, err, ErrSkillMismatch)

	h = newTestHandler(&fakeAPI{}, time.Now(), Options{SkillID: "amzn1.ask.skill.test"})
	_, err = h.Handle(context.Background(), dateTimeEnvelope(alexa.ConfirmationDenied, "", "14:30"))
	require.NoError(t, err)
}

func TestSetCatalog(t *testing.T) {
	t.Parallel()
	h := newTestHandler(&fakeAPI{}, time.Now(), Options{})
	cat := reminder.DefaultCatalog().Merge(reminder.Catalog{Welcome: "hello"})
	h.SetCatalog(cat)

	resp, err := h.Handle(context.Background(), &alexa.RequestEnvelope{Request: alexa.Request{Type: alexa.RequestLaunch}})
	require.NoError(t, err)
	require.Equal(t, "hello", speech(resp))
}

func TestMetricsRecorded(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := metrics.MustNewMetrics(reg)
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, tokyo(t))

	ok := &fakeAPI{zone: "Asia/Tokyo"}
	_, err := newTestHandler(ok, now, Options{Metrics: m}).
		Handle(context.Background(), dateTimeEnvelope(alexa.ConfirmationConfirmed, "2024-06-03", "14:30"))
	require.NoError(t, err)

	partial := &fakeAPI{
		zone:      "Asia/Tokyo",
		failAt:    2,
		createErr: &alexaapi.ServiceError{Service: alexaapi.ServiceReminders, StatusCode: http.StatusServiceUnavailable},
	}
	_, err = newTestHandler(partial, now, Options{Metrics: m}).
		Handle(context.Background(), dateTimeEnvelope(alexa.ConfirmationConfirmed, "2024-06-03", "14:30"))
	require.NoError(t, err)

	const want = `
# HELP meetremind_skill_requests_total Skill requests by classified kind.
# TYPE meetremind_skill_requests_total counter
meetremind_skill_requests_total{kind="date_time"} 2
# HELP meetremind_skill_schedule_outcomes_total Scheduling decisions by outcome.
# TYPE meetremind_skill_schedule_outcomes_total counter
meetremind_skill_schedule_outcomes_total{outcome="both_scheduled"} 2
# HELP meetremind_skill_reminders_total Reminder create attempts by lead time and result.
# TYPE meetremind_skill_reminders_total counter
meetremind_skill_reminders_total{offset="10m0s",result="created"} 2
meetremind_skill_reminders_total{offset="1m0s",result="created"} 1
meetremind_skill_reminders_total{offset="1m0s",result="failed"} 1
# HELP meetremind_api_errors_total Platform API failures by service and HTTP status (0 for transport errors).
# TYPE meetremind_api_errors_total counter
meetremind_api_errors_total{service="reminders",status="503"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want),
		"meetremind_skill_requests_total",
		"meetremind_skill_schedule_outcomes_total",
		"meetremind_skill_reminders_total",
		"meetremind_api_errors_total",
	))
	n, err := testutil.GatherAndCount(reg, "meetremind_skill_request_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
