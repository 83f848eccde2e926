package alexa

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"meetremind/internal/reminder"
)

func intentEnv(name string) *RequestEnvelope {
	return &RequestEnvelope{Request: Request{Type: RequestIntent, Intent: &Intent{Name: name}}}
}

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		env  *RequestEnvelope
		want Kind
	}{
		{name: "nil", env: nil, want: KindUnknown},
		{name: "launch", env: &RequestEnvelope{Request: Request{Type: RequestLaunch}}, want: KindLaunch},
		{name: "session ended", env: &RequestEnvelope{Request: Request{Type: RequestSessionEnded}}, want: KindSessionEnded},
		{name: "date time", env: intentEnv(IntentDateTime), want: KindDateTime},
		{name: "help", env: intentEnv(IntentHelp), want: KindHelp},
		{name: "cancel", env: intentEnv(IntentCancel), want: KindCancelStop},
		{name: "stop", env: intentEnv(IntentStop), want: KindCancelStop},
		{name: "fallback", env: intentEnv(IntentFallback), want: KindFallback},
		{name: "other intent", env: intentEnv("AMAZON.NavigateHomeIntent"), want: KindUnknown},
		{name: "intent request without intent", env: &RequestEnvelope{Request: Request{Type: RequestIntent}}, want: KindUnknown},
		{name: "other request", env: &RequestEnvelope{Request: Request{Type: "System.ExceptionEncountered"}}, want: KindUnknown},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Classify(tt.env), tt.name)
	}
}

func TestKindsHaveNames(t *testing.T) {
	t.Parallel()
	seen := map[string]bool{}
	for _, k := range Kinds() {
		require.False(t, seen[k.String()], k.String())
		seen[k.String()] = true
	}
}

func TestDecodeEnvelopeSlots(t *testing.T) {
	t.Parallel()
	raw := `{
	  "version": "1.0",
	  "session": {"new": false, "sessionId": "s-1", "application": {"applicationId": "amzn1.ask.skill.x"}},
	  "context": {"System": {
	    "application": {"applicationId": "amzn1.ask.skill.x"},
	    "device": {"deviceId": "dev-1"},
	    "apiEndpoint": "https://api.fe.amazonalexa.com",
	    "apiAccessToken": "tok"
	  }},
	  "request": {
	    "type": "IntentRequest", "requestId": "r-1", "timestamp": "2024-01-01T01:00:00Z", "locale": "ja-JP",
	    "intent": {"name": "DateTimeIntent", "confirmationStatus": "CONFIRMED", "slots": {
	      "Date": {"name": "Date"},
	      "Time": {"name": "Time", "value": "14:30"}
	    }}
	  }
	}`
	var env RequestEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	require.Equal(t, KindDateTime, Classify(&env))
	require.Equal(t, ConfirmationConfirmed, env.Request.Intent.Confirmation())
	require.Equal(t, reminder.Unset, env.Request.Intent.Slot(SlotDate))
	require.Equal(t, reminder.SlotOf("14:30"), env.Request.Intent.Slot(SlotTime))
	require.Equal(t, reminder.Unset, env.Request.Intent.Slot("Missing"))
	require.Equal(t, "dev-1", env.Context.System.Device.DeviceID)
	require.Equal(t, "amzn1.ask.skill.x", env.ApplicationID())
}

func TestConfirmationDefaultsToNone(t *testing.T) {
	t.Parallel()
	var nilIntent *Intent
	require.Equal(t, ConfirmationNone, nilIntent.Confirmation())
	require.Equal(t, ConfirmationNone, (&Intent{}).Confirmation())
	require.Equal(t, ConfirmationNone, (&Intent{ConfirmationStatus: "MAYBE"}).Confirmation())
	require.Equal(t, ConfirmationDenied, (&Intent{ConfirmationStatus: ConfirmationDenied}).Confirmation())
}

func TestResponseBuilder(t *testing.T) {
	t.Parallel()
	env := NewResponse().
		Speak("a < b").
		Reprompt("again").
		AskForPermissionsConsent(ScopeRemindersReadWrite).
		Build()

	b, err := json.Marshal(env)
	require.NoError(t, err)
	require.JSONEq(t, `{
	  "version": "1.0",
	  "response": {
	    "outputSpeech": {"type": "SSML", "ssml": "<speak>a &lt; b</speak>"},
	    "reprompt": {"outputSpeech": {"type": "SSML", "ssml": "<speak>again</speak>"}},
	    "card": {"type": "AskForPermissionsConsent", "permissions": ["alexa::alerts:reminders:skill:readwrite"]},
	    "shouldEndSession": false
	  }
	}`, string(b))
	require.Equal(t, "a < b", env.Response.OutputSpeech.SpeechText())
}

func TestResponseDelegate(t *testing.T) {
	t.Parallel()
	env := NewResponse().Delegate().Build()
	require.Nil(t, env.Response.OutputSpeech)
	require.Nil(t, env.Response.ShouldEndSession)
	require.Equal(t, []Directive{{Type: "Dialog.Delegate"}}, env.Response.Directives)
}
