// Package alexa models the voice platform's request and response envelopes
// and classifies incoming requests into a closed set of event kinds.
package alexa

import (
	"time"

	"meetremind/internal/reminder"
)

// Request types.
const (
	RequestLaunch       = "LaunchRequest"
	RequestIntent       = "IntentRequest"
	RequestSessionEnded = "SessionEndedRequest"
)

// Intent names.
const (
	IntentDateTime = "DateTimeIntent"
	IntentHelp     = "AMAZON.HelpIntent"
	IntentCancel   = "AMAZON.CancelIntent"
	IntentStop     = "AMAZON.StopIntent"
	IntentFallback = "AMAZON.FallbackIntent"
)

// Slot names of DateTimeIntent.
const (
	SlotDate = "Date"
	SlotTime = "Time"
)

// ScopeRemindersReadWrite is the permission the skill asks for.
const ScopeRemindersReadWrite = "alexa::alerts:reminders:skill:readwrite"

type RequestEnvelope struct {
	Version string  `json:"version"`
	Session Session `json:"session"`
	Context Context `json:"context"`
	Request Request `json:"request"`
}

type Session struct {
	New         bool        `json:"new"`
	SessionID   string      `json:"sessionId"`
	Application Application `json:"application"`
	User        User        `json:"user"`
}

type Application struct {
	ApplicationID string `json:"applicationId"`
}

type User struct {
	UserID      string       `json:"userId"`
	Permissions *Permissions `json:"permissions,omitempty"`
}

type Permissions struct {
	ConsentToken string `json:"consentToken,omitempty"`
}

type Context struct {
	System System `json:"System"`
}

type System struct {
	Application    Application `json:"application"`
	User           User        `json:"user"`
	Device         Device      `json:"device"`
	APIEndpoint    string      `json:"apiEndpoint"`
	APIAccessToken string      `json:"apiAccessToken,omitempty"`
}

type Device struct {
	DeviceID string `json:"deviceId"`
}

type Request struct {
	Type        string        `json:"type"`
	RequestID   string        `json:"requestId"`
	Timestamp   time.Time     `json:"timestamp"`
	Locale      string        `json:"locale,omitempty"`
	Intent      *Intent       `json:"intent,omitempty"`
	DialogState string        `json:"dialogState,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	Error       *RequestError `json:"error,omitempty"`
}

type RequestError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Intent struct {
	Name               string             `json:"name"`
	ConfirmationStatus ConfirmationStatus `json:"confirmationStatus,omitempty"`
	Slots              map[string]Slot    `json:"slots,omitempty"`
}

type Slot struct {
	Name               string             `json:"name"`
	Value              string             `json:"value,omitempty"`
	ConfirmationStatus ConfirmationStatus `json:"confirmationStatus,omitempty"`
}

// ConfirmationStatus of an intent or slot.
type ConfirmationStatus string

const (
	ConfirmationNone      ConfirmationStatus = "NONE"
	ConfirmationConfirmed ConfirmationStatus = "CONFIRMED"
	ConfirmationDenied    ConfirmationStatus = "DENIED"
)

// Slot returns the named slot with explicit presence. A nil intent or a
// missing or empty slot is unset.
func (i *Intent) Slot(name string) reminder.Slot {
	if i == nil {
		return reminder.Unset
	}
	s, ok := i.Slots[name]
	if !ok {
		return reminder.Unset
	}
	return reminder.SlotOf(s.Value)
}

// Confirmation normalizes the intent's confirmation status; anything other
// than CONFIRMED or DENIED reads as NONE.
func (i *Intent) Confirmation() ConfirmationStatus {
	if i == nil {
		return ConfirmationNone
	}
	switch i.ConfirmationStatus {
	case ConfirmationConfirmed, ConfirmationDenied:
		return i.ConfirmationStatus
	default:
		return ConfirmationNone
	}
}

// IntentName returns the intent name or "" for non-intent requests.
func (e *RequestEnvelope) IntentName() string {
	if e.Request.Intent == nil {
		return ""
	}
	return e.Request.Intent.Name
}

// ApplicationID prefers the context copy, which is present on every request
// type, and falls back to the session.
func (e *RequestEnvelope) ApplicationID() string {
	if id := e.Context.System.Application.ApplicationID; id != "" {
		return id
	}
	return e.Session.Application.ApplicationID
}
