package reminder

import (
	"fmt"
	"time"
)

// TriggerLayout is the scheduledTime layout of SCHEDULED_ABSOLUTE triggers:
// local wall-clock, minute precision, literal zero seconds.
const TriggerLayout = "2006-01-02T15:04:00"

const (
	TriggerScheduledAbsolute = "SCHEDULED_ABSOLUTE"
	PushEnabled              = "ENABLED"
	PushDisabled             = "DISABLED"
)

// WireRequest is the JSON body of a reminder creation call.
type WireRequest struct {
	Trigger          WireTrigger   `json:"trigger"`
	AlertInfo        WireAlertInfo `json:"alertInfo"`
	PushNotification WirePush      `json:"pushNotification"`
}

type WireTrigger struct {
	Type          string `json:"type"`
	ScheduledTime string `json:"scheduledTime"`
}

type WireAlertInfo struct {
	SpokenInfo WireSpokenInfo `json:"spokenInfo"`
}

type WireSpokenInfo struct {
	Content []WireContent `json:"content"`
}

type WireContent struct {
	Text string `json:"text"`
}

type WirePush struct {
	Status string `json:"status"`
}

// FormatTrigger renders t in TriggerLayout. t is expected in the device
// location already; it is not converted.
func FormatTrigger(t time.Time) string {
	return t.Format(TriggerLayout)
}

// ParseTrigger reads a scheduledTime back as an instant in loc.
func ParseTrigger(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse trigger %q: %w", s, err)
	}
	return t, nil
}

// Wire returns the body the reminder service expects for r.
func (r Request) Wire() WireRequest {
	push := PushDisabled
	if r.Notify {
		push = PushEnabled
	}
	return WireRequest{
		Trigger: WireTrigger{
			Type:          TriggerScheduledAbsolute,
			ScheduledTime: FormatTrigger(r.Trigger),
		},
		AlertInfo: WireAlertInfo{
			SpokenInfo: WireSpokenInfo{Content: []WireContent{{Text: r.Title}}},
		},
		PushNotification: WirePush{Status: push},
	}
}
