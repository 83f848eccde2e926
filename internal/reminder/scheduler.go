package reminder

import (
	"errors"
	"time"
)

// Offsets of the two reminders from the meeting start.
const (
	TenMinutesBefore = 10 * time.Minute
	OneMinuteBefore  = 1 * time.Minute
)

// OutcomeKind says which branch Schedule took.
type OutcomeKind int

const (
	// NoTimeProvided: the time slot was empty; nothing is scheduled and the
	// caller asks for the time again.
	NoTimeProvided OutcomeKind = iota
	// BothScheduled: both triggers lie in the future.
	BothScheduled
	// OneMinuteOnly: the ten-minute trigger has passed.
	OneMinuteOnly
	// NoReminderSet: both triggers have passed.
	NoReminderSet
)

func (k OutcomeKind) String() string {
	switch k {
	case NoTimeProvided:
		return "no_time_provided"
	case BothScheduled:
		return "both_scheduled"
	case OneMinuteOnly:
		return "one_minute_only"
	case NoReminderSet:
		return "no_reminder_set"
	default:
		return "unknown"
	}
}

// Request is one reminder to create.
type Request struct {
	Offset  time.Duration // TenMinutesBefore or OneMinuteBefore
	Trigger time.Time     // minute precision, device location
	Title   string
	Notify  bool
}

// Outcome is the result of Schedule.
type Outcome struct {
	Kind     OutcomeKind
	Meeting  time.Time
	Requests []Request // 0..2, ten-minute reminder first
	Text     string    // confirmation; empty for NoTimeProvided
}

// Triggers returns the ten-minute and one-minute trigger instants of meeting.
func Triggers(meeting time.Time) (tenBefore, oneBefore time.Time) {
	return meeting.Add(-TenMinutesBefore), meeting.Add(-OneMinuteBefore)
}

// Meeting combines the date slot (today in loc when unset) with the
// hour and minute of the time slot.
func Meeting(now time.Time, loc *time.Location, date, clock Slot) (time.Time, error) {
	if loc == nil {
		return time.Time{}, errors.New("reminder: nil location")
	}
	var day time.Time
	if date.Set {
		d, err := parseDate(date, loc)
		if err != nil {
			return time.Time{}, err
		}
		day = d
	} else {
		day = now.In(loc)
	}
	hour, minute, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}

// Schedule decides which of the two reminders to create for a meeting at
// date/clock in loc, as seen at now.
//
// The confirmation text follows the reference behavior exactly: when only
// the one-minute reminder is booked, the text reads that instant back in
// full as if it were the only reminder ever requested.
func Schedule(now time.Time, loc *time.Location, date, clock Slot, cat Catalog) (Outcome, error) {
	if !clock.Set {
		return Outcome{Kind: NoTimeProvided}, nil
	}
	meeting, err := Meeting(now, loc, date, clock)
	if err != nil {
		return Outcome{}, err
	}
	tenBefore, oneBefore := Triggers(meeting)

	out := Outcome{
		Kind:    BothScheduled,
		Meeting: meeting,
		Text:    tenBefore.Format(cat.FullLayout) + cat.Joiner + oneBefore.Format(cat.ClockLayout) + cat.ReminderSet,
	}

	if tenBefore.After(now) {
		out.Requests = append(out.Requests, Request{
			Offset:  TenMinutesBefore,
			Trigger: tenBefore.Truncate(time.Minute),
			Title:   cat.TenMinutesTitle,
			Notify:  true,
		})
	} else {
		out.Kind = OneMinuteOnly
		out.Text = oneBefore.Format(cat.FullLayout) + cat.ReminderSet
	}

	if oneBefore.After(now) {
		out.Requests = append(out.Requests, Request{
			Offset:  OneMinuteBefore,
			Trigger: oneBefore.Truncate(time.Minute),
			Title:   cat.OneMinuteTitle,
			Notify:  true,
		})
	} else {
		out.Kind = NoReminderSet
		out.Text = cat.NoReminderSet
	}

	return out, nil
}
