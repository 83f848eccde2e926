package reminder

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSlot is returned when a date or time slot is present but not in
// a form the scheduler understands.
var ErrInvalidSlot = errors.New("invalid slot value")

// Slot is an optional slot value as filled by the voice platform.
type Slot struct {
	Value string
	Set   bool
}

// SlotOf builds a Slot from a raw value; blank values are unset.
func SlotOf(v string) Slot {
	v = strings.TrimSpace(v)
	return Slot{Value: v, Set: v != ""}
}

// Unset is the absent slot.
var Unset = Slot{}

var (
	calendarDate = regexp.MustCompile(`^(\d{4})(?:-?(\d{2})(?:-?(\d{2}))?)?$`)
	weekDate     = regexp.MustCompile(`^(\d{4})-?W(\d{2})(?:-?([1-7]))?$`)
	ordinalDate  = regexp.MustCompile(`^(\d{4})-?(\d{3})$`)
)

// parseDate resolves the ISO-8601 date forms the platform emits for a date
// slot: calendar dates (2024-01-05, 20240105), reduced precision (2024-01,
// 2024), week dates (2024-W02, 2024-W02-3) and ordinal dates (2024-005).
// Missing components resolve to the first day of the period; a week date
// without a weekday is its Monday.
func parseDate(s Slot, loc *time.Location) (time.Time, error) {
	y, m, d, ok := resolveISODate(s.Value)
	if !ok {
		return time.Time{}, fmt.Errorf("date %q: %w", s.Value, ErrInvalidSlot)
	}
	return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
}

func resolveISODate(v string) (year int, month time.Month, day int, ok bool) {
	if m := ordinalDate.FindStringSubmatch(v); m != nil {
		y, n := atoi(m[1]), atoi(m[2])
		if n < 1 || n > daysIn(y) {
			return 0, 0, 0, false
		}
		t := time.Date(y, time.January, n, 0, 0, 0, 0, time.UTC)
		return t.Year(), t.Month(), t.Day(), true
	}
	if m := weekDate.FindStringSubmatch(v); m != nil {
		y, w, wd := atoi(m[1]), atoi(m[2]), 1
		if m[3] != "" {
			wd = atoi(m[3])
		}
		if w < 1 || w > weeksIn(y) {
			return 0, 0, 0, false
		}
		t := isoWeekStart(y).AddDate(0, 0, (w-1)*7+wd-1)
		return t.Year(), t.Month(), t.Day(), true
	}
	if m := calendarDate.FindStringSubmatch(v); m != nil {
		// 2024-0105 and 202401-05 mix basic and extended forms; 202401 is
		// not an ISO form at all.
		if m[3] != "" && strings.Count(v, "-") == 1 {
			return 0, 0, 0, false
		}
		if m[2] != "" && m[3] == "" && !strings.Contains(v, "-") {
			return 0, 0, 0, false
		}
		y, mo, d := atoi(m[1]), 1, 1
		if m[2] != "" {
			mo = atoi(m[2])
		}
		if m[3] != "" {
			d = atoi(m[3])
		}
		if mo < 1 || mo > 12 || d < 1 {
			return 0, 0, 0, false
		}
		t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
		if t.Day() != d {
			return 0, 0, 0, false
		}
		return y, time.Month(mo), d, true
	}
	return 0, 0, 0, false
}

// isoWeekStart is the Monday of ISO week 1, the week holding January 4th.
func isoWeekStart(year int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	wd := int(jan4.Weekday())
	if wd == 0 {
		wd = 7
	}
	return jan4.AddDate(0, 0, 1-wd)
}

func weeksIn(year int) int {
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

func daysIn(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}

// atoi is only fed regexp-validated digits.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// parseClock accepts HH:MM and HH:MM:SS; seconds are dropped.
func parseClock(s Slot) (hour, minute int, err error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, perr := time.Parse(layout, s.Value); perr == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, fmt.Errorf("time %q: %w", s.Value, ErrInvalidSlot)
}
