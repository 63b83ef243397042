package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the shape of a parsed schedule spec
type Kind int

const (
	// KindUnrecognized marks a schedule string that matched no known shape.
	// Unrecognized specs are never due; the caller reports them as a
	// configuration error instead of retrying silently.
	KindUnrecognized Kind = iota
	KindDaily
	KindEveryHours
	KindWeekly
)

func (k Kind) String() string {
	switch k {
	case KindDaily:
		return "daily"
	case KindEveryHours:
		return "every_hours"
	case KindWeekly:
		return "weekly"
	default:
		return "unrecognized"
	}
}

// Spec is a parsed schedule. It is derived from the job's raw schedule
// string on every evaluation and never persisted; Parse is idempotent.
type Spec struct {
	Kind    Kind
	Hour    int
	Minute  int
	Every   int // hours, KindEveryHours only
	Weekday time.Weekday
	Raw     string
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// Parse turns a raw schedule string into a Spec. Recognized shapes:
//
//	"daily HH:MM"       - once per calendar day at or after HH:MM
//	"every Nh"          - every N hours of wall-clock elapsed time
//	"weekly DOW HH:MM"  - once per week on DOW at or after HH:MM
//
// Matching is case-insensitive and whitespace-tolerant. Anything else
// yields a Spec with KindUnrecognized carrying the original string.
func Parse(raw string) Spec {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	unrecognized := Spec{Kind: KindUnrecognized, Raw: raw}

	if len(fields) == 0 {
		return unrecognized
	}

	switch fields[0] {
	case "daily":
		if len(fields) != 2 {
			return unrecognized
		}
		h, m, err := parseClock(fields[1])
		if err != nil {
			return unrecognized
		}
		return Spec{Kind: KindDaily, Hour: h, Minute: m, Raw: raw}

	case "every":
		if len(fields) != 2 {
			return unrecognized
		}
		n, err := parseHours(fields[1])
		if err != nil || n <= 0 {
			return unrecognized
		}
		return Spec{Kind: KindEveryHours, Every: n, Raw: raw}

	case "weekly":
		if len(fields) != 3 {
			return unrecognized
		}
		day, ok := weekdays[fields[1]]
		if !ok {
			return unrecognized
		}
		h, m, err := parseClock(fields[2])
		if err != nil {
			return unrecognized
		}
		return Spec{Kind: KindWeekly, Weekday: day, Hour: h, Minute: m, Raw: raw}
	}

	return unrecognized
}

func parseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock time %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour %q: %w", parts[0], err)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minute %q: %w", parts[1], err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock time %q out of range", s)
	}
	return hour, minute, nil
}

func parseHours(s string) (int, error) {
	s = strings.TrimSuffix(s, "h")
	return strconv.Atoi(s)
}
