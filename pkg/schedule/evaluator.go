package schedule

import "time"

// Due reports whether a job with the given spec should be triggered at now.
// lastRun is the start time of the most recent run, or nil if the job has
// never run. Both times must be in the job's local timezone; Due itself is
// pure and never consults the wall clock.
func Due(spec Spec, now time.Time, lastRun *time.Time) bool {
	switch spec.Kind {
	case KindDaily:
		return dueSinceStartOfDay(spec, now, lastRun)

	case KindEveryHours:
		if lastRun == nil {
			return true
		}
		return now.Sub(*lastRun) >= time.Duration(spec.Every)*time.Hour

	case KindWeekly:
		if now.Weekday() != spec.Weekday {
			return false
		}
		return dueSinceStartOfDay(spec, now, lastRun)
	}

	// KindUnrecognized never fires
	return false
}

// dueSinceStartOfDay implements the once-per-day rule shared by daily and
// weekly specs: due at or after today's target minute, unless a run already
// started at or after that minute today. A late evaluator (scheduler down at
// the exact minute) still triggers once it catches up.
func dueSinceStartOfDay(spec Spec, now time.Time, lastRun *time.Time) bool {
	target := time.Date(now.Year(), now.Month(), now.Day(),
		spec.Hour, spec.Minute, 0, 0, now.Location())

	if now.Before(target) {
		return false
	}
	if lastRun == nil {
		return true
	}
	// A run on an earlier calendar day is always before today's target,
	// so one comparison covers both the date and the minute-of-day rule.
	return lastRun.Before(target)
}

// Location resolves an IANA timezone name. Invalid or unsupported names
// fall back to UTC; fellBack tells the caller to log the substitution
// rather than crash the evaluation.
func Location(name string) (loc *time.Location, fellBack bool) {
	if name == "" {
		return time.UTC, false
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, true
	}
	return loc, false
}
