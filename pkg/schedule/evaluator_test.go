package schedule

import (
	"testing"
	"time"
)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		t.Fatalf("bad test time %q: %v", value, err)
	}
	return parsed
}

func atPtr(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed := at(t, value)
	return &parsed
}

func TestDueDaily(t *testing.T) {
	spec := Parse("daily 02:00")

	tests := []struct {
		name    string
		now     time.Time
		lastRun *time.Time
		want    bool
	}{
		{
			name: "exactly at target with no prior run",
			now:  at(t, "2025-03-10 02:00"),
			want: true,
		},
		{
			name: "later same day with no prior run",
			now:  at(t, "2025-03-10 17:42"),
			want: true,
		},
		{
			name: "one minute early",
			now:  at(t, "2025-03-10 01:59"),
			want: false,
		},
		{
			name:    "already ran today after target",
			now:     at(t, "2025-03-10 09:00"),
			lastRun: atPtr(t, "2025-03-10 02:05"),
			want:    false,
		},
		{
			name:    "ran yesterday",
			now:     at(t, "2025-03-10 02:00"),
			lastRun: atPtr(t, "2025-03-09 02:01"),
			want:    true,
		},
		{
			name:    "manual run before today's target",
			now:     at(t, "2025-03-10 02:00"),
			lastRun: atPtr(t, "2025-03-10 00:30"),
			want:    true,
		},
		{
			name:    "scheduler was down at the exact minute",
			now:     at(t, "2025-03-10 02:47"),
			lastRun: atPtr(t, "2025-03-09 02:00"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Due(spec, tt.now, tt.lastRun); got != tt.want {
				t.Errorf("Due(daily 02:00, %v, %v) = %v, want %v",
					tt.now, tt.lastRun, got, tt.want)
			}
		})
	}
}

func TestDueEveryHours(t *testing.T) {
	spec := Parse("every 6h")
	now := at(t, "2025-03-10 12:00")

	tests := []struct {
		name    string
		lastRun *time.Time
		want    bool
	}{
		{name: "no prior run", lastRun: nil, want: true},
		{name: "5h50m ago", lastRun: atPtr(t, "2025-03-10 06:10"), want: false},
		{name: "exactly 6h ago", lastRun: atPtr(t, "2025-03-10 06:00"), want: true},
		{name: "well past due", lastRun: atPtr(t, "2025-03-09 20:00"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Due(spec, now, tt.lastRun); got != tt.want {
				t.Errorf("Due(every 6h, %v, %v) = %v, want %v",
					now, tt.lastRun, got, tt.want)
			}
		})
	}
}

func TestDueWeekly(t *testing.T) {
	spec := Parse("weekly mon 05:00")

	// 2025-03-10 is a Monday, 2025-03-11 a Tuesday
	tests := []struct {
		name    string
		now     time.Time
		lastRun *time.Time
		want    bool
	}{
		{
			name: "monday after target",
			now:  at(t, "2025-03-10 05:00"),
			want: true,
		},
		{
			name: "monday before target",
			now:  at(t, "2025-03-10 04:59"),
			want: false,
		},
		{
			name: "tuesday never fires regardless of time",
			now:  at(t, "2025-03-11 23:59"),
			want: false,
		},
		{
			name:    "already ran this monday",
			now:     at(t, "2025-03-10 18:00"),
			lastRun: atPtr(t, "2025-03-10 05:01"),
			want:    false,
		},
		{
			name:    "ran last monday",
			now:     at(t, "2025-03-10 05:30"),
			lastRun: atPtr(t, "2025-03-03 05:00"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Due(spec, tt.now, tt.lastRun); got != tt.want {
				t.Errorf("Due(weekly mon 05:00, %v, %v) = %v, want %v",
					tt.now, tt.lastRun, got, tt.want)
			}
		})
	}
}

func TestDueUnrecognized(t *testing.T) {
	spec := Parse("someday maybe")
	if Due(spec, at(t, "2025-03-10 12:00"), nil) {
		t.Error("unrecognized spec must never be due")
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		name         string
		tz           string
		wantFallback bool
	}{
		{name: "valid zone", tz: "Europe/Amsterdam", wantFallback: false},
		{name: "empty means UTC without fallback flag", tz: "", wantFallback: false},
		{name: "garbage falls back to UTC", tz: "Mars/Olympus_Mons", wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, fellBack := Location(tt.tz)
			if loc == nil {
				t.Fatal("Location returned nil location")
			}
			if fellBack != tt.wantFallback {
				t.Errorf("Location(%q) fellBack = %v, want %v", tt.tz, fellBack, tt.wantFallback)
			}
			if tt.wantFallback && loc != time.UTC {
				t.Errorf("Location(%q) = %v, want UTC fallback", tt.tz, loc)
			}
		})
	}
}
