package schedule

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Spec
	}{
		{
			name: "daily",
			raw:  "daily 02:00",
			want: Spec{Kind: KindDaily, Hour: 2, Minute: 0},
		},
		{
			name: "daily late evening",
			raw:  "daily 23:45",
			want: Spec{Kind: KindDaily, Hour: 23, Minute: 45},
		},
		{
			name: "daily mixed case with padding",
			raw:  "  Daily 06:30 ",
			want: Spec{Kind: KindDaily, Hour: 6, Minute: 30},
		},
		{
			name: "every hours",
			raw:  "every 6h",
			want: Spec{Kind: KindEveryHours, Every: 6},
		},
		{
			name: "every hours without suffix",
			raw:  "every 12",
			want: Spec{Kind: KindEveryHours, Every: 12},
		},
		{
			name: "weekly short weekday",
			raw:  "weekly mon 05:00",
			want: Spec{Kind: KindWeekly, Weekday: time.Monday, Hour: 5, Minute: 0},
		},
		{
			name: "weekly full weekday",
			raw:  "weekly saturday 12:15",
			want: Spec{Kind: KindWeekly, Weekday: time.Saturday, Hour: 12, Minute: 15},
		},
		{
			name: "empty string",
			raw:  "",
			want: Spec{Kind: KindUnrecognized},
		},
		{
			name: "unknown verb",
			raw:  "hourly 5",
			want: Spec{Kind: KindUnrecognized},
		},
		{
			name: "daily missing time",
			raw:  "daily",
			want: Spec{Kind: KindUnrecognized},
		},
		{
			name: "daily hour out of range",
			raw:  "daily 24:00",
			want: Spec{Kind: KindUnrecognized},
		},
		{
			name: "daily minute out of range",
			raw:  "daily 12:60",
			want: Spec{Kind: KindUnrecognized},
		},
		{
			name: "every zero hours",
			raw:  "every 0h",
			want: Spec{Kind: KindUnrecognized},
		},
		{
			name: "every negative",
			raw:  "every -3h",
			want: Spec{Kind: KindUnrecognized},
		},
		{
			name: "weekly bad weekday",
			raw:  "weekly blursday 05:00",
			want: Spec{Kind: KindUnrecognized},
		},
		{
			name: "weekly missing time",
			raw:  "weekly mon",
			want: Spec{Kind: KindUnrecognized},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)

			if got.Raw != tt.raw {
				t.Errorf("Parse(%q).Raw = %q, want original string", tt.raw, got.Raw)
			}
			if got.Kind != tt.want.Kind {
				t.Errorf("Parse(%q).Kind = %v, want %v", tt.raw, got.Kind, tt.want.Kind)
			}
			if got.Kind == KindUnrecognized {
				return
			}
			if got.Hour != tt.want.Hour || got.Minute != tt.want.Minute {
				t.Errorf("Parse(%q) time = %02d:%02d, want %02d:%02d",
					tt.raw, got.Hour, got.Minute, tt.want.Hour, tt.want.Minute)
			}
			if got.Every != tt.want.Every {
				t.Errorf("Parse(%q).Every = %d, want %d", tt.raw, got.Every, tt.want.Every)
			}
			if got.Weekday != tt.want.Weekday {
				t.Errorf("Parse(%q).Weekday = %v, want %v", tt.raw, got.Weekday, tt.want.Weekday)
			}
		})
	}
}

func TestParseIsIdempotent(t *testing.T) {
	raws := []string{"daily 02:00", "every 6h", "weekly mon 05:00", "garbage"}
	for _, raw := range raws {
		first := Parse(raw)
		second := Parse(first.Raw)
		if first != second {
			t.Errorf("Parse(%q) not idempotent: %+v != %+v", raw, first, second)
		}
	}
}
