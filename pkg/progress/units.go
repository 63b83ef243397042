package progress

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// byteUnits maps unit suffixes to powers of 1024. The sync tool emits IEC
// suffixes (KiB, MiB, ...) but older text output uses SI-looking ones (KB,
// MB, ...) for the same 1024-based values, so both spellings share a table
// entry.
var byteUnits = map[string]float64{
	"":    1,
	"b":   1,
	"kib": 1 << 10,
	"kb":  1 << 10,
	"k":   1 << 10,
	"mib": 1 << 20,
	"mb":  1 << 20,
	"m":   1 << 20,
	"gib": 1 << 30,
	"gb":  1 << 30,
	"g":   1 << 30,
	"tib": 1 << 40,
	"tb":  1 << 40,
	"t":   1 << 40,
}

// ParseByteSize parses a size like "12.3 GiB", "500 KB" or "1048576" into
// bytes, applying the 1024-based unit table regardless of suffix spelling.
// The result is rounded to the nearest byte.
func ParseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	// split numeric prefix from unit suffix
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.' || s[i] == '-') {
		i++
	}
	num := s[:i]
	unit := strings.ToLower(strings.TrimSpace(s[i:]))

	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	mult, ok := byteUnits[unit]
	if !ok {
		return 0, fmt.Errorf("unknown byte unit %q", unit)
	}

	return int64(math.Round(value * mult)), nil
}

// FormatBytes renders a byte count with the same 1024-based units used for
// parsing, for human-readable summaries.
func FormatBytes(n int64) string {
	switch {
	case n >= 1<<40:
		return fmt.Sprintf("%.1f TiB", float64(n)/(1<<40))
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// FormatSpeed renders a transfer rate in bytes per second.
func FormatSpeed(bytesPerSecond float64) string {
	return FormatBytes(int64(math.Round(bytesPerSecond))) + "/s"
}
