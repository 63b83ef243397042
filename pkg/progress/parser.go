package progress

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/syncdeck/core/pkg/models"
)

// statsLine is the machine-readable line format of the sync tool: one JSON
// object per line, carrying a stats object when the line is a progress
// update. Lines without stats (plain log messages) are ignored here.
type statsLine struct {
	Stats *toolStats `json:"stats"`
}

type toolStats struct {
	Bytes      int64    `json:"bytes"`
	TotalBytes int64    `json:"totalBytes"`
	Transfers  int64    `json:"transfers"`
	Errors     int64    `json:"errors"`
	Speed      float64  `json:"speed"`
	ETA        *float64 `json:"eta"`
	Checks     int64    `json:"checks"`
}

// Text fallbacks for tool builds without JSON logging. Values with unit
// suffixes are byte sizes; bare integers are file counts.
var (
	reTransferred = regexp.MustCompile(`^Transferred:\s*([\d.]+(?:\s*[KMGT]i?B?)?) / ([\d.]+(?:\s*[KMGT]i?B?)?)(?:, (\d+)%)?(?:, ([\d.]+\s*[KMGT]i?B?)/s)?(?:, ETA (\S+))?`)
	reErrors      = regexp.MustCompile(`^Errors:\s*(\d+)`)
	reChecks      = regexp.MustCompile(`^Checks:\s*(\d+) / (\d+)`)
	reDiffer      = regexp.MustCompile(`(\d+) differences found`)
	reMissing     = regexp.MustCompile(`(\d+) files? missing`)

	// Rate-limit indicators are scanned on every line, independent of the
	// tool's own stats. This is an observability signal for remotes that
	// throttle, not part of the transfer counters.
	reRateLimit = regexp.MustCompile(`(?i)\b403\b|\b429\b|rate ?limit|quota`)
)

// Parser incrementally consumes the combined output stream of one sync
// process and accumulates counters. It tolerates partial lines split across
// chunks and never fails on malformed input: a line that is neither valid
// JSON nor a recognized text pattern is simply skipped.
//
// Parser is not safe for concurrent use; the runner owns one per run.
type Parser struct {
	kind models.RunKind

	partial  []byte
	counters models.Counters
}

func New(kind models.RunKind) *Parser {
	return &Parser{kind: kind}
}

// Consume feeds one raw chunk into the parser. Bytes after the last newline
// are buffered until the next chunk completes the line.
func (p *Parser) Consume(chunk []byte) {
	data := chunk
	if len(p.partial) > 0 {
		data = append(p.partial, chunk...)
		p.partial = nil
	}

	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		p.parseLine(string(data[:idx]))
		data = data[idx+1:]
	}

	if len(data) > 0 {
		p.partial = append([]byte(nil), data...)
	}
}

// Flush parses any buffered trailing line. Called once when the stream ends.
func (p *Parser) Flush() {
	if len(p.partial) == 0 {
		return
	}
	p.parseLine(string(p.partial))
	p.partial = nil
}

// Counters returns the accumulated counters so far.
func (p *Parser) Counters() models.Counters {
	return p.counters
}

func (p *Parser) parseLine(line string) {
	line = strings.TrimRight(line, "\r")

	if reRateLimit.MatchString(line) {
		p.counters.RateLimitHits++
	}

	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}

	// Prefer the structured format; fall back to text patterns only when
	// the line is not a usable JSON object.
	if trimmed[0] == '{' {
		var sl statsLine
		if err := json.Unmarshal([]byte(trimmed), &sl); err == nil {
			if sl.Stats != nil {
				p.applyStats(sl.Stats)
			}
			return
		}
	}

	p.parseTextLine(trimmed)
}

func (p *Parser) applyStats(s *toolStats) {
	p.counters.BytesDone = s.Bytes
	if s.TotalBytes > 0 {
		p.counters.BytesTotal = s.TotalBytes
	}
	p.counters.Files = s.Transfers
	p.counters.Errors = s.Errors
	p.counters.Speed = s.Speed
	if s.ETA != nil {
		p.counters.ETASeconds = int64(*s.ETA)
	}
	if p.kind == models.RunKindVerify {
		p.counters.FilesMatched = s.Checks
	}
}

func (p *Parser) parseTextLine(line string) {
	if m := reTransferred.FindStringSubmatch(line); m != nil {
		p.applyTransferred(m)
		return
	}

	if m := reErrors.FindStringSubmatch(line); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			p.counters.Errors = n
		}
		return
	}

	if m := reChecks.FindStringSubmatch(line); m != nil {
		if p.kind == models.RunKindVerify {
			if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				p.counters.FilesMatched = n
			}
		}
		return
	}

	if p.kind == models.RunKindVerify {
		if m := reDiffer.FindStringSubmatch(line); m != nil {
			if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				p.counters.FilesDiffer = n
			}
		}
		if m := reMissing.FindStringSubmatch(line); m != nil {
			if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				p.counters.FilesMissing = n
			}
		}
	}
}

func (p *Parser) applyTransferred(m []string) {
	done, total := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])

	// Bare integers on both sides mean file counts, unit-suffixed values
	// mean byte sizes. The tool emits both line variants.
	if doneN, err1 := strconv.ParseInt(done, 10, 64); err1 == nil {
		if _, err2 := strconv.ParseInt(total, 10, 64); err2 == nil {
			p.counters.Files = doneN
			return
		}
	}

	if n, err := ParseByteSize(done); err == nil {
		p.counters.BytesDone = n
	}
	if n, err := ParseByteSize(total); err == nil && n > 0 {
		p.counters.BytesTotal = n
	}
	if m[4] != "" {
		if n, err := ParseByteSize(strings.TrimSpace(m[4])); err == nil {
			p.counters.Speed = float64(n)
		}
	}
	if m[5] != "" && m[5] != "-" {
		if d, err := time.ParseDuration(m[5]); err == nil {
			p.counters.ETASeconds = int64(d.Seconds())
		}
	}
}

// Summary composes the human-readable progress line persisted with each
// snapshot, including percentage when the total is known.
func (p *Parser) Summary() string {
	c := p.counters

	var parts []string
	if p.kind == models.RunKindVerify {
		parts = append(parts, fmt.Sprintf("%d matched, %d differ, %d missing",
			c.FilesMatched, c.FilesDiffer, c.FilesMissing))
	} else {
		switch {
		case c.BytesTotal > 0:
			pct := int(float64(c.BytesDone) / float64(c.BytesTotal) * 100)
			parts = append(parts, fmt.Sprintf("%s / %s (%d%%)",
				FormatBytes(c.BytesDone), FormatBytes(c.BytesTotal), pct))
		default:
			parts = append(parts, fmt.Sprintf("%s transferred", FormatBytes(c.BytesDone)))
		}
		parts = append(parts, fmt.Sprintf("%d files", c.Files))
		if c.Speed > 0 {
			parts = append(parts, FormatSpeed(c.Speed))
		}
		if c.ETASeconds > 0 {
			parts = append(parts, fmt.Sprintf("ETA %s", (time.Duration(c.ETASeconds)*time.Second).String()))
		}
	}

	if c.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", c.Errors))
	}
	if c.RateLimitHits > 0 {
		parts = append(parts, fmt.Sprintf("%d rate-limit warnings", c.RateLimitHits))
	}

	return strings.Join(parts, ", ")
}
