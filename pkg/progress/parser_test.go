package progress

import (
	"strings"
	"testing"

	"github.com/syncdeck/core/pkg/models"
)

func TestParseByteSize(t *testing.T) {
	gib := float64(1 << 30)
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "12.3 GiB", want: int64(12.3*gib + 0.5)},
		{in: "500 KB", want: 500 * 1024},
		{in: "500 KiB", want: 500 * 1024},
		{in: "1 MiB", want: 1 << 20},
		{in: "2TB", want: 2 << 40},
		{in: "0 B", want: 0},
		{in: "1048576", want: 1048576},
		{in: "4.5 MiB", want: int64(4.5 * float64(1<<20))},
		{in: "", wantErr: true},
		{in: "twelve GiB", wantErr: true},
		{in: "5 XB", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseByteSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseByteSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseByteSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestKBAndKiBShareTableEntry(t *testing.T) {
	kb, err1 := ParseByteSize("500 KB")
	kib, err2 := ParseByteSize("500 KiB")
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if kb != kib {
		t.Errorf("KB (%d) and KiB (%d) must use the same 1024-based entry", kb, kib)
	}
}

func TestJSONStatsPreferred(t *testing.T) {
	p := New(models.RunKindBackup)

	p.Consume([]byte(`{"level":"info","msg":"progress","stats":{"bytes":1073741824,"totalBytes":2147483648,"transfers":12,"errors":1,"speed":5242880,"eta":200}}` + "\n"))

	c := p.Counters()
	if c.BytesDone != 1073741824 {
		t.Errorf("BytesDone = %d, want 1073741824", c.BytesDone)
	}
	if c.BytesTotal != 2147483648 {
		t.Errorf("BytesTotal = %d, want 2147483648", c.BytesTotal)
	}
	if c.Files != 12 {
		t.Errorf("Files = %d, want 12", c.Files)
	}
	if c.Errors != 1 {
		t.Errorf("Errors = %d, want 1", c.Errors)
	}
	if c.Speed != 5242880 {
		t.Errorf("Speed = %f, want 5242880", c.Speed)
	}
	if c.ETASeconds != 200 {
		t.Errorf("ETASeconds = %d, want 200", c.ETASeconds)
	}
}

func TestTextFallback(t *testing.T) {
	p := New(models.RunKindBackup)

	lines := []string{
		"Transferred:   12.3 GiB / 20 GiB, 61%, 4.5 MiB/s, ETA 1m30s",
		"Errors:        3",
	}
	p.Consume([]byte(strings.Join(lines, "\n") + "\n"))

	c := p.Counters()
	gib := float64(1 << 30)
	wantBytes := int64(12.3*gib + 0.5)
	if c.BytesDone != wantBytes {
		t.Errorf("BytesDone = %d, want %d", c.BytesDone, wantBytes)
	}
	if c.BytesTotal != 20<<30 {
		t.Errorf("BytesTotal = %d, want %d", c.BytesTotal, int64(20<<30))
	}
	if c.Speed != float64(int64(4.5*float64(1<<20))) {
		t.Errorf("Speed = %f", c.Speed)
	}
	if c.ETASeconds != 90 {
		t.Errorf("ETASeconds = %d, want 90", c.ETASeconds)
	}
	if c.Errors != 3 {
		t.Errorf("Errors = %d, want 3", c.Errors)
	}
}

func TestTextFileCountLine(t *testing.T) {
	p := New(models.RunKindBackup)
	p.Consume([]byte("Transferred:   5 / 10, 50%\n"))

	if c := p.Counters(); c.Files != 5 {
		t.Errorf("Files = %d, want 5", c.Files)
	}
}

func TestPartialLinesAcrossChunks(t *testing.T) {
	p := New(models.RunKindBackup)

	full := `{"stats":{"bytes":2048,"transfers":2}}` + "\n"
	p.Consume([]byte(full[:10]))
	if c := p.Counters(); c.BytesDone != 0 {
		t.Fatalf("partial line was parsed early: %+v", c)
	}
	p.Consume([]byte(full[10:]))

	if c := p.Counters(); c.BytesDone != 2048 || c.Files != 2 {
		t.Errorf("counters = %+v, want bytes 2048 files 2", p.Counters())
	}
}

func TestFlushParsesTrailingLine(t *testing.T) {
	p := New(models.RunKindBackup)
	p.Consume([]byte("Errors: 2")) // no trailing newline
	p.Flush()

	if c := p.Counters(); c.Errors != 2 {
		t.Errorf("Errors = %d after Flush, want 2", c.Errors)
	}
}

func TestMalformedInputIsIgnored(t *testing.T) {
	p := New(models.RunKindBackup)

	p.Consume([]byte("{not json at all\n\x00\xff garbage\nTransferred: nonsense\n"))

	if c := p.Counters(); c.BytesDone != 0 || c.Errors != 0 {
		t.Errorf("malformed input changed counters: %+v", c)
	}
}

func TestRateLimitScan(t *testing.T) {
	p := New(models.RunKindBackup)

	lines := []string{
		`{"level":"error","msg":"HTTP 429 Too Many Requests"}`,
		"low level retry: rate limit exceeded",
		"ERROR: userRateLimitExceeded: Quota exceeded",
		"a perfectly ordinary line",
	}
	p.Consume([]byte(strings.Join(lines, "\n") + "\n"))

	if c := p.Counters(); c.RateLimitHits != 3 {
		t.Errorf("RateLimitHits = %d, want 3", c.RateLimitHits)
	}
}

func TestVerifyCounters(t *testing.T) {
	p := New(models.RunKindVerify)

	lines := []string{
		`{"stats":{"checks":15,"errors":0}}`,
		"2 differences found",
		"1 file missing",
	}
	p.Consume([]byte(strings.Join(lines, "\n") + "\n"))

	c := p.Counters()
	if c.FilesMatched != 15 || c.FilesDiffer != 2 || c.FilesMissing != 1 {
		t.Errorf("verify counters = %+v, want 15 matched / 2 differ / 1 missing", c)
	}
}

func TestSummaryWithTotal(t *testing.T) {
	p := New(models.RunKindBackup)
	p.Consume([]byte(`{"stats":{"bytes":1073741824,"totalBytes":2147483648,"transfers":7,"speed":5242880,"eta":200,"errors":2}}` + "\n"))
	p.Consume([]byte("server said: rate limit\n"))

	s := p.Summary()
	for _, want := range []string{"1.0 GiB / 2.0 GiB", "(50%)", "7 files", "5.0 MiB/s", "2 errors", "1 rate-limit warning"} {
		if !strings.Contains(s, want) {
			t.Errorf("Summary() = %q, missing %q", s, want)
		}
	}
}

func TestSummaryWithoutTotal(t *testing.T) {
	p := New(models.RunKindBackup)
	p.Consume([]byte(`{"stats":{"bytes":1024,"transfers":1}}` + "\n"))

	s := p.Summary()
	if !strings.Contains(s, "1.0 KiB transferred") {
		t.Errorf("Summary() = %q, want unknown-total form", s)
	}
}

func TestSummaryVerify(t *testing.T) {
	p := New(models.RunKindVerify)
	p.Consume([]byte(`{"stats":{"checks":10}}` + "\n2 differences found\n"))

	s := p.Summary()
	if !strings.Contains(s, "10 matched, 2 differ, 0 missing") {
		t.Errorf("Summary() = %q", s)
	}
}
