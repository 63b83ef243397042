package runner

// logTail keeps the last limit bytes of the combined process output for the
// run record's bounded log excerpt.
type logTail struct {
	limit int
	buf   []byte
}

func newLogTail(limit int) *logTail {
	return &logTail{limit: limit}
}

func (t *logTail) Write(p []byte) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.limit {
		t.buf = t.buf[len(t.buf)-t.limit:]
	}
}

func (t *logTail) String() string {
	return string(t.buf)
}
