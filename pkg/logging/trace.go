package logging

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// TraceFormat selects between the two task-trace line formats named in
// the controller's command-line surface (-e for export).
type TraceFormat int

const (
	// TraceTerminal: "[YYYY-MM-DD HH:MM:SS] <task-name padded to 40> > <message>".
	TraceTerminal TraceFormat = iota
	// TraceExport: "<unix-seconds>|<task-name>|<message>".
	TraceExport
)

const taskNameWidth = 40

// TraceLogger writes per-worker start/end trace lines in one of the two
// formats a real terminal operator or a log-shipping pipeline expects.
// It is distinct from Logger: Logger is for structured engine events,
// TraceLogger is for the fault-dispatch trace line format the spec
// pins down exactly.
type TraceLogger struct {
	mu     sync.Mutex
	out    io.Writer
	format TraceFormat
	now    func() time.Time
}

// NewTraceLogger builds a TraceLogger writing to out in the given format.
func NewTraceLogger(out io.Writer, format TraceFormat) *TraceLogger {
	return &TraceLogger{out: out, format: format, now: time.Now}
}

// Trace writes one line naming taskName and msg.
func (t *TraceLogger) Trace(taskName, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.format {
	case TraceExport:
		fmt.Fprintf(t.out, "%d|%s|%s\n", t.now().Unix(), taskName, msg)
	default:
		padded := taskName
		if len(padded) < taskNameWidth {
			padded += spaces(taskNameWidth - len(padded))
		}
		fmt.Fprintf(t.out, "[%s] %s > %s\n", t.now().Format("2006-01-02 15:04:05"), padded, msg)
	}
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
