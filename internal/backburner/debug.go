package backburner

import (
	"runtime"
	"strings"
)

// captureStack records the scheduling call site when DEBUG is on, in the
// style of a lightweight panic-free debug trace rather than a full
// runtime/debug.Stack() dump: just enough frames to tell a caller where
// a stuck or misbehaving work item came from.
func captureStack(skip int) string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	for {
		frame, more := frames.Next()
		b.WriteString(frame.Function)
		b.WriteByte('\n')
		if !more {
			break
		}
	}
	return b.String()
}
