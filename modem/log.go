package modem

import (
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// logger is the diagnostic sink for the handful of events worth
// operational visibility (RX overflow, TX abort) even though they never
// change a caller's return value. It is never touched
// from TickADC/TickDAC's per-sample hot path itself — only from the
// byte/frame-boundary code that surrounds it.
var logger atomic.Pointer[log.Logger]

func init() {
	l := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "afsk",
		ReportTimestamp: true,
	})
	l.SetLevel(log.WarnLevel)
	logger.Store(l)
}

// SetLogger replaces the package-wide diagnostic logger, letting a host
// command route modem events into its own charmbracelet/log instance
// (shared level, shared output, shared prefix style).
func SetLogger(l *log.Logger) {
	logger.Store(l)
}

func warnf(event string, err error, kv ...any) {
	args := append([]any{"err", err}, kv...)
	logger.Load().Warn(event, args...)
}
