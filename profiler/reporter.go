package profiler

import (
	"io"
	"log"
	"time"
)

// Clock is the wall-clock source used for timing. Tests substitute a fake.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// SystemClock reads the real time.
type SystemClock struct{}

func (SystemClock) Now() time.Time                  { return time.Now() }
func (SystemClock) Since(t time.Time) time.Duration { return time.Since(t) }

// Reporter receives human-readable status lines.
type Reporter interface {
	Statusf(format string, args ...any)
	Elapsed(op string, d time.Duration)
}

// LogReporter writes status lines through a *log.Logger.
type LogReporter struct {
	logger *log.Logger
}

// NewLogReporter returns a reporter writing to w. Every line starts with prefix.
func NewLogReporter(w io.Writer, prefix string) *LogReporter {
	return &LogReporter{logger: log.New(w, prefix, 0)}
}

func (r *LogReporter) Statusf(format string, args ...any) {
	r.logger.Printf(format, args...)
}

// Elapsed prints "<op> took <d> ms" with microsecond precision.
func (r *LogReporter) Elapsed(op string, d time.Duration) {
	r.logger.Printf("%s took %.3f ms", op, float64(d)/float64(time.Millisecond))
}

type discard struct{}

func (discard) Statusf(string, ...any)       {}
func (discard) Elapsed(string, time.Duration) {}

// Discard drops everything. Used for --quiet and in tests.
var Discard Reporter = discard{}
