// Package logx wraps github.com/charmbracelet/log with the single
// package-level logger every other package calls for recoverable-
// error reporting: decoder overflow, sink write failure, layout cycles,
// unsupported capabilities. Rather than the ad hoc
// fmt.Fprintf(os.Stderr, ...) an earlier raw-mode warning used, this
// package gives every caller structured key-value logging, matching
// the other charm-family libraries this module builds on.
package logx

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix:          "cellscape",
	ReportTimestamp: true,
})

// SetOutput redirects logging, mainly so the renderer can silence it once
// the alternate screen takes over stderr's visible area, and tests can
// capture it.
func SetOutput(w io.Writer) { logger.SetOutput(w) }

// SetLevel adjusts verbosity.
func SetLevel(level log.Level) { logger.SetLevel(level) }

// Kind is the error-kind taxonomy, shared so every caller logs with
// the same vocabulary instead of ad hoc strings.
type Kind string

const (
	KindIOFailure      Kind = "io_failure"
	KindDecodeOverflow Kind = "decode_overflow"
	KindLayoutFailure  Kind = "layout_failure"
	KindClipDiscard    Kind = "clip_discard"
	KindZeroResize     Kind = "zero_resize"
	KindUnsupportedCap Kind = "unsupported_capability"
)

// Recoverable logs one recoverable-error line: a kind, the component
// that hit it, and a free-form detail. The frame loop never panics on
// these; logging and dropping the failing subproduct is the entire handling.
func Recoverable(kind Kind, component, detail string) {
	logger.Warn("recoverable error", "kind", string(kind), "component", component, "detail", detail)
}

// Debugf logs at debug level, gated by SetLevel — used by the frame loop
// to log the input decoder's raw-input debug events.
func Debugf(msg string, keyvals ...interface{}) {
	logger.Debug(msg, keyvals...)
}

// Errorf logs a fatal-path error before it propagates to the caller, e.g.
// terminal.Start failing to enter raw mode.
func Errorf(msg string, keyvals ...interface{}) {
	logger.Error(msg, keyvals...)
}
