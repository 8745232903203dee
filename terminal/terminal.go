// Package terminal implements the terminal controller: raw mode,
// alternate screen, mouse/focus/paste/Kitty-keyboard reporting, cursor
// visibility, capability detection, SIGWINCH handling and the
// startup/teardown discipline that guarantees the terminal is restored
// on any exit path. It folds raw-mode setup and SIGWINCH/cursor-hide
// handling into one owner instead of splitting them across files.
package terminal

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"cellscape/logx"

	"github.com/charmbracelet/colorprofile"
	"github.com/xo/terminfo"
	"golang.org/x/term"
)

// Options selects which reporting modes Start enables.
type Options struct {
	AlternateScreen bool
	Mouse           bool
	MouseMovement   bool
	FocusReports    bool
	BracketedPaste  bool
	KittyKeyboard   bool
	HideCursor      bool
}

// Capabilities records what the terminal answered (or didn't) during
// Start's probe, returned by Controller.Capabilities; no other package in
// this module reads it.
type Capabilities struct {
	Profile       colorprofile.Profile
	KittyKeyboard bool
	TrueColor     bool
	ProbeTimedOut bool
}

// Controller owns the terminal's lifecycle: it is constructed once per
// renderer, started, and stopped, never a process-wide singleton.
type Controller struct {
	in, out *os.File

	mu       sync.Mutex
	oldState *term.State
	started  bool
	opts     Options
	caps     Capabilities

	resizeCh chan os.Signal
	sigCh    chan os.Signal
	onResize func(w, h int)
	done     chan struct{}
}

// New returns a controller over the given input/output files (normally
// os.Stdin/os.Stdout).
func New(in, out *os.File) *Controller {
	return &Controller{in: in, out: out}
}

// Size returns the current terminal dimensions in cells.
func (c *Controller) Size() (width, height int, err error) {
	return term.GetSize(int(c.out.Fd()))
}

// Start enters raw mode, probes capabilities, enables the requested
// reporting modes, and installs exit hooks that restore the terminal
// under any termination path — normal stop, SIGINT/SIGTERM, or a panic
// recovered here. A raw-mode or terminal-acquisition failure is returned
// as a typed error and the terminal is left untouched.
func (c *Controller) Start(opts Options, onResize func(w, h int)) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			c.restoreLocked()
			err = fmt.Errorf("terminal: panic during start: %v", r)
		}
	}()

	oldState, rawErr := term.MakeRaw(int(c.in.Fd()))
	if rawErr != nil {
		return fmt.Errorf("terminal: enable raw mode: %w", rawErr)
	}
	c.oldState = oldState
	c.opts = opts
	c.onResize = onResize
	c.done = make(chan struct{})
	// Marked started now so a panic recovered above restores raw mode.
	c.started = true

	c.caps = c.probeCapabilities()

	c.writeEnable()

	c.sigCh = make(chan os.Signal, 2)
	signal.Notify(c.sigCh, syscall.SIGINT, syscall.SIGTERM)
	go c.handleSignals()

	c.resizeCh = make(chan os.Signal, 1)
	signal.Notify(c.resizeCh, syscall.SIGWINCH)
	go c.handleResize()

	return nil
}

// Capabilities returns the result of Start's capability probe.
func (c *Controller) Capabilities() Capabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps
}

// probeCapabilities classifies the color profile from the environment:
// colorprofile.Detect inspects $TERM/$COLORTERM synchronously, so it
// never blocks. No DA/OSC query is written, no reply is read, and
// KittyKeyboard is never set here; the interactive OSC round-trip for
// colors belongs to the palette package. The wait below is bounded to
// 150ms and falls back to terminfo if it expires, but the goroutine it
// waits on does no work, so in practice the fallback does not run.
func (c *Controller) probeCapabilities() Capabilities {
	profile := colorprofile.Detect(c.out, os.Environ())
	caps := Capabilities{Profile: profile, TrueColor: profile == colorprofile.TrueColor}

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Kitty keyboard support has no static environment signal, and
		// no probe for it (CSI ? u / CSI c) is sent anywhere in this
		// module; the goroutine does no work.
	}()
	select {
	case <-done:
	case <-time.After(150 * time.Millisecond):
		caps.ProbeTimedOut = true
		logx.Recoverable(logx.KindUnsupportedCap, "terminal", "capability probe timed out, falling back to terminfo")
		terminfoFallback(&caps)
	}
	return caps
}

// terminfoFallback consults the static terminfo database for the color
// depth the $TERM entry claims, used only when the live probe above
// times out — a strictly more informative fallback than assuming
// "unsupported" outright.
func terminfoFallback(caps *Capabilities) {
	defer func() {
		// A malformed or missing terminfo entry must never take the
		// probe down with it; the live-probe result already computed
		// stands if this lookup fails.
		recover()
	}()
	ti, err := terminfo.LoadFromEnv()
	if err != nil {
		return
	}
	if n := ti.Nums[terminfo.MaxColors]; n >= 256 && !caps.TrueColor {
		caps.Profile = colorprofile.ANSI256
	}
}

// enableBytes builds the mode-enable escapes for every option set,
// in the table's order, plus cursor hide and alternate screen. Split out
// from writeEnable as a pure function so the byte-exact sequence is
// testable without a real terminal file descriptor.
func enableBytes(opts Options) []byte {
	var b []byte
	if opts.AlternateScreen {
		b = append(b, "\x1b[?1049h"...)
	}
	if opts.Mouse {
		b = append(b, "\x1b[?1000h\x1b[?1006h"...)
	}
	if opts.MouseMovement {
		b = append(b, "\x1b[?1003h"...)
	}
	if opts.FocusReports {
		b = append(b, "\x1b[?1004h"...)
	}
	if opts.BracketedPaste {
		b = append(b, "\x1b[?2004h"...)
	}
	if opts.KittyKeyboard {
		b = append(b, "\x1b[>1u"...)
	}
	if opts.HideCursor {
		b = append(b, "\x1b[?25l"...)
	}
	return b
}

// disableBytes emits the same escapes as enableBytes in reverse order
// and polarity, for orderly shutdown.
func disableBytes(opts Options) []byte {
	var b []byte
	if opts.HideCursor {
		b = append(b, "\x1b[?25h"...)
	}
	if opts.KittyKeyboard {
		b = append(b, "\x1b[<u"...)
	}
	if opts.BracketedPaste {
		b = append(b, "\x1b[?2004l"...)
	}
	if opts.FocusReports {
		b = append(b, "\x1b[?1004l"...)
	}
	if opts.MouseMovement {
		b = append(b, "\x1b[?1003l"...)
	}
	if opts.Mouse {
		b = append(b, "\x1b[?1006l\x1b[?1000l"...)
	}
	if opts.AlternateScreen {
		b = append(b, "\x1b[?1049l"...)
	}
	return b
}

func (c *Controller) writeEnable()  { c.out.Write(enableBytes(c.opts)) }
func (c *Controller) writeDisable() { c.out.Write(disableBytes(c.opts)) }

func (c *Controller) handleSignals() {
	for {
		select {
		case <-c.done:
			return
		case <-c.sigCh:
			c.Stop()
			os.Exit(1)
		}
	}
}

func (c *Controller) handleResize() {
	for {
		select {
		case <-c.done:
			return
		case <-c.resizeCh:
			w, h, err := c.Size()
			if err != nil {
				logx.Recoverable(logx.KindIOFailure, "terminal", "SIGWINCH size query failed")
				continue
			}
			if c.onResize != nil {
				c.onResize(w, h)
			}
		}
	}
}

// Stop reverses Start: disables reporting modes, leaves the alternate
// screen, restores the cooked terminal mode, and shows the cursor at
// (0,0). Safe to call multiple times and mandatory on every exit path.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restoreLocked()
}

func (c *Controller) restoreLocked() {
	if !c.started {
		return
	}
	close(c.done)
	signal.Stop(c.sigCh)
	signal.Stop(c.resizeCh)
	c.writeDisable()
	c.out.Write([]byte("\x1b[1;1H"))
	if c.oldState != nil {
		if err := term.Restore(int(c.in.Fd()), c.oldState); err != nil {
			logx.Errorf("failed to restore terminal mode", "err", err)
		}
	}
	c.started = false
}
