// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// SEVERITIES
// =============================================================================

// Severity classifies an output line.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityDebug
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityDebug:
		return "debug"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	}
	return "unknown"
}

// Entry is one captured output line.
type Entry struct {
	Severity Severity
	Text     string
}

// =============================================================================
// OUTPUT SINK
// =============================================================================

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // Red

	fatalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	debugStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim gray
)

// Output is the shared sink everything writes through. Writes are
// serialized under a mutex so a background producer can never interleave
// mid-line with the foreground dispatch. A per-dispatch redirect target
// diverts info and debug output; errors always reach the terminal.
type Output struct {
	mu       sync.Mutex
	w        io.Writer
	redirect io.Writer
	color    bool

	capture  bool
	captured []Entry

	errorCount int
	fatalCount int

	debugEnabled bool
}

// NewOutput creates a sink writing to w. Pass color=false for plain text.
func NewOutput(w io.Writer, color bool) *Output {
	return &Output{w: w, color: color}
}

// Info writes an informational line.
func (o *Output) Info(format string, args ...interface{}) {
	o.emit(SeverityInfo, format, args...)
}

// Error writes an error line and bumps the error counter.
func (o *Output) Error(format string, args ...interface{}) {
	o.emit(SeverityError, format, args...)
}

// Fatal writes a fatal line and bumps the fatal counter. The sink itself
// never terminates the process; the caller decides what fatal means.
func (o *Output) Fatal(format string, args ...interface{}) {
	o.emit(SeverityFatal, format, args...)
}

// Debug writes a debug line, dropped unless debug mode is on.
func (o *Output) Debug(format string, args ...interface{}) {
	o.mu.Lock()
	enabled := o.debugEnabled
	o.mu.Unlock()
	if !enabled {
		return
	}
	o.emit(SeverityDebug, format, args...)
}

func (o *Output) emit(sev Severity, format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)

	o.mu.Lock()
	defer o.mu.Unlock()

	switch sev {
	case SeverityError:
		o.errorCount++
	case SeverityFatal:
		o.fatalCount++
	}

	if o.capture {
		o.captured = append(o.captured, Entry{Severity: sev, Text: text})
		return
	}

	w := o.w
	styled := text
	if o.redirect != nil && (sev == SeverityInfo || sev == SeverityDebug) {
		w = o.redirect
	} else if o.color {
		switch sev {
		case SeverityError:
			styled = errorStyle.Render(text)
		case SeverityFatal:
			styled = fatalStyle.Render(text)
		case SeverityDebug:
			styled = debugStyle.Render(text)
		}
	}

	if !strings.HasSuffix(styled, "\n") {
		styled += "\n"
	}
	fmt.Fprint(w, styled)
}

// =============================================================================
// CAPTURE MODE
// =============================================================================

// StartCapture diverts subsequent output into memory instead of the writer.
func (o *Output) StartCapture() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.capture = true
	o.captured = nil
}

// StopCapture ends capture mode and returns the entries emitted since
// StartCapture.
func (o *Output) StopCapture() []Entry {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.capture = false
	entries := o.captured
	o.captured = nil
	return entries
}

// =============================================================================
// COUNTERS, REDIRECT, DEBUG STATE
// =============================================================================

// ErrorCount returns the number of error lines emitted.
func (o *Output) ErrorCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.errorCount
}

// FatalCount returns the number of fatal lines emitted.
func (o *Output) FatalCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fatalCount
}

// ResetCounts zeroes the error and fatal counters.
func (o *Output) ResetCounts() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errorCount = 0
	o.fatalCount = 0
}

// SetRedirect diverts info/debug output to w until ClearRedirect.
func (o *Output) SetRedirect(w io.Writer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.redirect = w
}

// ClearRedirect restores output to the terminal writer.
func (o *Output) ClearRedirect() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.redirect = nil
}

// SetDebugEnabled toggles whether Debug lines are emitted.
func (o *Output) SetDebugEnabled(enabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.debugEnabled = enabled
}

// DebugEnabled reports the current debug mode.
func (o *Output) DebugEnabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.debugEnabled
}

// =============================================================================
// COLOR DETECTION
// =============================================================================

// ColorsEnabled decides whether the sink should color output: NO_COLOR
// wins, then FORCE_COLOR, then stdout TTY detection, gated by the config
// preference. See https://no-color.org/.
func ColorsEnabled(configured bool) bool {
	if !configured {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ColorProfile returns the termenv profile matching the color decision.
func ColorProfile(configured bool) termenv.Profile {
	if !ColorsEnabled(configured) {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}
