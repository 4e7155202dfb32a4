// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package shell implements the REPL dispatcher: the line-parsing front end
// (tokenizer, redirection), the prompt-context stack for nested loops, the
// shared output sink, and the bounded command history.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/duinocli/internal/bus"
	"github.com/jeranaias/duinocli/internal/config"
	"github.com/jeranaias/duinocli/internal/plugin"
)

// =============================================================================
// SHELL
// =============================================================================

// promptContext is one frame of the nesting stack. Nested loops run on the
// same dispatcher: their frame re-applies a token prefix to every entered
// line instead of recursing into a second loop.
type promptContext struct {
	segment string
	prefix  []string
}

// Shell drives the read-dispatch loop. It implements plugin.Session, so
// command handlers act through it. A single goroutine runs the loop;
// background producers may only write through the output sink.
type Shell struct {
	cfg      *config.Config
	registry *plugin.Registry
	out      *Output
	history  *History
	reader   LineReader
	dev      bus.Bus

	stack    []promptContext
	quitting bool

	// pushed holds a nested-loop request made by the running handler,
	// applied once the handler returns cleanly
	pushed *promptContext
}

// New creates a shell over the given collaborators. dev may be nil when
// running detached from a device.
func New(cfg *config.Config, registry *plugin.Registry, out *Output, reader LineReader, dev bus.Bus) *Shell {
	return &Shell{
		cfg:      cfg,
		registry: registry,
		out:      out,
		history:  NewHistory(cfg.History.MaxLines),
		reader:   reader,
		dev:      dev,
		stack:    []promptContext{{segment: cfg.UI.Prompt}},
	}
}

// =============================================================================
// SESSION INTERFACE
// =============================================================================

// Info implements plugin.Session.
func (s *Shell) Info(format string, args ...interface{}) {
	s.out.Info(format, args...)
}

// Error implements plugin.Session.
func (s *Shell) Error(format string, args ...interface{}) {
	s.out.Error(format, args...)
}

// Debug implements plugin.Session.
func (s *Shell) Debug(format string, args ...interface{}) {
	s.out.Debug(format, args...)
}

// PushPrompt implements plugin.Session: the current handler requests a
// nested prompt loop. Takes effect after the handler returns.
func (s *Shell) PushPrompt(segment string, prefix []string) {
	s.pushed = &promptContext{segment: segment, prefix: prefix}
}

// Quit implements plugin.Session: unwinds all nested loops and ends the
// session.
func (s *Shell) Quit() {
	s.quitting = true
}

// SetDebugMode implements plugin.Session: toggles debug output and, when
// the bus supports it, packet hex dumps.
func (s *Shell) SetDebugMode(enabled bool) {
	s.out.SetDebugEnabled(enabled)
	if d, ok := s.dev.(bus.Debuggable); ok {
		if enabled {
			d.SetDebug(s.out.Debug)
		} else {
			d.SetDebug(nil)
		}
	}
}

// DebugMode implements plugin.Session.
func (s *Shell) DebugMode() bool {
	return s.out.DebugEnabled()
}

// Registry implements plugin.Session.
func (s *Shell) Registry() *plugin.Registry { return s.registry }

// HistoryLines implements plugin.Session.
func (s *Shell) HistoryLines() []string { return s.history.Entries() }

// Config implements plugin.Session.
func (s *Shell) Config() *config.Config { return s.cfg }

// Bus implements plugin.Session.
func (s *Shell) Bus() bus.Bus { return s.dev }

// =============================================================================
// STATE ACCESSORS
// =============================================================================

// Quitting reports whether the session has been asked to end.
func (s *Shell) Quitting() bool { return s.quitting }

// Depth returns the nesting depth (1 = top level).
func (s *Shell) Depth() int { return len(s.stack) }

// Output returns the shared sink, for wiring background producers.
func (s *Shell) Output() *Output { return s.out }

// History returns the history store.
func (s *Shell) History() *History { return s.history }

// HistoryFiltered returns history entries whose command matches pattern.
func (s *Shell) HistoryFiltered(pattern string) []string {
	return s.history.Filtered(pattern)
}

func (s *Shell) prompt() string {
	segments := make([]string, 0, len(s.stack))
	for _, frame := range s.stack {
		if frame.segment != "" {
			segments = append(segments, frame.segment)
		}
	}
	return strings.Join(segments, " ") + "> "
}

// =============================================================================
// RUN LOOP
// =============================================================================

// Run drives the interactive loop. A non-blank oneShot line is dispatched
// first through the same path; if it did not enter a nested loop the shell
// returns without reading interactively, so single-shot CLI usage and
// interactive usage share one code path.
func (s *Shell) Run(oneShot string) error {
	defer s.saveHistory()

	if strings.TrimSpace(oneShot) != "" {
		s.Dispatch(oneShot)
		if s.quitting || len(s.stack) <= 1 {
			return nil
		}
	}

	for !s.quitting {
		line, err := s.reader.ReadLine(s.prompt())
		switch {
		case err == io.EOF:
			// end of input pops one nesting level; at top level it quits
			if len(s.stack) > 1 {
				s.stack = s.stack[:len(s.stack)-1]
				continue
			}
			s.quitting = true

		case errors.Is(err, ErrInterrupted):
			s.quitting = true

		case err != nil:
			s.out.Error("read failed: %v", err)
			s.quitting = true

		default:
			s.Dispatch(line)
		}
	}
	return nil
}

// Dispatch runs one line through the full pipeline, reporting any failure
// through the error sink. Never panics the loop.
func (s *Shell) Dispatch(line string) {
	if err := s.dispatch(line); err != nil {
		s.out.Error("%v", err)
	}
}

func (s *Shell) dispatch(line string) error {
	tokens, redir, err := SplitLine(line)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	// Nested frames re-apply their command prefix; quit and exit bypass it
	// so they unwind from any depth.
	frame := s.stack[len(s.stack)-1]
	if len(frame.prefix) > 0 && !isQuitCommand(tokens[0]) {
		tokens = append(append([]string{}, frame.prefix...), tokens...)
	}

	name := plugin.Normalize(tokens[0])
	entry := s.registry.Resolve(name)
	if entry == nil {
		return &UnknownCommandError{Command: plugin.Pretty(name)}
	}

	result, err := entry.Spec.Parse(tokens[1:])
	if err != nil {
		return err
	}

	// The line is accepted once it parses; record it before the handler
	// runs so a failing handler still lands in history.
	if s.recordable(name) && s.history.Record(strings.TrimSpace(line)) {
		s.reader.AppendHistory(strings.TrimSpace(line))
	}

	if redir != nil {
		f, err := redir.Open()
		if err != nil {
			return err
		}
		s.out.SetRedirect(f)
		defer func() {
			s.out.ClearRedirect()
			f.Close()
		}()
	}

	s.pushed = nil
	if err := entry.Handler(s, result); err != nil {
		if errors.Is(err, ErrQuit) {
			s.quitting = true
			return nil
		}
		return &HandlerError{Command: plugin.Pretty(name), Err: err}
	}
	if s.pushed != nil {
		s.stack = append(s.stack, *s.pushed)
		s.pushed = nil
	}
	return nil
}

func (s *Shell) recordable(name string) bool {
	if name == "history" && !s.cfg.History.RecordHistoryCmd {
		return false
	}
	return true
}

func isQuitCommand(token string) bool {
	switch plugin.Normalize(token) {
	case "quit", "exit":
		return true
	}
	return false
}

// =============================================================================
// SCRIPT EXECUTION
// =============================================================================

// RunScript dispatches every line of a file. With abort_on_error set (the
// default) any dispatch failure stops the run with file:line context;
// otherwise failures are reported and the run continues.
func (s *Shell) RunScript(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()
	return s.runScript(f, path)
}

func (s *Shell) runScript(r io.Reader, name string) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := s.dispatch(scanner.Text()); err != nil {
			if s.cfg.Script.AbortOnError {
				return fmt.Errorf("%s:%d: %w", name, lineNo, err)
			}
			s.out.Error("%s:%d: %v", name, lineNo, err)
		}
		if s.quitting {
			break
		}
	}
	return scanner.Err()
}

// =============================================================================
// HISTORY PERSISTENCE
// =============================================================================

// LoadHistory populates the history store and the line editor from the
// configured history file. Best effort.
func (s *Shell) LoadHistory() {
	path := s.cfg.HistoryPath()
	if path == "" {
		return
	}
	if err := s.history.Load(path); err != nil {
		s.out.Debug("history load: %v", err)
		return
	}
	for _, line := range s.history.Entries() {
		s.reader.AppendHistory(line)
	}
}

func (s *Shell) saveHistory() {
	path := s.cfg.HistoryPath()
	if path == "" {
		return
	}
	if err := s.history.Save(path); err != nil {
		s.out.Debug("history save: %v", err)
	}
}
