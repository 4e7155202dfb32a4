// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"io"

	"github.com/peterh/liner"
)

// =============================================================================
// LINE READER
// =============================================================================

// LineReader abstracts "read one line given a prompt". The interactive
// implementation wraps liner; scripts and tests feed fixed lines.
// ReadLine returns io.EOF when input is exhausted and ErrInterrupted when
// the user cancels the read.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

// =============================================================================
// INTERACTIVE READER (liner)
// =============================================================================

// TermReader reads lines interactively with arrow-key history and tab
// completion.
type TermReader struct {
	state *liner.State
}

// NewTermReader creates an interactive reader. completer may be nil.
func NewTermReader(completer func(line string) []string) *TermReader {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)
	if completer != nil {
		l.SetCompleter(completer)
	}
	return &TermReader{state: l}
}

// ReadLine implements LineReader.
func (r *TermReader) ReadLine(prompt string) (string, error) {
	line, err := r.state.Prompt(prompt)
	if err == liner.ErrPromptAborted {
		return "", ErrInterrupted
	}
	if err != nil {
		return "", err
	}
	return line, nil
}

// AppendHistory implements LineReader.
func (r *TermReader) AppendHistory(line string) {
	r.state.AppendHistory(line)
}

// Close restores the terminal state.
func (r *TermReader) Close() error {
	return r.state.Close()
}

// =============================================================================
// SCRIPT READER
// =============================================================================

// ScriptReader feeds a fixed sequence of lines, then io.EOF. Used for
// script execution and tests.
type ScriptReader struct {
	lines []string
	pos   int
}

// NewScriptReader creates a reader over the given lines.
func NewScriptReader(lines []string) *ScriptReader {
	return &ScriptReader{lines: lines}
}

// ReadLine implements LineReader.
func (r *ScriptReader) ReadLine(prompt string) (string, error) {
	if r.pos >= len(r.lines) {
		return "", io.EOF
	}
	line := r.lines[r.pos]
	r.pos++
	return line, nil
}

// AppendHistory implements LineReader. No-op.
func (r *ScriptReader) AppendHistory(line string) {}

// Close implements LineReader. No-op.
func (r *ScriptReader) Close() error { return nil }
