// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// All dispatch-stage failures are recoverable: the loop reports them and
// returns to the prompt. Only quit/exit, end-of-input, and interruption end
// the session.

// TokenizeError reports malformed quoting in an input line.
type TokenizeError struct {
	Message string
}

func (e *TokenizeError) Error() string {
	return "tokenize error: " + e.Message
}

// RedirectError reports a missing or unusable redirect target.
type RedirectError struct {
	Message string
}

func (e *RedirectError) Error() string {
	return "redirect error: " + e.Message
}

// UnknownCommandError reports a command name the registry cannot resolve.
type UnknownCommandError struct {
	Command string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unrecognized command: %s", e.Command)
}

// HandlerError wraps a failure raised by command logic itself.
type HandlerError struct {
	Command string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// ErrQuit may be returned by a handler to request a clean shutdown. It is
// a termination request, not a failure.
var ErrQuit = errors.New("quit requested")

// ErrInterrupted is returned by a line reader when the user cancels the
// blocking read (Ctrl-C).
var ErrInterrupted = errors.New("interrupted")
