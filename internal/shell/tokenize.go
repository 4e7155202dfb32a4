// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"fmt"
	"os"
	"unicode"
)

// =============================================================================
// TOKENIZER
// =============================================================================

// Tokenize splits a raw line into shell-style words. Single quotes preserve
// everything literally; double quotes allow backslash escapes; an unquoted
// backslash escapes the next character. An unquoted # starts a comment that
// runs to end of line. Unterminated quoting is a TokenizeError.
func Tokenize(line string) ([]string, error) {
	var tokens []string
	var cur []rune
	inToken := false
	escaped := false
	var quote rune

	flush := func() {
		if inToken {
			tokens = append(tokens, string(cur))
			cur = cur[:0]
			inToken = false
		}
	}

scan:
	for _, r := range line {
		switch {
		case escaped:
			cur = append(cur, r)
			escaped = false

		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				cur = append(cur, r)
			}

		case quote == '"':
			switch r {
			case '"':
				quote = 0
			case '\\':
				escaped = true
			default:
				cur = append(cur, r)
			}

		case r == '\\':
			escaped = true
			inToken = true

		case r == '\'' || r == '"':
			quote = r
			inToken = true

		case r == '#':
			break scan

		case unicode.IsSpace(r):
			flush()

		default:
			cur = append(cur, r)
			inToken = true
		}
	}

	if quote != 0 {
		return nil, &TokenizeError{Message: fmt.Sprintf("unterminated %c quote", quote)}
	}
	if escaped {
		return nil, &TokenizeError{Message: "trailing backslash"}
	}
	flush()
	return tokens, nil
}

// =============================================================================
// REDIRECTION
// =============================================================================

// RedirectMode selects how the target file is opened.
type RedirectMode int

const (
	RedirectTruncate RedirectMode = iota // >
	RedirectAppend                       // >>
)

// Redirect describes an output redirection extracted from a command line.
// Scoped to a single dispatch; never persisted.
type Redirect struct {
	Mode   RedirectMode
	Target string
}

// Open opens the target file for writing. Failures come back as
// *RedirectError.
func (r *Redirect) Open() (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE
	if r.Mode == RedirectAppend {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(r.Target, flags, 0644)
	if err != nil {
		return nil, &RedirectError{Message: fmt.Sprintf("cannot open %s: %v", r.Target, err)}
	}
	return f, nil
}

// extractRedirect scans tokens for a bare > or >> operator, removes the
// operator and its target token, and returns the redirect descriptor.
func extractRedirect(tokens []string) ([]string, *Redirect, error) {
	for i, tok := range tokens {
		if tok != ">" && tok != ">>" {
			continue
		}
		if i+1 >= len(tokens) {
			return nil, nil, &RedirectError{Message: "missing redirect target after " + tok}
		}
		target := tokens[i+1]
		if info, err := os.Stat(target); err == nil && info.IsDir() {
			return nil, nil, &RedirectError{Message: target + " is a directory"}
		}

		mode := RedirectTruncate
		if tok == ">>" {
			mode = RedirectAppend
		}

		rest := make([]string, 0, len(tokens)-2)
		rest = append(rest, tokens[:i]...)
		rest = append(rest, tokens[i+2:]...)

		for _, t := range rest {
			if t == ">" || t == ">>" {
				return nil, nil, &RedirectError{Message: "multiple redirects"}
			}
		}
		return rest, &Redirect{Mode: mode, Target: target}, nil
	}
	return tokens, nil, nil
}

// SplitLine runs the full line-parsing front end: comment stripping,
// tokenization, and redirect extraction. A blank or comment-only line
// returns no tokens and no error.
func SplitLine(line string) ([]string, *Redirect, error) {
	tokens, err := Tokenize(line)
	if err != nil {
		return nil, nil, err
	}
	if len(tokens) == 0 {
		return nil, nil, nil
	}
	return extractRedirect(tokens)
}
