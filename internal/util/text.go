// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// TruncateRunes truncates a string to a maximum number of runes.
// If the string is truncated, "..." is appended.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// Columnize lays out items in as few rows as possible within maxWidth
// display columns, emitting each row through print. Cell widths are
// measured with go-runewidth so CJK and other wide glyphs line up.
func Columnize(items []string, maxWidth int, print func(string)) {
	if len(items) == 0 {
		print("<empty>")
		return
	}
	if maxWidth <= 0 {
		maxWidth = 80
	}

	// Try progressively fewer rows; the first layout that fits wins.
	for rows := 1; rows <= len(items); rows++ {
		cols := (len(items) + rows - 1) / rows
		widths := make([]int, cols)
		total := 0
		for c := 0; c < cols; c++ {
			w := 0
			for r := 0; r < rows; r++ {
				i := c*rows + r
				if i >= len(items) {
					break
				}
				if cw := runewidth.StringWidth(items[i]); cw > w {
					w = cw
				}
			}
			widths[c] = w + 2
			total += widths[c]
		}
		if total > maxWidth && cols > 1 {
			continue
		}
		for r := 0; r < rows; r++ {
			var b strings.Builder
			for c := 0; c < cols; c++ {
				i := c*rows + r
				if i >= len(items) {
					break
				}
				b.WriteString(runewidth.FillRight(items[i], widths[c]))
			}
			print(strings.TrimRight(b.String(), " "))
		}
		return
	}
}

// Glob reports whether name matches a shell-style pattern using only
// '*' and '?' wildcards. Unlike path.Match it has no separator special
// casing, which is what command/history filters want.
func Glob(pattern, name string) bool {
	return globMatch([]rune(pattern), []rune(name))
}

func globMatch(pattern, name []rune) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for i := 0; i <= len(name); i++ {
				if globMatch(pattern[1:], name[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(name) == 0 {
				return false
			}
		default:
			if len(name) == 0 || pattern[0] != name[0] {
				return false
			}
		}
		pattern = pattern[1:]
		name = name[1:]
	}
	return len(name) == 0
}

// FormatCount renders "N thing(s)" with a naive plural.
func FormatCount(n int, thing string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", thing)
	}
	return fmt.Sprintf("%d %ss", n, thing)
}
