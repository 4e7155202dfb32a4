// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/duinocli/internal/util"
)

// =============================================================================
// HISTORY STORE
// =============================================================================

// DefaultHistoryMax is the history cap when the config does not set one.
const DefaultHistoryMax = 40

// History is a bounded ring of accepted command lines: adjacent duplicates
// collapse to one entry, the oldest entry is evicted once the cap is hit.
type History struct {
	entries []string
	max     int
}

// NewHistory creates a history capped at max entries.
func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistoryMax
	}
	return &History{max: max}
}

// Record appends a line unless it is blank or identical to the previous
// entry. Returns true when the line was stored.
func (h *History) Record(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return false
	}
	h.entries = append(h.entries, line)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
	return true
}

// Entries returns a copy of the history, oldest first.
func (h *History) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Filtered returns the entries whose first word matches the glob pattern.
// An empty pattern matches everything.
func (h *History) Filtered(pattern string) []string {
	if pattern == "" {
		return h.Entries()
	}
	var out []string
	for _, line := range h.entries {
		word := line
		if i := strings.IndexByte(line, ' '); i >= 0 {
			word = line[:i]
		}
		if util.Glob(pattern, word) {
			out = append(out, line)
		}
	}
	return out
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Load best-effort populates the history from a file. A missing file is
// not an error and leaves the history empty.
func (h *History) Load(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		h.Record(line)
	}
	return nil
}

// Save writes the history atomically, one line per entry.
func (h *History) Save(path string) error {
	if len(h.entries) == 0 {
		return nil
	}
	data := strings.Join(h.entries, "\n") + "\n"
	if err := util.AtomicWriteFile(path, []byte(data), 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}
