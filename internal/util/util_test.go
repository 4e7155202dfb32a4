// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "out.txt")

	require.NoError(t, AtomicWriteFile(path, []byte("hello\n"), 0600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))

	// Overwrite replaces content completely.
	require.NoError(t, AtomicWriteFile(path, []byte("second\n"), 0600))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))

	// No temp droppings left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"héllo wörld", 8, "héllo..."},
		{"abc", 0, ""},
		{"abcdef", 2, "ab"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, TruncateRunes(tc.in, tc.max), "TruncateRunes(%q, %d)", tc.in, tc.max)
	}
}

func TestGlob(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"*", "anything", true},
		{"ping", "ping", true},
		{"ping", "pong", false},
		{"p*", "ping", true},
		{"*info", "heap-info", true},
		{"he?p-info", "heap-info", true},
		{"he?p-info", "heap-it", false},
		{"", "", true},
		{"", "x", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Glob(tc.pattern, tc.name), "Glob(%q, %q)", tc.pattern, tc.name)
	}
}

func TestColumnize(t *testing.T) {
	var lines []string
	print := func(s string) { lines = append(lines, s) }

	Columnize([]string{"alpha", "beta", "gamma", "delta"}, 80, print)
	require.Len(t, lines, 1)
	assert.Equal(t, "alpha  beta  gamma  delta", lines[0])

	lines = nil
	Columnize(nil, 80, print)
	require.Len(t, lines, 1)
	assert.Equal(t, "<empty>", lines[0])

	// Narrow width forces multiple rows.
	lines = nil
	Columnize([]string{"one", "two", "three", "four"}, 14, print)
	assert.Greater(t, len(lines), 1)
}
