// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/duinocli/internal/config"
	"github.com/jeranaias/duinocli/internal/shell"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want options
	}{
		{
			name: "empty",
			args: nil,
			want: options{},
		},
		{
			name: "port and baud",
			args: []string{"-p", "/dev/ttyUSB0", "--baud", "57600"},
			want: options{port: "/dev/ttyUSB0", baud: 57600},
		},
		{
			name: "booleans",
			args: []string{"-l", "-d", "--nocolor"},
			want: options{list: true, debug: true, nocolor: true},
		},
		{
			name: "trailing one-shot",
			args: []string{"-d", "ping"},
			want: options{debug: true, oneShot: []string{"ping"}},
		},
		{
			name: "one-shot keeps flag-like tokens",
			args: []string{"help", "-v", "servo"},
			want: options{oneShot: []string{"help", "-v", "servo"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args)
			require.NoError(t, err)
			assert.Equal(t, &tt.want, got)
		})
	}
}

func TestParseFlagsErrors(t *testing.T) {
	for _, args := range [][]string{
		{"--port"},
		{"-b", "fast"},
		{"-b", "-9600"},
		{"--bogus"},
	} {
		_, err := parseFlags(args)
		assert.Error(t, err, "args %v", args)
	}
}

func TestOpenBusDetachedWithoutDevice(t *testing.T) {
	cfg := config.Default()
	cfg.Serial.Port = ""

	out := shell.NewOutput(io.Discard, false)
	out.StartCapture()
	b := openBus(&options{}, cfg, out)
	entries := out.StopCapture()

	if b != nil {
		b.Close()
		t.Skip("a matching serial device is attached")
	}

	// Failed detection must produce the detached notice, never an open
	// attempt on an empty port name.
	require.NotEmpty(t, entries)
	assert.Equal(t, "no device detected; running detached", entries[len(entries)-1].Text)
	for _, e := range entries {
		assert.NotContains(t, e.Text, "failed to open")
	}
}
