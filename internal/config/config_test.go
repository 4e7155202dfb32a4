// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 115200, cfg.Serial.Baud)
	assert.Equal(t, "", cfg.Serial.Port)
	assert.Equal(t, "localhost", cfg.Socket.Host)
	assert.Equal(t, DefaultSocketPort, cfg.Socket.Port)
	assert.Equal(t, 40, cfg.History.MaxLines)
	assert.False(t, cfg.History.RecordHistoryCmd)
	assert.True(t, cfg.Script.AbortOnError)
	assert.True(t, cfg.UI.Color)
	assert.Equal(t, "CLI", cfg.UI.Prompt)

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"zero baud", func(c *Config) { c.Serial.Baud = 0 }, true},
		{"negative baud", func(c *Config) { c.Serial.Baud = -9600 }, true},
		{"port too high", func(c *Config) { c.Socket.Port = 70000 }, true},
		{"port zero", func(c *Config) { c.Socket.Port = 0 }, true},
		{"history zero", func(c *Config) { c.History.MaxLines = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	assert.Equal(t, 115200, cfg.Serial.Baud)
	assert.Equal(t, 40, cfg.History.MaxLines)
	assert.Equal(t, "CLI", cfg.UI.Prompt)
	// zero-value bools stay false; SetDefaults must not flip them
	assert.False(t, cfg.Script.AbortOnError)
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
version = "1.0.0"

[serial]
port = "/dev/ttyUSB0"
baud = 9600

[history]
max_lines = 100
record_history_cmd = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := Default()
	require.NoError(t, LoadTOML(cfg, path))

	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.Baud)
	assert.Equal(t, 100, cfg.History.MaxLines)
	assert.True(t, cfg.History.RecordHistoryCmd)
	// untouched sections keep their defaults
	assert.Equal(t, "localhost", cfg.Socket.Host)
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	content := `{"serial": {"port": "COM3", "baud": 57600}, "ui": {"color": false, "prompt": "DEV"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := Default()
	require.NoError(t, LoadJSON(cfg, path))

	assert.Equal(t, "COM3", cfg.Serial.Port)
	assert.Equal(t, 57600, cfg.Serial.Baud)
	assert.False(t, cfg.UI.Color)
	assert.Equal(t, "DEV", cfg.UI.Prompt)
}

func TestLoadFromPath_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[serial]\nbaud = -1\n"), 0600))

	// validation catches the bad baud after SetDefaults leaves it alone
	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestSaveTOMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Serial.Port = "/dev/ttyACM0"
	cfg.Serial.Baud = 230400
	cfg.History.MaxLines = 25

	require.NoError(t, SaveTOML(cfg, path))

	loaded := Default()
	require.NoError(t, LoadTOML(loaded, path))
	assert.Equal(t, "/dev/ttyACM0", loaded.Serial.Port)
	assert.Equal(t, 230400, loaded.Serial.Baud)
	assert.Equal(t, 25, loaded.History.MaxLines)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CLI_PORT", "/dev/ttyS9")
	t.Setenv("CLI_BAUD", "250000")
	t.Setenv("NO_COLOR", "1")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "/dev/ttyS9", cfg.Serial.Port)
	assert.Equal(t, 250000, cfg.Serial.Baud)
	assert.False(t, cfg.UI.Color)
}

func TestApplyEnvOverrides_BadBaudIgnored(t *testing.T) {
	t.Setenv("CLI_BAUD", "not-a-number")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, 115200, cfg.Serial.Baud)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	val, err := cfg.Get("serial.baud")
	require.NoError(t, err)
	assert.Equal(t, 115200, val)

	require.NoError(t, cfg.Set("serial.baud", 9600))
	val, err = cfg.Get("serial.baud")
	require.NoError(t, err)
	assert.Equal(t, 9600, val)

	// string values are coerced for int and bool fields
	require.NoError(t, cfg.Set("socket.port", "9001"))
	assert.Equal(t, 9001, cfg.Socket.Port)

	require.NoError(t, cfg.Set("history.record_history_cmd", "true"))
	assert.True(t, cfg.History.RecordHistoryCmd)

	require.NoError(t, cfg.Set("ui.prompt", "TEST"))
	assert.Equal(t, "TEST", cfg.UI.Prompt)
}

func TestGetSet_UnknownField(t *testing.T) {
	cfg := Default()

	_, err := cfg.Get("bogus.key")
	assert.Error(t, err)

	err = cfg.Set("serial.bogus", 1)
	assert.Error(t, err)
}

func TestGetAllKeys(t *testing.T) {
	keys := GetAllKeys()
	assert.NotEmpty(t, keys)

	// every advertised key must resolve through Get
	cfg := Default()
	for _, key := range keys {
		_, err := cfg.Get(key)
		assert.NoError(t, err, "key %q", key)
	}
}

func TestHistoryPath(t *testing.T) {
	cfg := Default()
	cfg.History.Path = "/tmp/custom_history"
	assert.Equal(t, "/tmp/custom_history", cfg.HistoryPath())

	cfg.History.Path = ""
	path := cfg.HistoryPath()
	assert.Contains(t, path, ".cli_history")
}
