// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/duinocli/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete duinocli configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Serial transport configuration
	Serial SerialConfig `toml:"serial" json:"serial"`

	// Socket transport configuration (duinocli server mode)
	Socket SocketConfig `toml:"socket" json:"socket"`

	// Command history configuration
	History HistoryConfig `toml:"history" json:"history"`

	// Script execution configuration
	Script ScriptConfig `toml:"script" json:"script"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	// Port is the serial device to open (e.g. /dev/ttyUSB0, COM3).
	// Empty means auto-detect from plugin product names.
	Port string `toml:"port" json:"port"`
	// Baud is the serial baud rate
	Baud int `toml:"baud" json:"baud"`
}

// SocketConfig contains TCP socket configuration for --net mode.
type SocketConfig struct {
	// Host of the duinocli server
	Host string `toml:"host" json:"host"`
	// Port of the duinocli server
	Port int `toml:"port" json:"port"`
}

// HistoryConfig contains command history configuration.
type HistoryConfig struct {
	// Path to the history file (empty = ~/.cli_history)
	Path string `toml:"path" json:"path"`
	// MaxLines caps the number of retained history entries
	MaxLines int `toml:"max_lines" json:"max_lines"`
	// RecordHistoryCmd controls whether invocations of the history
	// command are themselves recorded
	RecordHistoryCmd bool `toml:"record_history_cmd" json:"record_history_cmd"`
}

// ScriptConfig contains non-interactive script execution configuration.
type ScriptConfig struct {
	// AbortOnError stops a script run on the first failed command.
	// Interactive sessions always continue after errors.
	AbortOnError bool `toml:"abort_on_error" json:"abort_on_error"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Color enables colored output (forced off when not a TTY)
	Color bool `toml:"color" json:"color"`
	// Prompt is the top-level prompt label
	Prompt string `toml:"prompt" json:"prompt"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// DefaultSocketPort is the port the duinocli socket server listens on.
const DefaultSocketPort = 8888

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Serial: SerialConfig{
			Port: "",
			Baud: 115200,
		},

		Socket: SocketConfig{
			Host: "localhost",
			Port: DefaultSocketPort,
		},

		History: HistoryConfig{
			Path:             "",
			MaxLines:         40,
			RecordHistoryCmd: false,
		},

		Script: ScriptConfig{
			AbortOnError: true,
		},

		UI: UIConfig{
			Color:  true,
			Prompt: "CLI",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the duinocli configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".duinocli"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// HistoryPath returns the resolved history file path, falling back to
// ~/.cli_history when the config does not name one.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cli_history")
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				return nil, fmt.Errorf("failed to load TOML config: %w", err)
			}
			return finishLoad(cfg)
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				return nil, fmt.Errorf("failed to load JSON config: %w", err)
			}
			return finishLoad(cfg)
		}
	}

	return finishLoad(cfg)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Files ending in .json are parsed as JSON, anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finishLoad(cfg)
}

func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file using an atomic write.
func SaveTOML(cfg *Config, path string) error {
	var buf strings.Builder
	buf.WriteString("# duinocli configuration file\n")
	buf.WriteString("# Generated by duinocli - edit with care\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// DEFAULTS & VALIDATION
// =============================================================================

// SetDefaults fills in any missing or zero-value configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = defaults.Serial.Baud
	}
	if c.Socket.Host == "" {
		c.Socket.Host = defaults.Socket.Host
	}
	if c.Socket.Port == 0 {
		c.Socket.Port = defaults.Socket.Port
	}
	if c.History.MaxLines == 0 {
		c.History.MaxLines = defaults.History.MaxLines
	}
	if c.UI.Prompt == "" {
		c.UI.Prompt = defaults.UI.Prompt
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Serial.Baud <= 0 {
		errs = append(errs, ValidationError{
			Field:   "serial.baud",
			Message: fmt.Sprintf("must be positive, got %d", c.Serial.Baud),
		})
	}
	if c.Socket.Port <= 0 || c.Socket.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "socket.port",
			Message: fmt.Sprintf("must be 1-65535, got %d", c.Socket.Port),
		})
	}
	if c.History.MaxLines < 1 {
		errs = append(errs, ValidationError{
			Field:   "history.max_lines",
			Message: fmt.Sprintf("must be at least 1, got %d", c.History.MaxLines),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CLI_PORT: overrides serial.port (kept for duino_cli compatibility)
//   - CLI_BAUD: overrides serial.baud
//   - DUINOCLI_PORT: overrides serial.port
//   - DUINOCLI_BAUD: overrides serial.baud
//   - DUINOCLI_HISTORY: overrides history.path
//   - DUINOCLI_NOCOLOR / NO_COLOR: disables colored output
func (c *Config) ApplyEnvOverrides() {
	if port := os.Getenv("CLI_PORT"); port != "" {
		c.Serial.Port = port
	}
	if port := os.Getenv("DUINOCLI_PORT"); port != "" {
		c.Serial.Port = port
	}

	for _, key := range []string{"CLI_BAUD", "DUINOCLI_BAUD"} {
		if baud := os.Getenv(key); baud != "" {
			if n, err := strconv.Atoi(baud); err == nil && n > 0 {
				c.Serial.Baud = n
			}
		}
	}

	if path := os.Getenv("DUINOCLI_HISTORY"); path != "" {
		c.History.Path = path
	}

	if nocolor := os.Getenv("DUINOCLI_NOCOLOR"); nocolor == "1" || strings.ToLower(nocolor) == "true" {
		c.UI.Color = false
	}
	if os.Getenv("NO_COLOR") != "" {
		c.UI.Color = false
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g. "serial.baud").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field.Interface(), nil
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

// Set sets a configuration value using dot notation (e.g. "serial.baud").
func (c *Config) Set(key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if !field.CanSet() {
				return fmt.Errorf("cannot set field: %s", key)
			}
			return setFieldValue(field, value)
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return fmt.Errorf("invalid key: %s", key)
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"serial.port",
		"serial.baud",
		"socket.host",
		"socket.port",
		"history.path",
		"history.max_lines",
		"history.record_history_cmd",
		"script.abort_on_error",
		"ui.color",
		"ui.prompt",
	}
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go
// field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type
// conversion. String inputs are parsed for int/bool fields so that a
// "config KEY VALUE" command can pass raw tokens through.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.ToLower(strVal) == "true" || strings.ToLower(strVal) == "on"
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}
