// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package core

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/duinocli/internal/bus"
	"github.com/jeranaias/duinocli/internal/config"
	"github.com/jeranaias/duinocli/internal/plugin"
)

// fakeSession captures handler output for assertions. Thread-safe so the
// log-test worker can write from its goroutine.
type fakeSession struct {
	mu      sync.Mutex
	infos   []string
	errs    []string
	debugs  []string
	quit    bool
	debug   bool
	pushed  string
	prefix  []string
	reg     *plugin.Registry
	history []string
	cfg     *config.Config
}

func newFakeSession(reg *plugin.Registry) *fakeSession {
	return &fakeSession{reg: reg, cfg: config.Default()}
}

func (f *fakeSession) Info(format string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infos = append(f.infos, fmt.Sprintf(format, args...))
}

func (f *fakeSession) Error(format string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, fmt.Sprintf(format, args...))
}

func (f *fakeSession) Debug(format string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.debugs = append(f.debugs, fmt.Sprintf(format, args...))
}

func (f *fakeSession) PushPrompt(segment string, prefix []string) {
	f.pushed = segment
	f.prefix = prefix
}

func (f *fakeSession) Quit()                    { f.quit = true }
func (f *fakeSession) SetDebugMode(on bool)     { f.debug = on }
func (f *fakeSession) DebugMode() bool          { return f.debug }
func (f *fakeSession) Registry() *plugin.Registry { return f.reg }
func (f *fakeSession) HistoryLines() []string   { return f.history }
func (f *fakeSession) Config() *config.Config   { return f.cfg }
func (f *fakeSession) Bus() bus.Bus             { return nil }

func (f *fakeSession) infoText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.infos, "\n")
}

func dispatch(t *testing.T, s *fakeSession, line string) error {
	t.Helper()
	parts := strings.Fields(line)
	entry := s.reg.Resolve(parts[0])
	require.NotNil(t, entry, "command %s not registered", parts[0])
	res, err := entry.Spec.Parse(parts[1:])
	require.NoError(t, err)
	return entry.Handler(s, res)
}

func coreRegistry(t *testing.T) *plugin.Registry {
	t.Helper()
	reg := plugin.NewRegistry()
	require.Empty(t, reg.Register(New()))
	return reg
}

// =============================================================================
// TESTS
// =============================================================================

func TestHelpListsCommands(t *testing.T) {
	reg := coreRegistry(t)
	s := newFakeSession(reg)

	require.NoError(t, dispatch(t, s, "help"))

	out := s.infoText()
	for _, name := range []string{"echo", "history", "log-test", "exit", "quit"} {
		assert.Contains(t, out, name)
	}
}

func TestHelpDescribesCommand(t *testing.T) {
	reg := coreRegistry(t)
	s := newFakeSession(reg)

	require.NoError(t, dispatch(t, s, "help history"))

	out := s.infoText()
	assert.Contains(t, out, "usage: history [FILTER]")
	assert.Contains(t, out, "glob pattern")
}

func TestHelpUnknownCommand(t *testing.T) {
	reg := coreRegistry(t)
	s := newFakeSession(reg)

	require.NoError(t, dispatch(t, s, "help bogus"))
	require.Len(t, s.errs, 1)
	assert.Contains(t, s.errs[0], "bogus")
}

func TestHelpVerbose(t *testing.T) {
	reg := coreRegistry(t)
	s := newFakeSession(reg)

	require.NoError(t, dispatch(t, s, "help -v"))

	out := s.infoText()
	assert.Contains(t, out, "usage: echo")
	assert.Contains(t, out, "usage: history")
}

func TestHistoryFilter(t *testing.T) {
	reg := coreRegistry(t)
	s := newFakeSession(reg)
	s.history = []string{"ping", "heap-info", "servo 15 move 90", "stack-info"}

	require.NoError(t, dispatch(t, s, "history"))
	assert.Equal(t, s.history, s.infos)

	s.infos = nil
	require.NoError(t, dispatch(t, s, "history *-info"))
	assert.Equal(t, []string{"heap-info", "stack-info"}, s.infos)

	s.infos = nil
	require.NoError(t, dispatch(t, s, "history zz*"))
	assert.Equal(t, []string{"<no matching history>"}, s.infos)
}

func TestEcho(t *testing.T) {
	reg := coreRegistry(t)
	s := newFakeSession(reg)

	require.NoError(t, dispatch(t, s, "echo hello there"))
	assert.Equal(t, []string{"hello there"}, s.infos)
}

func TestArgs(t *testing.T) {
	reg := coreRegistry(t)
	s := newFakeSession(reg)

	require.NoError(t, dispatch(t, s, "args one two"))
	require.Len(t, s.infos, 3)
	assert.Contains(t, s.infos[0], "2 arguments")
	assert.Equal(t, `  [0] "one"`, s.infos[1])
	assert.Equal(t, `  [1] "two"`, s.infos[2])
}

func TestConfigListsAllKeys(t *testing.T) {
	reg := coreRegistry(t)
	s := newFakeSession(reg)

	require.NoError(t, dispatch(t, s, "config"))

	out := s.infoText()
	for _, key := range config.GetAllKeys() {
		assert.Contains(t, out, key)
	}
	assert.Contains(t, out, "115200")
}

func TestConfigGet(t *testing.T) {
	reg := coreRegistry(t)
	s := newFakeSession(reg)
	s.cfg.Serial.Port = "/dev/ttyUSB0"

	require.NoError(t, dispatch(t, s, "config serial.port"))
	assert.Equal(t, []string{"serial.port = /dev/ttyUSB0"}, s.infos)
}

func TestConfigSet(t *testing.T) {
	reg := coreRegistry(t)
	s := newFakeSession(reg)

	require.NoError(t, dispatch(t, s, "config serial.baud 57600"))
	assert.Equal(t, 57600, s.cfg.Serial.Baud)
	assert.Equal(t, []string{"serial.baud = 57600"}, s.infos)

	// bool coercion accepts the usual spellings
	require.NoError(t, dispatch(t, s, "config ui.color off"))
	assert.False(t, s.cfg.UI.Color)
}

func TestConfigUnknownKey(t *testing.T) {
	reg := coreRegistry(t)
	s := newFakeSession(reg)

	err := dispatch(t, s, "config bogus.key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestConfigSave(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	reg := coreRegistry(t)
	s := newFakeSession(reg)

	require.NoError(t, dispatch(t, s, "config serial.baud 57600 -s"))

	path, err := config.ConfigPathTOML()
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "57600")
	assert.Contains(t, s.infoText(), "saved "+path)
}

func TestExitAndQuit(t *testing.T) {
	reg := coreRegistry(t)

	for _, cmd := range []string{"exit", "quit"} {
		s := newFakeSession(reg)
		require.NoError(t, dispatch(t, s, cmd))
		assert.True(t, s.quit, "%s should request shutdown", cmd)
	}
}

func TestLogTestBackgroundWorker(t *testing.T) {
	old := logTestInterval
	logTestInterval = time.Millisecond
	defer func() { logTestInterval = old }()

	reg := coreRegistry(t)
	s := newFakeSession(reg)

	require.NoError(t, dispatch(t, s, "log-test"))
	assert.Contains(t, s.infoText(), "background logger started")

	// the worker signs off with an error line
	deadline := time.After(2 * time.Second)
	for {
		s.mu.Lock()
		done := len(s.errs) > 0
		s.mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("background worker never finished")
		case <-time.After(5 * time.Millisecond):
		}
	}

	s.mu.Lock()
	firstErr := s.errs[0]
	s.mu.Unlock()
	assert.Contains(t, firstErr, "expected")
	assert.Contains(t, s.infoText(), fmt.Sprintf("log test %d/%d", logTestLines, logTestLines))
}
