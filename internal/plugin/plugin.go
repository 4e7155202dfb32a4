// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package plugin defines the capability interface command plugins implement
// and the registry that indexes their commands for dispatch, help, and tab
// completion.
package plugin

import (
	"sort"
	"strings"

	"github.com/jeranaias/duinocli/internal/argspec"
	"github.com/jeranaias/duinocli/internal/bus"
	"github.com/jeranaias/duinocli/internal/config"
)

// =============================================================================
// CAPABILITY INTERFACES
// =============================================================================

// Session is the shell surface handlers act through: output, prompt stack
// control, and access to the shared collaborators. The dispatcher implements
// it; tests substitute a capture fake.
type Session interface {
	// Info writes informational output (redirected when > / >> is active)
	Info(format string, args ...interface{})

	// Error writes to the error channel (never redirected)
	Error(format string, args ...interface{})

	// Debug writes debug output, visible only when debug mode is on
	Debug(format string, args ...interface{})

	// PushPrompt enters a nested prompt loop after the current handler
	// returns. segment extends the prompt; prefix tokens are prepended to
	// every line entered in the nested loop.
	PushPrompt(segment string, prefix []string)

	// Quit requests a clean shutdown, unwinding all nested loops
	Quit()

	// SetDebugMode toggles debug output and bus packet dumps
	SetDebugMode(enabled bool)

	// DebugMode reports whether debug mode is on
	DebugMode() bool

	// Registry gives handlers access to command metadata (help, completion)
	Registry() *Registry

	// HistoryLines returns the recorded history, oldest first
	HistoryLines() []string

	// Config is the active configuration, read-only by convention
	Config() *config.Config

	// Bus is the device transport, nil when running detached
	Bus() bus.Bus
}

// Handler executes one parsed command.
type Handler func(s Session, args *argspec.Result) error

// Plugin is the capability set the registry consumes. Commands are
// enumerated explicitly; there is no reflective handler discovery.
type Plugin interface {
	// Name identifies the plugin in collision reports
	Name() string

	// Commands returns the command names the plugin provides, in internal
	// (underscore) form
	Commands() []string

	// Handler returns the handler for a command, or nil
	Handler(name string) Handler

	// Spec returns the argument specification for a command, or nil for
	// the catch-all default
	Spec(name string) *argspec.Parser

	// Help returns the one-line help text for a command
	Help(name string) string
}

// =============================================================================
// REGISTRY
// =============================================================================

// Entry is one registered command: the owning plugin plus its dispatch
// target, resolved once at registration time.
type Entry struct {
	Plugin  Plugin
	Command string
	Handler Handler
	Spec    *argspec.Parser
	Help    string
}

// Collision records a command name that a later plugin tried to register
// over an existing entry. First registration wins.
type Collision struct {
	Command string
	Winner  string // plugin that kept the name
	Loser   string // plugin whose registration was ignored
}

// Registry indexes command names to dispatch entries. Populated at plugin
// load time and immutable afterwards; no hot reload.
type Registry struct {
	entries map[string]*Entry
	plugins []Plugin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register indexes every command the plugin provides. Duplicate command
// names keep the first registration; each ignored name is returned as a
// collision for the caller to report.
func (r *Registry) Register(p Plugin) []Collision {
	var collisions []Collision
	r.plugins = append(r.plugins, p)

	for _, name := range p.Commands() {
		internal := Normalize(name)
		if existing, ok := r.entries[internal]; ok {
			collisions = append(collisions, Collision{
				Command: internal,
				Winner:  existing.Plugin.Name(),
				Loser:   p.Name(),
			})
			continue
		}

		spec := p.Spec(name)
		if spec == nil {
			spec = argspec.DefaultSpec(Pretty(internal))
		}
		r.entries[internal] = &Entry{
			Plugin:  p,
			Command: internal,
			Handler: p.Handler(name),
			Spec:    spec,
			Help:    p.Help(name),
		}
	}
	return collisions
}

// Resolve returns the entry for a command name (user-facing or internal
// form), or nil.
func (r *Registry) Resolve(name string) *Entry {
	return r.entries[Normalize(name)]
}

// Commands returns all command names in user-facing form, sorted.
func (r *Registry) Commands() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, Pretty(name))
	}
	sort.Strings(names)
	return names
}

// Plugins returns the registered plugins in registration order.
func (r *Registry) Plugins() []Plugin {
	return r.plugins
}

// =============================================================================
// NAME NORMALIZATION
// =============================================================================

// Normalize maps the user-facing command form to the internal identifier
// form (heap-info -> heap_info).
func Normalize(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// Pretty maps the internal identifier form back to the user-facing form
// (heap_info -> heap-info).
func Pretty(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}
