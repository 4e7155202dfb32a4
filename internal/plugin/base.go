// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plugin

import (
	"github.com/jeranaias/duinocli/internal/argspec"
)

// =============================================================================
// DECLARATIVE PLUGIN BASE
// =============================================================================

// Command bundles one command's registration data for Base plugins.
type Command struct {
	// Name in internal (underscore) form
	Name string

	// Help is the one-line description shown by help listings
	Help string

	// Spec is the argument specification (nil = catch-all argv)
	Spec *argspec.Parser

	// Handler executes the command
	Handler Handler
}

// Base is a declarative Plugin implementation: construct, Add commands,
// hand to the registry. Built-in plugins embed it.
type Base struct {
	name     string
	commands []*Command
	index    map[string]*Command
}

// NewBase creates an empty plugin with the given name.
func NewBase(name string) *Base {
	return &Base{
		name:  name,
		index: make(map[string]*Command),
	}
}

// Add registers a command definition. Panics on a duplicate name within
// the same plugin: that is a programming error, not a runtime condition.
func (b *Base) Add(cmd *Command) {
	if _, ok := b.index[cmd.Name]; ok {
		panic("plugin " + b.name + ": duplicate command " + cmd.Name)
	}
	if cmd.Spec != nil {
		if err := cmd.Spec.Validate(); err != nil {
			panic("plugin " + b.name + ": " + err.Error())
		}
	}
	b.commands = append(b.commands, cmd)
	b.index[cmd.Name] = cmd
}

// Name implements Plugin.
func (b *Base) Name() string { return b.name }

// Commands implements Plugin.
func (b *Base) Commands() []string {
	names := make([]string, 0, len(b.commands))
	for _, cmd := range b.commands {
		names = append(names, cmd.Name)
	}
	return names
}

// Handler implements Plugin.
func (b *Base) Handler(name string) Handler {
	if cmd, ok := b.index[name]; ok {
		return cmd.Handler
	}
	return nil
}

// Spec implements Plugin.
func (b *Base) Spec(name string) *argspec.Parser {
	if cmd, ok := b.index[name]; ok {
		return cmd.Spec
	}
	return nil
}

// Help implements Plugin.
func (b *Base) Help(name string) string {
	if cmd, ok := b.index[name]; ok {
		return cmd.Help
	}
	return ""
}
