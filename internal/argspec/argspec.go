// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package argspec provides the declarative argument specification tree used
// by command plugins: positional and flag argument descriptors, nested
// sub-command groups, token binding, and argparse-style usage synthesis.
package argspec

import (
	"fmt"
	"strings"
)

// =============================================================================
// SPECIFICATION TREE
// =============================================================================

// Arity describes how many tokens an argument consumes.
type Arity int

const (
	ArityOne        Arity = iota // exactly one token
	ArityZeroOrOne               // optional, at most one token
	ArityZeroOrMore              // optional, consumes all remaining tokens
)

// ValueType describes how a bound token is converted and validated.
type ValueType int

const (
	TypeString ValueType = iota // free-form string
	TypeInt                     // decimal integer
	TypeChoice                  // one of Choices
	TypeBool                    // presence flag, no value token
)

// Arg describes a single positional or flag argument.
type Arg struct {
	// Name is the field name the bound value is stored under
	Name string

	// Flags are alias spellings (e.g. "-v", "--verbose").
	// Empty means the argument is positional.
	Flags []string

	// Arity controls how many tokens the argument consumes
	Arity Arity

	// Type controls conversion and validation
	Type ValueType

	// Choices enumerates valid values for TypeChoice
	Choices []string

	// Default is bound when no token matched (nil = absent)
	Default interface{}

	// Help is shown in the per-argument description block
	Help string

	// Metavar overrides the placeholder shown in usage (default: NAME upper)
	Metavar string

	// Completer supplies completion candidates for this argument
	Completer func() []string
}

// IsFlag reports whether the argument is matched by alias rather than
// position.
func (a *Arg) IsFlag() bool {
	return len(a.Flags) > 0
}

// MatchesFlag reports whether token is one of the argument's alias spellings.
func (a *Arg) MatchesFlag(token string) bool {
	for _, f := range a.Flags {
		if f == token {
			return true
		}
	}
	return false
}

func (a *Arg) metavar() string {
	if a.Metavar != "" {
		return a.Metavar
	}
	if a.Type == TypeChoice && len(a.Choices) > 0 {
		return "{" + strings.Join(a.Choices, ",") + "}"
	}
	return strings.ToUpper(a.Name)
}

// Parser is one node of the specification tree: an ordered set of argument
// leaves plus an optional group of named sub-commands.
type Parser struct {
	// Name of the command or sub-command this node describes
	Name string

	// Help is a one-line description used by help output
	Help string

	// Args are the node's argument leaves, in declaration order
	Args []*Arg

	// Subs is the optional sub-command group (nil for leaf commands)
	Subs *SubParsers
}

// SubParsers is a named group of sub-command choices.
type SubParsers struct {
	// Name is the field the selected sub-command name is stored under
	Name string

	// Required makes omitting a sub-command an error
	Required bool

	// Children are the sub-command choices, in declaration order
	Children []*Parser
}

// Child returns the sub-parser with the given name, or nil.
func (s *SubParsers) Child(name string) *Parser {
	for _, c := range s.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Names returns the sub-command names in declaration order.
func (s *SubParsers) Names() []string {
	names := make([]string, 0, len(s.Children))
	for _, c := range s.Children {
		names = append(names, c.Name)
	}
	return names
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the structural invariants of the tree: leaf names unique
// within a node, flag aliases unique within a node, sub-command names unique
// within a group. Called once at registration; parse assumes a valid tree.
func (p *Parser) Validate() error {
	names := make(map[string]bool)
	flags := make(map[string]bool)

	for _, arg := range p.Args {
		if arg.Name == "" {
			return fmt.Errorf("%s: argument with empty name", p.Name)
		}
		if names[arg.Name] {
			return fmt.Errorf("%s: duplicate argument name %q", p.Name, arg.Name)
		}
		names[arg.Name] = true

		for _, f := range arg.Flags {
			if flags[f] {
				return fmt.Errorf("%s: duplicate flag %q", p.Name, f)
			}
			flags[f] = true
		}

		if arg.Type == TypeChoice && len(arg.Choices) == 0 {
			return fmt.Errorf("%s: argument %q is a choice with no choices", p.Name, arg.Name)
		}
		if arg.Type == TypeBool && !arg.IsFlag() {
			return fmt.Errorf("%s: argument %q is a bool but not a flag", p.Name, arg.Name)
		}
	}

	if p.Subs != nil {
		if names[p.Subs.Name] {
			return fmt.Errorf("%s: sub-command group name %q collides with an argument", p.Name, p.Subs.Name)
		}
		seen := make(map[string]bool)
		for _, child := range p.Subs.Children {
			if seen[child.Name] {
				return fmt.Errorf("%s: duplicate sub-command %q", p.Name, child.Name)
			}
			seen[child.Name] = true
			if err := child.Validate(); err != nil {
				return err
			}
		}
	}

	return nil
}

// =============================================================================
// DEFAULT CATCH-ALL SPEC
// =============================================================================

// DefaultSpec returns the catch-all specification used when a command
// registers no tree of its own: zero or more free-form strings bound
// under "argv".
func DefaultSpec(command string) *Parser {
	return &Parser{
		Name: command,
		Args: []*Arg{
			{Name: "argv", Arity: ArityZeroOrMore, Type: TypeString, Metavar: "ARG"},
		},
	}
}
