// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package argspec

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// ARGUMENT ERROR
// =============================================================================

// ArgumentError reports a failure to bind tokens against a specification
// tree: unknown flag, arity mismatch, bad conversion, or an invalid
// sub-command. It carries a usage string synthesized from the tree so the
// shell can show the user what was expected.
type ArgumentError struct {
	Command string
	Message string
	Usage   string
}

func (e *ArgumentError) Error() string {
	if e.Usage != "" {
		return fmt.Sprintf("%s: %s\n%s", e.Command, e.Message, e.Usage)
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

func (p *Parser) errorf(format string, args ...interface{}) *ArgumentError {
	return &ArgumentError{
		Command: p.Name,
		Message: fmt.Sprintf(format, args...),
		Usage:   p.UsageLine(),
	}
}

// =============================================================================
// PARSE RESULT
// =============================================================================

// Result holds the outcome of a successful parse: the resolved command path
// (command plus any selected sub-commands), the raw tokens, and the bound
// field values.
type Result struct {
	// Command is the resolved command path, e.g. ["servo", "move"]
	Command []string

	// Tokens are the raw argument tokens as given
	Tokens []string

	// Values maps argument names to bound values
	Values map[string]interface{}
}

// Has reports whether a value was bound (or defaulted) for name.
func (r *Result) Has(name string) bool {
	_, ok := r.Values[name]
	return ok
}

// String returns the value bound for name as a string, or "".
func (r *Result) String(name string) string {
	if v, ok := r.Values[name].(string); ok {
		return v
	}
	return ""
}

// Int returns the value bound for name as an int, or 0.
func (r *Result) Int(name string) int {
	switch v := r.Values[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// Bool returns the value bound for name as a bool, or false.
func (r *Result) Bool(name string) bool {
	if v, ok := r.Values[name].(bool); ok {
		return v
	}
	return false
}

// Strings returns the values bound for a zero-or-more argument, or nil.
func (r *Result) Strings(name string) []string {
	if v, ok := r.Values[name].([]string); ok {
		return v
	}
	return nil
}

// =============================================================================
// TOKEN BINDING
// =============================================================================

// Parse binds tokens against the tree and returns the typed result.
// Flags are matched anywhere in the token stream; positionals bind in
// declaration order. Never panics or exits: every failure is an
// *ArgumentError.
func (p *Parser) Parse(tokens []string) (*Result, error) {
	res := &Result{
		Command: []string{p.Name},
		Tokens:  tokens,
		Values:  make(map[string]interface{}),
	}
	if err := p.bind(tokens, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Parser) bind(tokens []string, res *Result) error {
	positionals, err := p.extractFlags(tokens, res)
	if err != nil {
		return err
	}

	// Bind positionals in declaration order.
	for _, arg := range p.Args {
		if arg.IsFlag() {
			continue
		}
		switch arg.Arity {
		case ArityOne:
			if len(positionals) == 0 {
				return p.errorf("missing required argument %s", arg.metavar())
			}
			val, err := p.convert(arg, positionals[0])
			if err != nil {
				return err
			}
			res.Values[arg.Name] = val
			positionals = positionals[1:]

		case ArityZeroOrOne:
			// Do not starve required positionals declared later.
			if len(positionals) <= p.pendingRequired(arg) {
				break
			}
			val, err := p.convert(arg, positionals[0])
			if err != nil {
				return err
			}
			res.Values[arg.Name] = val
			positionals = positionals[1:]

		case ArityZeroOrMore:
			vals := make([]string, 0, len(positionals))
			for _, tok := range positionals {
				if _, err := p.convert(arg, tok); err != nil {
					return err
				}
				vals = append(vals, tok)
			}
			res.Values[arg.Name] = vals
			positionals = nil
		}
	}

	// Apply defaults for absent arguments.
	for _, arg := range p.Args {
		if _, bound := res.Values[arg.Name]; bound {
			continue
		}
		switch {
		case arg.Default != nil:
			res.Values[arg.Name] = arg.Default
		case arg.Type == TypeBool:
			res.Values[arg.Name] = false
		}
	}

	// Sub-command resolution.
	if p.Subs != nil {
		if len(positionals) == 0 {
			if p.Subs.Required {
				return p.errorf("missing sub-command (choose from %s)",
					strings.Join(p.Subs.Names(), ", "))
			}
			return nil
		}
		name := positionals[0]
		child := p.Subs.Child(name)
		if child == nil {
			return p.errorf("invalid choice %q (choose from %s)",
				name, strings.Join(p.Subs.Names(), ", "))
		}
		res.Command = append(res.Command, name)
		res.Values[p.Subs.Name] = name
		return child.bind(positionals[1:], res)
	}

	if len(positionals) > 0 {
		return p.errorf("unexpected argument %q", positionals[0])
	}
	return nil
}

// pendingRequired counts required positionals declared after arg, so an
// optional positional does not starve them.
func (p *Parser) pendingRequired(arg *Arg) int {
	n := 0
	past := false
	for _, a := range p.Args {
		if a == arg {
			past = true
			continue
		}
		if past && !a.IsFlag() && a.Arity == ArityOne {
			n++
		}
	}
	return n
}

// extractFlags splits tokens into flag bindings (written into res) and
// positional tokens. Dash-prefixed tokens only count as flags when the node
// declares flag arguments; a spec with no flags passes them through as
// positionals (so a catch-all "argv" spec accepts anything).
func (p *Parser) extractFlags(tokens []string, res *Result) (positionals []string, err error) {
	hasFlags := false
	for _, arg := range p.Args {
		if arg.IsFlag() {
			hasFlags = true
			break
		}
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !hasFlags || !strings.HasPrefix(tok, "-") || tok == "-" || isNumber(tok) {
			positionals = append(positionals, tok)
			continue
		}

		arg := p.flagFor(tok)
		if arg == nil {
			return nil, p.errorf("unknown flag %s", tok)
		}
		if arg.Type == TypeBool {
			res.Values[arg.Name] = true
			continue
		}
		if i+1 >= len(tokens) {
			return nil, p.errorf("flag %s requires a value", tok)
		}
		i++
		val, err := p.convert(arg, tokens[i])
		if err != nil {
			return nil, err
		}
		res.Values[arg.Name] = val
	}
	return positionals, nil
}

func (p *Parser) flagFor(token string) *Arg {
	for _, arg := range p.Args {
		if arg.MatchesFlag(token) {
			return arg
		}
	}
	return nil
}

// convert validates and converts a single token per the argument's type.
func (p *Parser) convert(arg *Arg, token string) (interface{}, error) {
	switch arg.Type {
	case TypeInt:
		n, err := strconv.Atoi(token)
		if err != nil {
			return nil, p.errorf("argument %s: invalid integer %q", arg.metavar(), token)
		}
		return n, nil

	case TypeChoice:
		for _, c := range arg.Choices {
			if c == token {
				return token, nil
			}
		}
		return nil, p.errorf("argument %s: invalid choice %q (choose from %s)",
			arg.Name, token, strings.Join(arg.Choices, ", "))

	default:
		return token, nil
	}
}

func isNumber(token string) bool {
	if len(token) < 2 || token[0] != '-' {
		return false
	}
	_, err := strconv.Atoi(token)
	return err == nil
}
