// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plugin

import (
	"sort"
	"strings"

	"github.com/jeranaias/duinocli/internal/argspec"
)

// =============================================================================
// COMPLETER
// =============================================================================

// Completion is one ranked completion candidate.
type Completion struct {
	// Value to insert
	Value string

	// Score for ranking (higher = better match)
	Score int
}

// Completer provides tab completion over a registry: command names before
// the first space, then per-argument candidates from the command's
// specification tree (choice values, sub-command names, flag aliases,
// provider callbacks).
type Completer struct {
	registry *Registry
}

// NewCompleter creates a completer backed by the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns full-line completions for the given input, suitable for
// a line editor that replaces the whole line.
func (c *Completer) Complete(line string) []string {
	trimmed := strings.TrimLeft(line, " ")
	leading := line[:len(line)-len(trimmed)]

	parts := strings.Fields(trimmed)
	endsSpace := trimmed == "" || strings.HasSuffix(line, " ")

	// Completing the command name itself.
	if len(parts) == 0 || (len(parts) == 1 && !endsSpace) {
		partial := ""
		if len(parts) == 1 {
			partial = parts[0]
		}
		var out []string
		for _, comp := range c.completeCommands(partial) {
			out = append(out, leading+comp.Value)
		}
		return out
	}

	entry := c.registry.Resolve(parts[0])
	if entry == nil {
		return nil
	}

	args := parts[1:]
	partial := ""
	if !endsSpace {
		partial = args[len(args)-1]
		args = args[:len(args)-1]
	}

	candidates := candidatesFor(entry.Spec, args)
	completions := rankCandidates(candidates, partial)

	base := line[:len(line)-len(partial)]
	var out []string
	for _, comp := range completions {
		out = append(out, base+comp.Value)
	}
	return out
}

// completeCommands ranks registry command names against a partial word.
func (c *Completer) completeCommands(partial string) []Completion {
	return rankCandidates(c.registry.Commands(), partial)
}

// =============================================================================
// SPEC TREE WALK
// =============================================================================

// candidatesFor walks already-entered argument tokens against the tree and
// returns the candidate pool for the next token: remaining flag aliases,
// the next positional's choices or provider values, and sub-command names
// once this node's positionals are satisfied.
func candidatesFor(node *argspec.Parser, consumed []string) []string {
	posIndex := 0
	usedFlags := make(map[string]bool)

	for i := 0; i < len(consumed); i++ {
		tok := consumed[i]

		if arg := flagArg(node, tok); arg != nil {
			usedFlags[arg.Name] = true
			if arg.Type != argspec.TypeBool {
				i++ // skip the flag's value token
			}
			continue
		}

		if node.Subs != nil && posIndex >= len(positionals(node)) {
			if child := node.Subs.Child(tok); child != nil {
				node = child
				posIndex = 0
				usedFlags = make(map[string]bool)
				continue
			}
		}
		posIndex++
	}

	var out []string

	pos := positionals(node)
	idx := posIndex
	// a trailing zero-or-more argument keeps accepting candidates
	if idx >= len(pos) && len(pos) > 0 && pos[len(pos)-1].Arity == argspec.ArityZeroOrMore {
		idx = len(pos) - 1
	}
	if idx < len(pos) {
		out = append(out, argCandidates(pos[idx])...)
	}

	if node.Subs != nil && posIndex >= len(pos) {
		out = append(out, node.Subs.Names()...)
	}

	for _, arg := range node.Args {
		if arg.IsFlag() && !usedFlags[arg.Name] {
			out = append(out, arg.Flags...)
		}
	}

	return dedup(out)
}

func positionals(node *argspec.Parser) []*argspec.Arg {
	var out []*argspec.Arg
	for _, arg := range node.Args {
		if !arg.IsFlag() {
			out = append(out, arg)
		}
	}
	return out
}

func flagArg(node *argspec.Parser, token string) *argspec.Arg {
	for _, arg := range node.Args {
		if arg.IsFlag() && arg.MatchesFlag(token) {
			return arg
		}
	}
	return nil
}

func argCandidates(arg *argspec.Arg) []string {
	if len(arg.Choices) > 0 {
		return arg.Choices
	}
	if arg.Completer != nil {
		return arg.Completer()
	}
	return nil
}

// =============================================================================
// RANKING
// =============================================================================

func rankCandidates(candidates []string, partial string) []Completion {
	var out []Completion
	lower := strings.ToLower(partial)
	for _, cand := range candidates {
		if !strings.HasPrefix(strings.ToLower(cand), lower) {
			continue
		}
		out = append(out, Completion{Value: cand, Score: calculateScore(cand, lower)})
	}
	sortCompletions(out)
	return out
}

func calculateScore(value, partial string) int {
	value = strings.ToLower(value)

	score := 100
	if value == partial {
		return score + 100
	}
	if strings.HasPrefix(value, partial) {
		score += 50
		score += 20 - len(value)
	}
	score -= len(value) / 2
	return score
}

// sortCompletions sorts by score (descending), then alphabetically.
func sortCompletions(completions []Completion) {
	sort.Slice(completions, func(i, j int) bool {
		if completions[i].Score != completions[j].Score {
			return completions[i].Score > completions[j].Score
		}
		return completions[i].Value < completions[j].Value
	})
}

func dedup(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
