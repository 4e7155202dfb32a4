// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package argspec

import (
	"fmt"
	"strings"

	"github.com/jeranaias/duinocli/internal/util"
)

// =============================================================================
// USAGE SYNTHESIS
// =============================================================================

// UsageLine returns the single-line usage synopsis for the node, e.g.
//
//	usage: servo ID [{move,speed,id} ...]
func (p *Parser) UsageLine() string {
	var b strings.Builder
	b.WriteString("usage: ")
	b.WriteString(p.Name)

	for _, arg := range p.Args {
		if !arg.IsFlag() {
			continue
		}
		b.WriteString(" [")
		b.WriteString(arg.Flags[0])
		if arg.Type != TypeBool {
			b.WriteString(" ")
			b.WriteString(arg.metavar())
		}
		b.WriteString("]")
	}

	for _, arg := range p.Args {
		if arg.IsFlag() {
			continue
		}
		b.WriteString(" ")
		switch arg.Arity {
		case ArityOne:
			b.WriteString(arg.metavar())
		case ArityZeroOrOne:
			b.WriteString("[" + arg.metavar() + "]")
		case ArityZeroOrMore:
			b.WriteString("[" + arg.metavar() + " ...]")
		}
	}

	if p.Subs != nil {
		choice := "{" + strings.Join(p.Subs.Names(), ",") + "}"
		if p.Subs.Required {
			b.WriteString(" " + choice + " ...")
		} else {
			b.WriteString(" [" + choice + " ...]")
		}
	}

	return b.String()
}

// Describe returns the full help block: usage line, command description,
// then argparse-style positional and option sections.
func (p *Parser) Describe() string {
	var b strings.Builder
	b.WriteString(p.UsageLine())
	b.WriteString("\n")

	if p.Help != "" {
		b.WriteString("\n")
		b.WriteString(p.Help)
		b.WriteString("\n")
	}

	var positionals, options []string
	for _, arg := range p.Args {
		if arg.IsFlag() {
			label := strings.Join(arg.Flags, ", ")
			if arg.Type != TypeBool {
				label += " " + arg.metavar()
			}
			options = append(options, formatArgLine(label, arg.Help))
		} else {
			positionals = append(positionals, formatArgLine(arg.metavar(), arg.Help))
		}
	}
	if p.Subs != nil {
		for _, child := range p.Subs.Children {
			positionals = append(positionals, formatArgLine(child.Name, child.Help))
		}
	}

	if len(positionals) > 0 {
		b.WriteString("\npositional arguments:\n")
		for _, line := range positionals {
			b.WriteString(line)
		}
	}
	if len(options) > 0 {
		b.WriteString("\noptions:\n")
		for _, line := range options {
			b.WriteString(line)
		}
	}

	return b.String()
}

// helpColumn is where argument descriptions start; descriptions are
// clamped so each entry stays on one 80-column row.
const helpColumn = 24

func formatArgLine(label, help string) string {
	if help == "" {
		return fmt.Sprintf("  %s\n", label)
	}
	help = util.TruncateRunes(help, 80-helpColumn)
	if len(label) > 20 {
		return fmt.Sprintf("  %s\n%s%s\n", label, strings.Repeat(" ", helpColumn), help)
	}
	return fmt.Sprintf("  %-22s%s\n", label, help)
}
