// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package core provides the shell's built-in commands: help, history, echo,
// args, config, exit/quit, and the log-test background-output exercise.
package core

import (
	"strings"
	"time"

	"github.com/jeranaias/duinocli/internal/argspec"
	"github.com/jeranaias/duinocli/internal/config"
	"github.com/jeranaias/duinocli/internal/plugin"
	"github.com/jeranaias/duinocli/internal/util"
)

// =============================================================================
// PLUGIN
// =============================================================================

// New creates the core plugin.
func New() plugin.Plugin {
	p := plugin.NewBase("core")

	p.Add(&plugin.Command{
		Name: "help",
		Help: "List commands, or describe the named commands in detail.",
		Spec: &argspec.Parser{
			Name: "help",
			Help: "List commands, or describe the named commands in detail.",
			Args: []*argspec.Arg{
				{
					Name:  "verbose",
					Flags: []string{"-v", "--verbose"},
					Type:  argspec.TypeBool,
					Help:  "describe every command in detail",
				},
				{
					Name:    "commands",
					Arity:   argspec.ArityZeroOrMore,
					Type:    argspec.TypeString,
					Metavar: "COMMAND",
					Help:    "commands to describe",
				},
			},
		},
		Handler: handleHelp,
	})

	p.Add(&plugin.Command{
		Name: "history",
		Help: "Show command history, optionally filtered by a glob pattern.",
		Spec: &argspec.Parser{
			Name: "history",
			Help: "Show command history, optionally filtered by a glob pattern.",
			Args: []*argspec.Arg{
				{
					Name:    "filter",
					Arity:   argspec.ArityZeroOrOne,
					Type:    argspec.TypeString,
					Metavar: "FILTER",
					Help:    "glob pattern matched against the command word",
				},
			},
		},
		Handler: handleHistory,
	})

	p.Add(&plugin.Command{
		Name: "config",
		Help: "Show or change configuration values.",
		Spec: &argspec.Parser{
			Name: "config",
			Help: "Show or change configuration values.",
			Args: []*argspec.Arg{
				{
					Name:  "save",
					Flags: []string{"-s", "--save"},
					Type:  argspec.TypeBool,
					Help:  "write the configuration file afterwards",
				},
				{
					Name:      "key",
					Arity:     argspec.ArityZeroOrOne,
					Type:      argspec.TypeString,
					Metavar:   "KEY",
					Completer: config.GetAllKeys,
					Help:      "configuration key in dot notation (e.g. serial.baud)",
				},
				{
					Name:    "value",
					Arity:   argspec.ArityZeroOrOne,
					Type:    argspec.TypeString,
					Metavar: "VALUE",
					Help:    "new value for the key",
				},
			},
		},
		Handler: handleConfig,
	})

	p.Add(&plugin.Command{
		Name:    "echo",
		Help:    "Print the arguments back.",
		Handler: handleEcho,
	})

	p.Add(&plugin.Command{
		Name:    "args",
		Help:    "Print each argument on its own line, for quoting experiments.",
		Handler: handleArgs,
	})

	p.Add(&plugin.Command{
		Name:    "exit",
		Help:    "Exit the shell.",
		Handler: handleQuit,
	})

	p.Add(&plugin.Command{
		Name:    "quit",
		Help:    "Exit the shell.",
		Handler: handleQuit,
	})

	p.Add(&plugin.Command{
		Name:    "log_test",
		Help:    "Emit log lines from a background worker to exercise the output sink.",
		Handler: handleLogTest,
	})

	return p
}

// =============================================================================
// HANDLERS
// =============================================================================

func handleHelp(s plugin.Session, args *argspec.Result) error {
	registry := s.Registry()
	names := args.Strings("commands")

	if len(names) == 0 && !args.Bool("verbose") {
		s.Info("Available commands:")
		util.Columnize(registry.Commands(), util.TerminalWidth(), func(line string) {
			s.Info("%s", line)
		})
		s.Info("")
		s.Info("Type 'help COMMAND' for details on a command.")
		return nil
	}

	if len(names) == 0 {
		names = registry.Commands()
	}

	for i, name := range names {
		entry := registry.Resolve(name)
		if entry == nil {
			s.Error("unrecognized command: %s", name)
			continue
		}
		if i > 0 {
			s.Info("")
		}
		s.Info("%s", entry.Spec.Describe())
		if entry.Help != "" && entry.Spec.Help == "" {
			s.Info("%s", entry.Help)
		}
	}
	return nil
}

func handleHistory(s plugin.Session, args *argspec.Result) error {
	filter := args.String("filter")
	lines := s.HistoryLines()

	shown := 0
	for _, line := range lines {
		if filter != "" {
			word := line
			if i := strings.IndexByte(line, ' '); i >= 0 {
				word = line[:i]
			}
			if !util.Glob(filter, word) {
				continue
			}
		}
		s.Info("%s", line)
		shown++
	}
	if shown == 0 {
		s.Info("<no matching history>")
	}
	return nil
}

func handleConfig(s plugin.Session, args *argspec.Result) error {
	cfg := s.Config()
	key := args.String("key")

	switch {
	case args.Has("value"):
		// Set passes the raw token through; type coercion happens on the
		// config field itself.
		if err := cfg.Set(key, args.String("value")); err != nil {
			return err
		}
		v, err := cfg.Get(key)
		if err != nil {
			return err
		}
		s.Info("%s = %v", key, v)
	case key != "":
		v, err := cfg.Get(key)
		if err != nil {
			return err
		}
		s.Info("%s = %v", key, v)
	default:
		for _, k := range config.GetAllKeys() {
			v, err := cfg.Get(k)
			if err != nil {
				continue
			}
			s.Info("%-24s %v", k, v)
		}
	}

	if args.Bool("save") {
		if err := config.Save(cfg); err != nil {
			return err
		}
		if path, err := config.ConfigPathTOML(); err == nil {
			s.Info("saved %s", path)
		}
	}
	return nil
}

func handleEcho(s plugin.Session, args *argspec.Result) error {
	s.Info("%s", strings.Join(args.Strings("argv"), " "))
	return nil
}

func handleArgs(s plugin.Session, args *argspec.Result) error {
	argv := args.Strings("argv")
	s.Info("%s:", util.FormatCount(len(argv), "argument"))
	for i, arg := range argv {
		s.Info("  [%d] %q", i, arg)
	}
	return nil
}

func handleQuit(s plugin.Session, args *argspec.Result) error {
	s.Quit()
	return nil
}

// logTestLines is how many lines the background worker emits.
const logTestLines = 5

// logTestInterval spaces the background worker's output.
var logTestInterval = 200 * time.Millisecond

func handleLogTest(s plugin.Session, args *argspec.Result) error {
	// The worker only produces output through the shared sink; it never
	// touches shell state or history.
	go func() {
		for i := 1; i <= logTestLines; i++ {
			s.Info("log test %d/%d", i, logTestLines)
			s.Debug("log test debug %d", i)
			time.Sleep(logTestInterval)
		}
		s.Error("log test error line (expected)")
	}()
	s.Info("background logger started")
	return nil
}
