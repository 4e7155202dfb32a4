// duinocli - an interactive command shell for serial-attached microcontrollers.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/duinocli/internal/bus"
	"github.com/jeranaias/duinocli/internal/config"
	"github.com/jeranaias/duinocli/internal/plugin"
	"github.com/jeranaias/duinocli/internal/plugins/core"
	"github.com/jeranaias/duinocli/internal/plugins/device"
	"github.com/jeranaias/duinocli/internal/shell"
)

// Version information (set at build time)
var (
	Version   = "0.2.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// FLAG PARSING
// =============================================================================

// options holds the parsed command-line state. Trailing non-flag arguments
// are joined into a single one-shot command line.
type options struct {
	port    string
	baud    int
	netAddr string
	list    bool
	debug   bool
	nocolor bool
	script  string
	version bool
	oneShot []string
}

func usage(w *os.File) {
	fmt.Fprintf(w, "usage: duinocli [options] [command ...]\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Interactive command shell for serial-attached microcontrollers.\n")
	fmt.Fprintf(w, "With trailing arguments, runs that command once and exits.\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "options:\n")
	fmt.Fprintf(w, "  -p, --port PORT    serial port (default: auto-detect)\n")
	fmt.Fprintf(w, "  -b, --baud RATE    serial baud rate (default: %d)\n", config.Default().Serial.Baud)
	fmt.Fprintf(w, "  -n, --net ADDR     connect over TCP instead of serial (host[:port])\n")
	fmt.Fprintf(w, "  -l, --list         list available serial ports and exit\n")
	fmt.Fprintf(w, "  -s, --script FILE  run commands from FILE and exit\n")
	fmt.Fprintf(w, "  -d, --debug        enable debug output and bus traffic dumps\n")
	fmt.Fprintf(w, "      --nocolor      disable colored output\n")
	fmt.Fprintf(w, "      --version      print version and exit\n")
	fmt.Fprintf(w, "  -h, --help         show this help\n")
}

// parseFlags walks the argument list by hand so that trailing arguments
// after the flags can be collected as the one-shot command line.
func parseFlags(args []string) (*options, error) {
	opts := &options{}

	needsValue := func(i int, name string) (string, error) {
		if i+1 >= len(args) {
			return "", fmt.Errorf("%s requires a value", name)
		}
		return args[i+1], nil
	}

	i := 0
	for i < len(args) {
		arg := args[i]

		if !strings.HasPrefix(arg, "-") || arg == "-" {
			// First non-flag argument: everything from here on is the
			// one-shot command, including tokens that look like flags.
			opts.oneShot = args[i:]
			return opts, nil
		}

		switch arg {
		case "-p", "--port":
			v, err := needsValue(i, arg)
			if err != nil {
				return nil, err
			}
			opts.port = v
			i++
		case "-b", "--baud":
			v, err := needsValue(i, arg)
			if err != nil {
				return nil, err
			}
			baud, err := strconv.Atoi(v)
			if err != nil || baud <= 0 {
				return nil, fmt.Errorf("invalid baud rate %q", v)
			}
			opts.baud = baud
			i++
		case "-n", "--net":
			v, err := needsValue(i, arg)
			if err != nil {
				return nil, err
			}
			opts.netAddr = v
			i++
		case "-s", "--script":
			v, err := needsValue(i, arg)
			if err != nil {
				return nil, err
			}
			opts.script = v
			i++
		case "-l", "--list":
			opts.list = true
		case "-d", "--debug":
			opts.debug = true
		case "--nocolor", "--no-color":
			opts.nocolor = true
		case "--version":
			opts.version = true
		case "-h", "--help":
			usage(os.Stdout)
			os.Exit(0)
		default:
			return nil, fmt.Errorf("unknown flag %q", arg)
		}
		i++
	}

	return opts, nil
}

// =============================================================================
// BUS SELECTION
// =============================================================================

// openBus picks the device transport: explicit TCP address, explicit serial
// port, or auto-detected serial port. Returns nil (detached mode) when no
// device can be found, with a notice on the output sink.
func openBus(opts *options, cfg *config.Config, out *shell.Output) bus.Bus {
	if opts.netAddr != "" {
		host, portStr, err := net.SplitHostPort(opts.netAddr)
		if err != nil {
			// Bare hostname: use the configured socket port.
			host = opts.netAddr
			portStr = strconv.Itoa(cfg.Socket.Port)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			out.Error("invalid network address %q", opts.netAddr)
			return nil
		}
		b, err := bus.DialSocket(host, port)
		if err != nil {
			out.Error("%v", err)
			out.Info("running detached; device commands will report no device")
			return nil
		}
		out.Info("connected to %s", net.JoinHostPort(host, portStr))
		return b
	}

	port := opts.port
	if port == "" {
		port = cfg.Serial.Port
	}
	if port == "" {
		// DetectPort reports no match as ("", nil); both cases mean detached.
		detected, err := bus.DetectPort(device.ProductNames)
		if err != nil || detected == "" {
			out.Info("no device detected; running detached")
			return nil
		}
		port = detected
	}

	baud := opts.baud
	if baud == 0 {
		baud = cfg.Serial.Baud
	}

	b, err := bus.OpenSerial(port, baud)
	if err != nil {
		out.Error("%v", err)
		out.Info("running detached; device commands will report no device")
		return nil
	}
	out.Info("connected to %s at %d baud", port, baud)
	return b
}

// listPorts prints the detailed serial port table for -l/--list.
func listPorts(out *shell.Output) int {
	ports, err := bus.ListPorts()
	if err != nil {
		out.Error("%v", err)
		return 1
	}
	if len(ports) == 0 {
		out.Info("<no serial ports found>")
		return 0
	}
	for _, p := range ports {
		out.Info("%s", p)
	}
	return 0
}

// =============================================================================
// MAIN
// =============================================================================

func main() {
	os.Exit(run())
}

func run() int {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "duinocli: %v\n", err)
		usage(os.Stderr)
		return 2
	}

	if opts.version {
		fmt.Printf("duinocli %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "duinocli: %v\n", err)
		return 1
	}
	if opts.nocolor {
		cfg.UI.Color = false
	}

	// Pin the lipgloss renderer to the detected terminal capabilities so
	// styled output degrades to plain text off-TTY and under NO_COLOR.
	lipgloss.SetColorProfile(shell.ColorProfile(cfg.UI.Color))

	out := shell.NewOutput(os.Stdout, shell.ColorsEnabled(cfg.UI.Color))

	if opts.list {
		return listPorts(out)
	}

	registry := plugin.NewRegistry()
	for _, p := range []plugin.Plugin{core.New(), device.New()} {
		for _, c := range registry.Register(p) {
			out.Error("command %q from plugin %q shadowed by plugin %q",
				c.Command, c.Loser, c.Winner)
		}
	}

	dev := openBus(opts, cfg, out)
	if dev != nil {
		defer dev.Close()
	}

	if opts.script != "" {
		sh := shell.New(cfg, registry, out, shell.NewScriptReader(nil), dev)
		if opts.debug {
			sh.SetDebugMode(true)
		}
		if err := sh.RunScript(opts.script); err != nil {
			out.Error("%v", err)
			return 1
		}
		if out.ErrorCount() > 0 {
			return 1
		}
		return 0
	}

	completer := plugin.NewCompleter(registry)
	reader := shell.NewTermReader(completer.Complete)
	defer reader.Close()

	sh := shell.New(cfg, registry, out, reader, dev)
	sh.LoadHistory()
	if opts.debug {
		sh.SetDebugMode(true)
	}

	if err := sh.Run(strings.Join(opts.oneShot, " ")); err != nil {
		out.Error("%v", err)
		return 1
	}
	if len(opts.oneShot) > 0 && out.ErrorCount() > 0 {
		return 1
	}
	return 0
}
