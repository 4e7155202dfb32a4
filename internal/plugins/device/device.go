// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package device provides the commands that talk to the microcontroller:
// ping, debug, heap-info, stack-info, and the servo sub-shell.
package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/duinocli/internal/argspec"
	"github.com/jeranaias/duinocli/internal/bus"
	"github.com/jeranaias/duinocli/internal/plugin"
)

// ProductNames are the USB product strings used to auto-detect the device's
// serial port.
var ProductNames = []string{"arduino", "teensy", "esp32", "pico"}

// ErrNoDevice is returned when a device command runs with no bus attached.
var ErrNoDevice = errors.New("no device connected")

// =============================================================================
// PLUGIN
// =============================================================================

// New creates the device plugin.
func New() plugin.Plugin {
	p := plugin.NewBase("device")

	p.Add(&plugin.Command{
		Name: "ping",
		Help: "Check that the device is responding.",
		Spec: &argspec.Parser{
			Name: "ping",
			Help: "Check that the device is responding.",
		},
		Handler: handlePing,
	})

	p.Add(&plugin.Command{
		Name: "debug",
		Help: "Show or set debug mode (output and packet dumps).",
		Spec: &argspec.Parser{
			Name: "debug",
			Help: "Show or set debug mode (output and packet dumps).",
			Args: []*argspec.Arg{
				{
					Name:  "state",
					Arity: argspec.ArityZeroOrOne,
					Type:  argspec.TypeChoice,
					Choices: []string{
						"on", "off",
					},
					Help: "turn debug mode on or off; omit to show the current state",
				},
			},
		},
		Handler: handleDebug,
	})

	p.Add(&plugin.Command{
		Name:    "heap_info",
		Help:    "Show the device's heap statistics.",
		Spec:    &argspec.Parser{Name: "heap-info", Help: "Show the device's heap statistics."},
		Handler: infoHandler(bus.CmdHeapInfo),
	})

	p.Add(&plugin.Command{
		Name:    "stack_info",
		Help:    "Show the device's stack usage.",
		Spec:    &argspec.Parser{Name: "stack-info", Help: "Show the device's stack usage."},
		Handler: infoHandler(bus.CmdStackInfo),
	})

	p.Add(&plugin.Command{
		Name: "servo",
		Help: "Control a servo; without a sub-command, enter a servo sub-shell.",
		Spec: &argspec.Parser{
			Name: "servo",
			Help: "Control a servo; without a sub-command, enter a servo sub-shell.",
			Args: []*argspec.Arg{
				{Name: "id", Arity: argspec.ArityOne, Type: argspec.TypeInt, Help: "servo ID"},
			},
			Subs: &argspec.SubParsers{
				Name: "action",
				Children: []*argspec.Parser{
					{
						Name: "move",
						Help: "Move the servo to a position.",
						Args: []*argspec.Arg{
							{Name: "position", Arity: argspec.ArityOne, Type: argspec.TypeInt, Help: "target position (degrees)"},
						},
					},
					{
						Name: "speed",
						Help: "Set the servo's movement speed.",
						Args: []*argspec.Arg{
							{Name: "value", Arity: argspec.ArityOne, Type: argspec.TypeInt, Help: "speed value"},
						},
					},
					{
						Name: "id",
						Help: "Report the servo's configured ID.",
					},
				},
			},
		},
		Handler: handleServo,
	})

	return p
}

// =============================================================================
// HANDLERS
// =============================================================================

func exchange(s plugin.Session, pkt bus.Packet) (bus.Packet, error) {
	dev := s.Bus()
	if dev == nil {
		return bus.Packet{}, ErrNoDevice
	}
	ctx, cancel := bus.WithTimeout(context.Background(), 0)
	defer cancel()
	return dev.SendCommandGetResponse(ctx, pkt)
}

func handlePing(s plugin.Session, args *argspec.Result) error {
	resp, err := exchange(s, bus.Packet{ID: bus.CmdPing})
	if err != nil {
		return err
	}
	if len(resp.Data) > 0 {
		s.Info("%s", resp.Data)
	} else {
		s.Info("pong")
	}
	return nil
}

func handleDebug(s plugin.Session, args *argspec.Result) error {
	if !args.Has("state") {
		state := "off"
		if s.DebugMode() {
			state = "on"
		}
		s.Info("debug is %s", state)
		return nil
	}

	enabled := args.String("state") == "on"
	s.SetDebugMode(enabled)

	// tell the device too, best effort when attached
	if s.Bus() != nil {
		payload := []byte{0}
		if enabled {
			payload[0] = 1
		}
		if _, err := exchange(s, bus.Packet{ID: bus.CmdDebug, Data: payload}); err != nil {
			s.Error("device debug toggle failed: %v", err)
		}
	}

	s.Info("debug %s", args.String("state"))
	return nil
}

// infoHandler builds a handler that sends a bare query command and prints
// the textual response.
func infoHandler(id uint8) plugin.Handler {
	return func(s plugin.Session, args *argspec.Result) error {
		resp, err := exchange(s, bus.Packet{ID: id})
		if err != nil {
			return err
		}
		s.Info("%s", resp.Data)
		return nil
	}
}

func handleServo(s plugin.Session, args *argspec.Result) error {
	id := args.Int("id")

	if !args.Has("action") {
		// bare "servo ID" enters a sub-shell: every line gets the
		// "servo ID" prefix until EOF pops back out
		s.PushPrompt(fmt.Sprintf("Servo %d", id), []string{"servo", fmt.Sprintf("%d", id)})
		return nil
	}

	var payload string
	switch args.String("action") {
	case "move":
		payload = fmt.Sprintf("%d move %d", id, args.Int("position"))
	case "speed":
		payload = fmt.Sprintf("%d speed %d", id, args.Int("value"))
	case "id":
		payload = fmt.Sprintf("%d id", id)
	}

	resp, err := exchange(s, bus.Packet{ID: bus.CmdServo, Data: []byte(payload)})
	if err != nil {
		return err
	}
	if len(resp.Data) > 0 {
		s.Info("%s", resp.Data)
	}
	return nil
}
