// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bus

import (
	"fmt"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// =============================================================================
// SERIAL BUS
// =============================================================================

// SerialBus frames packets over a serial port.
type SerialBus struct {
	streamBus
	port string
	baud int
}

// OpenSerial opens the named serial port at the given baud rate.
func OpenSerial(port string, baud int) (*SerialBus, error) {
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", port, err)
	}
	return &SerialBus{
		streamBus: streamBus{
			rw:   p,
			desc: fmt.Sprintf("serial %s @ %d baud", port, baud),
		},
		port: port,
		baud: baud,
	}, nil
}

// =============================================================================
// PORT ENUMERATION
// =============================================================================

// PortInfo describes one detected serial port.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

func (p PortInfo) String() string {
	if !p.IsUSB {
		return p.Name
	}
	extra := fmt.Sprintf("USB VID:PID=%s:%s", p.VID, p.PID)
	if p.SerialNumber != "" {
		extra += " SER=" + p.SerialNumber
	}
	if p.Product != "" {
		extra += " " + p.Product
	}
	return p.Name + " - " + extra
}

// ListPorts enumerates the serial ports present on the system.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	return ports, nil
}

// DetectPort picks the first USB serial port whose product string contains
// one of the given names (case-insensitive). Returns "" when nothing
// matches.
func DetectPort(productNames []string) (string, error) {
	ports, err := ListPorts()
	if err != nil {
		return "", err
	}
	return matchPort(ports, productNames), nil
}

func matchPort(ports []PortInfo, productNames []string) string {
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		product := strings.ToLower(p.Product)
		for _, name := range productNames {
			if name != "" && strings.Contains(product, strings.ToLower(name)) {
				return p.Name
			}
		}
	}
	return ""
}
