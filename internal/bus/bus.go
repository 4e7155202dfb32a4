// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bus provides the transport layer for talking to the
// microcontroller: a minimal length-prefixed packet frame carried over a
// serial port or a TCP socket. The shell treats the bus as a thin
// collaborator; framing beyond length+ID is the device's business.
package bus

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"
)

// =============================================================================
// PACKET
// =============================================================================

// Command IDs understood by the device firmware.
const (
	CmdPing      uint8 = 0x01
	CmdDebug     uint8 = 0x02
	CmdHeapInfo  uint8 = 0x03
	CmdStackInfo uint8 = 0x04
	CmdServo     uint8 = 0x10
	CmdLog       uint8 = 0x20
)

// Packet is one framed message: a command ID plus an opaque payload.
type Packet struct {
	ID   uint8
	Data []byte
}

// Bus is the transport capability the shell and plugins depend on.
type Bus interface {
	// SendCommandGetResponse writes a packet and blocks for the device's
	// reply. The context cancels the wait, not the device.
	SendCommandGetResponse(ctx context.Context, pkt Packet) (Packet, error)

	// Description identifies the transport for status output
	Description() string

	Close() error
}

// DebugFunc receives hex dumps of packets when debug mode is on.
type DebugFunc func(format string, args ...interface{})

// =============================================================================
// FRAMING
// =============================================================================

// Frame layout: one length byte covering ID+payload, then the ID byte, then
// the payload. Payloads are capped at 254 bytes.
const maxPayload = 254

func writeFrame(w io.Writer, pkt Packet) error {
	if len(pkt.Data) > maxPayload {
		return fmt.Errorf("payload too large: %d bytes", len(pkt.Data))
	}
	frame := make([]byte, 0, len(pkt.Data)+2)
	frame = append(frame, byte(len(pkt.Data)+1), pkt.ID)
	frame = append(frame, pkt.Data...)
	_, err := w.Write(frame)
	return err
}

func readFrame(r io.Reader) (Packet, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Packet{}, err
	}
	length := int(hdr[0])
	if length < 1 {
		return Packet{}, fmt.Errorf("invalid frame length %d", length)
	}
	pkt := Packet{ID: hdr[1]}
	if length > 1 {
		pkt.Data = make([]byte, length-1)
		if _, err := io.ReadFull(r, pkt.Data); err != nil {
			return Packet{}, err
		}
	}
	return pkt, nil
}

// =============================================================================
// STREAM BUS
// =============================================================================

// streamBus runs the packet exchange over any byte stream. Serial and socket
// buses both embed it. Exchanges are serialized: the shell dispatches one
// command at a time, but a background producer may also ping the device.
type streamBus struct {
	mu     sync.Mutex
	rw     io.ReadWriteCloser
	desc   string
	debugf DebugFunc
}

func (b *streamBus) SendCommandGetResponse(ctx context.Context, pkt Packet) (Packet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.debugf != nil {
		b.debugf("-> %02x %s", pkt.ID, hex.EncodeToString(pkt.Data))
	}

	if err := writeFrame(b.rw, pkt); err != nil {
		return Packet{}, fmt.Errorf("write failed: %w", err)
	}

	type result struct {
		pkt Packet
		err error
	}
	ch := make(chan result, 1)
	go func() {
		resp, err := readFrame(b.rw)
		ch <- result{resp, err}
	}()

	select {
	case <-ctx.Done():
		return Packet{}, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return Packet{}, fmt.Errorf("read failed: %w", res.err)
		}
		if b.debugf != nil {
			b.debugf("<- %02x %s", res.pkt.ID, hex.EncodeToString(res.pkt.Data))
		}
		return res.pkt, nil
	}
}

func (b *streamBus) Description() string { return b.desc }

func (b *streamBus) Close() error { return b.rw.Close() }

// SetDebug installs (or clears) a packet hex-dump sink.
func (b *streamBus) SetDebug(fn DebugFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.debugf = fn
}

// Debuggable is implemented by buses that can dump packet traffic.
type Debuggable interface {
	SetDebug(fn DebugFunc)
}

// =============================================================================
// HELPERS
// =============================================================================

// WithTimeout wraps the default per-exchange deadline used by command
// handlers that do not carry their own.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 5 * time.Second
	}
	return context.WithTimeout(parent, d)
}
