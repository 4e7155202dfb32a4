// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bus

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		pkt  Packet
	}{
		{"no payload", Packet{ID: CmdPing}},
		{"small payload", Packet{ID: CmdDebug, Data: []byte{0x01}}},
		{"larger payload", Packet{ID: CmdServo, Data: []byte("move 90")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeFrame(&buf, tt.pkt))

			got, err := readFrame(&buf)
			require.NoError(t, err)
			assert.Equal(t, tt.pkt.ID, got.ID)
			assert.Equal(t, tt.pkt.Data, got.Data)
		})
	}
}

func TestWriteFrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	err := writeFrame(&buf, Packet{ID: CmdPing, Data: make([]byte, 300)})
	assert.Error(t, err)
}

func TestReadFrameBadLength(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x00, 0x01})
	_, err := readFrame(buf)
	assert.Error(t, err)
}

// echoDevice answers every frame with the same ID and payload.
func echoDevice(t *testing.T, conn net.Conn) {
	t.Helper()
	go func() {
		for {
			pkt, err := readFrame(conn)
			if err != nil {
				return
			}
			if err := writeFrame(conn, pkt); err != nil {
				return
			}
		}
	}()
}

func TestStreamBusExchange(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	echoDevice(t, server)

	b := NewStreamBus(client, "test pipe")
	defer b.Close()

	resp, err := b.SendCommandGetResponse(context.Background(), Packet{ID: CmdPing, Data: []byte("hi")})
	require.NoError(t, err)
	assert.Equal(t, CmdPing, resp.ID)
	assert.Equal(t, []byte("hi"), resp.Data)
	assert.Equal(t, "test pipe", b.Description())
}

func TestStreamBusContextCancel(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	// server never answers; the read must unblock via the context

	b := NewStreamBus(client, "silent pipe")
	defer b.Close()

	go func() {
		// drain the request so the write does not block on the pipe
		_, _ = readFrame(server)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := b.SendCommandGetResponse(ctx, Packet{ID: CmdPing})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStreamBusDebugDump(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	echoDevice(t, server)

	b := NewStreamBus(client, "test pipe")
	defer b.Close()

	var dumps []string
	b.(Debuggable).SetDebug(func(format string, args ...interface{}) {
		dumps = append(dumps, fmt.Sprintf(format, args...))
	})

	_, err := b.SendCommandGetResponse(context.Background(), Packet{ID: CmdDebug, Data: []byte{0xab}})
	require.NoError(t, err)
	require.Len(t, dumps, 2)
	assert.Contains(t, dumps[0], "-> 02 ab")
	assert.Contains(t, dumps[1], "<- 02 ab")
}

func TestMatchPort(t *testing.T) {
	ports := []PortInfo{
		{Name: "/dev/ttyS0", IsUSB: false},
		{Name: "/dev/ttyUSB0", IsUSB: true, Product: "FT232R USB UART"},
		{Name: "/dev/ttyACM0", IsUSB: true, Product: "Arduino Uno"},
	}

	assert.Equal(t, "/dev/ttyACM0", matchPort(ports, []string{"arduino"}))
	assert.Equal(t, "/dev/ttyUSB0", matchPort(ports, []string{"uart"}))
	assert.Equal(t, "", matchPort(ports, []string{"teensy"}))
	assert.Equal(t, "", matchPort(ports, nil))
}

func TestPortInfoString(t *testing.T) {
	p := PortInfo{Name: "/dev/ttyS0"}
	assert.Equal(t, "/dev/ttyS0", p.String())

	p = PortInfo{Name: "/dev/ttyACM0", IsUSB: true, VID: "2341", PID: "0043", SerialNumber: "85431", Product: "Arduino Uno"}
	s := p.String()
	assert.Contains(t, s, "/dev/ttyACM0")
	assert.Contains(t, s, "VID:PID=2341:0043")
	assert.Contains(t, s, "SER=85431")
	assert.Contains(t, s, "Arduino Uno")
}
