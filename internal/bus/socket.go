// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bus

import (
	"fmt"
	"io"
	"net"
	"time"
)

// =============================================================================
// SOCKET BUS
// =============================================================================

// DialTimeout bounds the TCP connect to the device server.
const DialTimeout = 5 * time.Second

// SocketBus frames packets over a TCP connection to a device server
// (typically a simulator or a network-attached bridge).
type SocketBus struct {
	streamBus
	addr string
}

// DialSocket connects to the device server at host:port.
func DialSocket(host string, port int) (*SocketBus, error) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := net.DialTimeout("tcp", addr, DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &SocketBus{
		streamBus: streamBus{
			rw:   conn,
			desc: "tcp " + addr,
		},
		addr: addr,
	}, nil
}

// NewStreamBus wraps an already-open byte stream as a Bus. Used by tests
// and by in-process device simulators.
func NewStreamBus(rw io.ReadWriteCloser, desc string) Bus {
	return &streamBus{rw: rw, desc: desc}
}
