// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wdcmon

import (
	"io"
	"time"
)

// Transport is the duplex byte stream the engine talks over. A Read that
// returns no data and no error is treated as a read timeout, which is how
// serial ports report an expired read deadline.
type Transport interface {
	io.Reader
	io.Writer
	io.Closer
}

// InputFlusher is implemented by transports that can discard bytes the
// board sent but nobody has read yet.
type InputFlusher interface {
	ResetInputBuffer() error
}

// FlowControl selects the serial flow control mode
type FlowControl int

const (
	FlowControlNone FlowControl = iota
	FlowControlRTSCTS
)

func (f FlowControl) String() string {
	switch f {
	case FlowControlNone:
		return "none"
	case FlowControlRTSCTS:
		return "rts/cts"
	default:
		return "unknown"
	}
}

// TransportConfig describes how to open the link to the board
type TransportConfig struct {
	// Port is the serial device path, or any identifier the Opener understands
	Port string
	// BaudRate is fixed at 57600 by the monitor firmware
	BaudRate int
	// FlowControl must be RTS/CTS for real boards
	FlowControl FlowControl
	// ReadTimeout bounds each blocking read. Zero blocks until data
	// arrives. Serial ports cap the timeout at 25.5s.
	ReadTimeout time.Duration
}

// DefaultTransportConfig returns the configuration the monitor firmware
// expects for the given port.
func DefaultTransportConfig(port string) TransportConfig {
	return TransportConfig{
		Port:        port,
		BaudRate:    BaudRate,
		FlowControl: FlowControlRTSCTS,
		ReadTimeout: 5 * time.Second,
	}
}

// Opener acquires a transport for a configuration
type Opener func(cfg TransportConfig) (Transport, error)
