// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wdcmon

import (
	"errors"
	"fmt"
	"io"
)

// State is the connection state of an Engine
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Engine drives the monitor protocol over a Transport it exclusively owns.
//
// Every operation is one self-contained exchange: preamble, ack, command
// body, then a reply of known size. Nothing is retried inside the engine;
// callers that need to recover from a desynchronized board run Handshake.
//
// Engine is not safe for concurrent use. The protocol allows only one
// exchange in flight.
type Engine struct {
	transport Transport
	logger    Logger
	stats     *Statistics
	port      string
	state     State
}

// New creates an engine around an already open transport
func New(transport Transport, opts ...Option) *Engine {
	e := &Engine{
		transport: transport,
		stats:     NewStatistics(),
		state:     StateConnected,
	}
	if transport == nil {
		e.state = StateDisconnected
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Open acquires a transport for cfg and returns a connected engine.
// Failures are reported as *TransportError.
func Open(open Opener, cfg TransportConfig, opts ...Option) (*Engine, error) {
	if open == nil {
		return nil, &TransportError{Op: OpOpen, Port: cfg.Port, Err: errors.New("no transport opener")}
	}

	transport, err := open(cfg)
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			return nil, err
		}
		return nil, &TransportError{Op: OpOpen, Port: cfg.Port, Err: err}
	}
	if transport == nil {
		return nil, &TransportError{Op: OpOpen, Port: cfg.Port, Err: errors.New("opener returned no transport")}
	}

	e := New(transport, opts...)
	e.port = cfg.Port
	e.logInfo("connected",
		"port", cfg.Port,
		"baud", cfg.BaudRate,
		"flow_control", cfg.FlowControl.String(),
	)
	return e, nil
}

// State returns the current connection state
func (e *Engine) State() State {
	return e.state
}

// Connected reports whether the engine holds an open transport
func (e *Engine) Connected() bool {
	return e.state == StateConnected
}

// Transport returns the underlying transport (nil after Close)
func (e *Engine) Transport() Transport {
	return e.transport
}

// Stats returns the exchange statistics
func (e *Engine) Stats() *Statistics {
	return e.stats
}

// Synchronize performs one sync exchange. The board must acknowledge the
// preamble and then answer the sync command with a single zero byte.
// Any other reply is a sync failure (see IsSyncFailure).
func (e *Engine) Synchronize() error {
	if err := e.sendCommand(OpSync, EncodeSync()); err != nil {
		return err
	}

	status, err := e.readExact(OpSync, 1)
	if err != nil {
		return err
	}
	if status[0] != SyncStatusOK {
		return e.fail(&ProtocolError{
			Op:       OpSync,
			Err:      ErrUnexpectedStatus,
			Expected: SyncStatusOK,
			Actual:   status[0],
		})
	}

	e.logDebug("synchronized")
	return nil
}

// ReadMemory reads exactly count bytes starting at addr. The engine does
// not check that addr+count stays inside the target's address space.
func (e *Engine) ReadMemory(addr Address, count uint16) ([]byte, error) {
	body, err := EncodeReadMemory(addr, count)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", OpRead, err)
	}

	if err := e.sendCommand(OpRead, body); err != nil {
		return nil, err
	}

	data, err := e.readExact(OpRead, int(count))
	if err != nil {
		return nil, err
	}

	e.logDebug("read memory", "address", addr.String(), "count", count)
	return data, nil
}

// WriteMemory writes data starting at addr. Data longer than
// MaxTransferSize must be split by the caller (see WriteImage).
// A failed write leaves target memory partially written.
func (e *Engine) WriteMemory(addr Address, data []byte) error {
	body, err := EncodeWriteMemory(addr, data)
	if err != nil {
		return fmt.Errorf("%s: %w", OpWrite, err)
	}

	if err := e.sendCommand(OpWrite, body); err != nil {
		return err
	}

	e.logDebug("wrote memory", "address", addr.String(), "count", len(data))
	return nil
}

// RunProgram starts the program at start with default register state.
// The board gives no confirmation beyond the command ack, so a nil error
// only means the execute command was accepted for delivery.
func (e *Engine) RunProgram(start uint16) error {
	return e.Execute(NewRegisterBlock(start))
}

// Execute writes regs to the register block and issues the execute
// command.
func (e *Engine) Execute(regs RegisterBlock) error {
	if err := e.WriteMemory(RegistersAddress, regs.Bytes()); err != nil {
		return fmt.Errorf("%s: load registers: %w", OpRun, err)
	}

	if err := e.sendCommand(OpRun, EncodeExecute()); err != nil {
		return err
	}

	e.logInfo("program started", "pc", fmt.Sprintf("$%04X", regs.PC))
	return nil
}

// ReadRegisters reads the register block the monitor loads before
// Execute. After a program returns to the monitor it holds the register
// state the monitor saved.
func (e *Engine) ReadRegisters() (RegisterBlock, error) {
	var regs RegisterBlock
	data, err := e.ReadMemory(RegistersAddress, RegisterBlockSize)
	if err != nil {
		return regs, err
	}
	if err := regs.UnmarshalBinary(data); err != nil {
		return regs, fmt.Errorf("%s: %w", OpRead, err)
	}
	return regs, nil
}

// Close releases the transport. Closing a disconnected engine returns
// ErrNotConnected.
func (e *Engine) Close() error {
	if e.state != StateConnected {
		return ErrNotConnected
	}

	err := e.transport.Close()
	e.transport = nil
	e.state = StateDisconnected
	if err != nil {
		return &TransportError{Op: OpClose, Port: e.port, Err: err}
	}

	e.logInfo("disconnected", "port", e.port)
	return nil
}

// sendCommand runs the shared part of every exchange: preamble out, ack
// in, command body out.
func (e *Engine) sendCommand(op string, body []byte) error {
	if e.state != StateConnected {
		return fmt.Errorf("%s: %w", op, ErrNotConnected)
	}

	e.stats.recordCommand(body[0])

	if err := e.write(op, Preamble); err != nil {
		return err
	}

	ack, err := e.readExact(op, 1)
	if err != nil {
		return err
	}
	if ack[0] != AckByte {
		return e.fail(&ProtocolError{
			Op:       op,
			Err:      ErrUnexpectedAck,
			Expected: AckByte,
			Actual:   ack[0],
		})
	}

	return e.write(op, body)
}

// write sends p in a single transport write
func (e *Engine) write(op string, p []byte) error {
	n, err := e.transport.Write(p)
	e.stats.recordSent(n)
	if err != nil {
		return e.fail(&TransportError{Op: op, Port: e.port, Err: err})
	}
	if n != len(p) {
		return e.fail(&TransportError{Op: op, Port: e.port, Err: io.ErrShortWrite})
	}
	return nil
}

// readExact blocks until n bytes arrive. A read that returns nothing
// (timeout) or EOF before n bytes is a short read.
func (e *Engine) readExact(op string, n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0

	for got < n {
		m, err := e.transport.Read(buf[got:])
		got += m
		e.stats.recordReceived(m)
		if got >= n {
			break
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, e.fail(&TransportError{Op: op, Port: e.port, Err: err})
		}
		if m == 0 || err != nil {
			return nil, e.fail(&ProtocolError{
				Op:       op,
				Err:      ErrShortRead,
				Wanted:   n,
				Received: got,
			})
		}
	}

	return buf, nil
}

// fail records err in the statistics and logs it
func (e *Engine) fail(err error) error {
	e.stats.recordError(err)
	e.logError("exchange failed", "error", err)
	return err
}

func (e *Engine) logDebug(msg string, keysAndValues ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, keysAndValues...)
	}
}

func (e *Engine) logInfo(msg string, keysAndValues ...interface{}) {
	if e.logger != nil {
		e.logger.Info(msg, keysAndValues...)
	}
}

func (e *Engine) logError(msg string, keysAndValues ...interface{}) {
	if e.logger != nil {
		e.logger.Error(msg, keysAndValues...)
	}
}
