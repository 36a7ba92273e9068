// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wdcmon

import (
	"errors"
	"fmt"
	"strings"
)

// Engine state errors
var (
	ErrNotConnected = errors.New("monitor not connected")
)

// Protocol errors. These are wrapped in a *ProtocolError by the engine.
var (
	ErrUnexpectedAck    = errors.New("unexpected acknowledgement byte")
	ErrUnexpectedStatus = errors.New("unexpected status byte")
	ErrShortRead        = errors.New("short read")
	// ErrSyncFailed matches any ProtocolError raised by the sync exchange
	ErrSyncFailed = errors.New("sync failed")
)

// Encoding errors
var (
	ErrAddressRange     = errors.New("address outside 24-bit range")
	ErrTransferTooLarge = errors.New("transfer larger than 65535 bytes")
	ErrUnknownOpcode    = errors.New("unknown opcode")
)

// Operation names used in errors and logs
const (
	OpOpen   = "open"
	OpSync   = "sync"
	OpRead   = "read memory"
	OpWrite  = "write memory"
	OpRun    = "run program"
	OpClose  = "close"
	OpVerify = "verify"
)

// TransportError is an I/O failure of the underlying byte stream: the
// port could not be opened, or a read or write failed.
type TransportError struct {
	Err  error
	Op   string
	Port string
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s: transport error on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports that the board answered with something other than
// what the frame requires: a wrong ack or status byte, or fewer bytes than
// expected.
type ProtocolError struct {
	Err error
	Op  string

	// Expected and Actual are set for ack and status mismatches
	Expected byte
	Actual   byte

	// Wanted and Received are set for short reads
	Wanted   int
	Received int
}

func (e *ProtocolError) Error() string {
	switch {
	case errors.Is(e.Err, ErrShortRead):
		return fmt.Sprintf("%s: %v: got %d of %d bytes", e.Op, e.Err, e.Received, e.Wanted)
	case errors.Is(e.Err, ErrUnexpectedAck), errors.Is(e.Err, ErrUnexpectedStatus):
		return fmt.Sprintf("%s: %v: expected 0x%02X, got 0x%02X", e.Op, e.Err, e.Expected, e.Actual)
	default:
		return fmt.Sprintf("%s: protocol error: %v", e.Op, e.Err)
	}
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Is makes every protocol failure of the sync exchange match ErrSyncFailed
func (e *ProtocolError) Is(target error) bool {
	return target == ErrSyncFailed && e.Op == OpSync
}

// IsProtocolError returns true if err is or wraps a *ProtocolError
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsTransportError returns true if err is or wraps a *TransportError
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsSyncFailure returns true if err came from a failed sync exchange
func IsSyncFailure(err error) bool {
	return errors.Is(err, ErrSyncFailed)
}

// ConfigurationError indicates that no serial port was given and automatic
// selection did not find exactly one board.
type ConfigurationError struct {
	Candidates []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Candidates) == 0 {
		return "Specify a serial port! (no board found)"
	}
	return fmt.Sprintf("Specify a serial port! (%d boards found: %s)",
		len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// VerificationError indicates that memory read back after programming
// differs from the image that was written.
type VerificationError struct {
	Address  Address
	Offset   int
	Expected byte
	Actual   byte
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification mismatch at %s (offset %d): expected 0x%02X, got 0x%02X",
		e.Address, e.Offset, e.Expected, e.Actual)
}
