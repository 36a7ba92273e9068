// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package wdcmon implements the host side of the WDC board monitor protocol
// used by the W65C816SXB development board.
//
// The monitor firmware speaks a strict request/response protocol over a
// 57600 baud serial link with RTS/CTS flow control. Every exchange starts
// with a two byte preamble that the board acknowledges before the command
// body is sent. This package provides the frame codec, the register block
// layout and an Engine that drives sync, memory read, memory write and
// program execution over any byte stream Transport.
package wdcmon

// Frame markers
const (
	PreambleByte1 = 0x55
	PreambleByte2 = 0xAA
	AckByte       = 0xCC // board is ready for the command body
	SyncStatusOK  = 0x00 // only valid reply to a sync command
)

// Preamble is the fixed prefix written before every command body.
var Preamble = []byte{PreambleByte1, PreambleByte2}

// Command opcodes. Opcode 1 is not defined by the firmware.
const (
	CmdSync        = 0x00
	CmdWriteMemory = 0x02
	CmdReadMemory  = 0x03
	CmdRegisters   = 0x04 // firmware register dump, never issued by the host
	CmdExecute     = 0x05
)

// Frame sizes
const (
	OpcodeSize        = 1
	MemoryHeaderSize  = 5 // address low (2) + address high (1) + count (2)
	RegisterBlockSize = 16
	MaxTransferSize   = 0xFFFF
)

// Target memory map
const (
	MaxAddress       Address = 0xFFFFFF
	AddressSpaceSize         = 0x1000000
	RegistersAddress Address = 0x7E00 // register block consumed by Execute
)

// Register block defaults
const (
	DefaultStackPointer = 0xFF
	// CPUModeDefault is the CPU mode byte the monitor expects when starting
	// a program. It is tied to the target hardware and is not derived from
	// anything on the wire.
	CPUModeDefault = 0x01
)

// Serial link parameters
const (
	BaudRate = 57600
	BoardVID = 0x0403 // FTDI
	BoardPID = 0x6001 // FT232R
)

// Caller policy defaults
const (
	DefaultSyncAttempts = 3
)

// CRC-16-CCITT configuration
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)
