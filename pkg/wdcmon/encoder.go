// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wdcmon

import (
	"encoding/binary"
	"fmt"
)

// Command is one monitor command body: the opcode and its payload.
// Address and Count are only meaningful for memory commands, Data only
// for CmdWriteMemory.
type Command struct {
	Data    []byte
	Address Address
	Count   uint16
	Opcode  byte
}

// Encode serializes the command body (opcode + payload) in wire order.
// The preamble is not included; the engine sends it separately and waits
// for the ack before writing the body.
func (c Command) Encode() ([]byte, error) {
	switch c.Opcode {
	case CmdSync, CmdExecute:
		return []byte{c.Opcode}, nil

	case CmdReadMemory:
		if !c.Address.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrAddressRange, c.Address)
		}
		return appendMemoryHeader(make([]byte, 0, OpcodeSize+MemoryHeaderSize), c.Opcode, c.Address, c.Count), nil

	case CmdWriteMemory:
		if !c.Address.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrAddressRange, c.Address)
		}
		if len(c.Data) > MaxTransferSize {
			return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTransferTooLarge, len(c.Data), MaxTransferSize)
		}
		frame := make([]byte, 0, OpcodeSize+MemoryHeaderSize+len(c.Data))
		frame = appendMemoryHeader(frame, c.Opcode, c.Address, uint16(len(c.Data)))
		return append(frame, c.Data...), nil

	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, c.Opcode)
	}
}

// appendMemoryHeader appends [opcode][addr lo (LE u16)][addr hi][count (LE u16)]
func appendMemoryHeader(frame []byte, opcode byte, addr Address, count uint16) []byte {
	frame = append(frame, opcode)
	frame = binary.LittleEndian.AppendUint16(frame, addr.Low())
	frame = append(frame, addr.High())
	return binary.LittleEndian.AppendUint16(frame, count)
}

// EncodeSync returns the body of a sync command.
func EncodeSync() []byte {
	return []byte{CmdSync}
}

// EncodeExecute returns the body of an execute command.
func EncodeExecute() []byte {
	return []byte{CmdExecute}
}

// EncodeReadMemory returns the body of a read memory command for count
// bytes starting at addr.
func EncodeReadMemory(addr Address, count uint16) ([]byte, error) {
	return Command{Opcode: CmdReadMemory, Address: addr, Count: count}.Encode()
}

// EncodeWriteMemory returns the body of a write memory command carrying
// data. The payload is appended to the header so both go out in one write.
func EncodeWriteMemory(addr Address, data []byte) ([]byte, error) {
	return Command{Opcode: CmdWriteMemory, Address: addr, Data: data}.Encode()
}
