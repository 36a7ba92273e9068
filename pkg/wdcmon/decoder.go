// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wdcmon

import (
	"encoding/binary"
	"fmt"
)

// DecodeMemoryHeader parses the 5 byte address/count header that follows
// the opcode of read and write memory commands.
func DecodeMemoryHeader(header []byte) (Address, uint16, error) {
	if len(header) < MemoryHeaderSize {
		return 0, 0, fmt.Errorf("memory header too short: %d bytes (expected %d)", len(header), MemoryHeaderSize)
	}
	low := binary.LittleEndian.Uint16(header[0:2])
	addr := JoinAddress(low, header[2])
	count := binary.LittleEndian.Uint16(header[3:5])
	return addr, count, nil
}

// DecodeCommand parses a complete command body as produced by
// Command.Encode. Trailing bytes beyond what the opcode defines are
// rejected so that framing errors are not silently absorbed.
func DecodeCommand(body []byte) (Command, error) {
	if len(body) == 0 {
		return Command{}, fmt.Errorf("empty command body")
	}

	cmd := Command{Opcode: body[0]}
	payload := body[OpcodeSize:]

	switch cmd.Opcode {
	case CmdSync, CmdExecute:
		if len(payload) != 0 {
			return Command{}, fmt.Errorf("%s: unexpected %d byte payload", OpcodeName(cmd.Opcode), len(payload))
		}
		return cmd, nil

	case CmdReadMemory, CmdWriteMemory:
		addr, count, err := DecodeMemoryHeader(payload)
		if err != nil {
			return Command{}, fmt.Errorf("%s: %w", OpcodeName(cmd.Opcode), err)
		}
		cmd.Address = addr
		cmd.Count = count

		data := payload[MemoryHeaderSize:]
		if cmd.Opcode == CmdReadMemory {
			if len(data) != 0 {
				return Command{}, fmt.Errorf("READ_MEMORY: unexpected %d trailing bytes", len(data))
			}
			return cmd, nil
		}
		if len(data) != int(count) {
			return Command{}, fmt.Errorf("WRITE_MEMORY: length mismatch: header says %d, got %d", count, len(data))
		}
		cmd.Data = append([]byte(nil), data...)
		return cmd, nil

	default:
		return Command{}, fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, cmd.Opcode)
	}
}
