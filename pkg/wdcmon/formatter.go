// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wdcmon

import (
	"fmt"
	"strings"
)

// OpcodeName returns the human-readable name for an opcode
func OpcodeName(op byte) string {
	switch op {
	case CmdSync:
		return "SYNC"
	case CmdWriteMemory:
		return "WRITE_MEMORY"
	case CmdReadMemory:
		return "READ_MEMORY"
	case CmdRegisters:
		return "REGISTERS"
	case CmdExecute:
		return "EXECUTE"
	default:
		return "UNKNOWN"
	}
}

// FormatCommand returns a one line description of a command body
func FormatCommand(c Command) string {
	switch c.Opcode {
	case CmdReadMemory:
		return fmt.Sprintf("%s (0x%02X) addr=%s count=%d", OpcodeName(c.Opcode), c.Opcode, c.Address, c.Count)
	case CmdWriteMemory:
		return fmt.Sprintf("%s (0x%02X) addr=%s count=%d", OpcodeName(c.Opcode), c.Opcode, c.Address, len(c.Data))
	default:
		return fmt.Sprintf("%s (0x%02X)", OpcodeName(c.Opcode), c.Opcode)
	}
}

// HexDump formats data as 16 byte rows labelled with target addresses,
// followed by a printable ASCII column.
func HexDump(addr Address, data []byte) string {
	var sb strings.Builder

	for offset := 0; offset < len(data); offset += 16 {
		row := data[offset:min(offset+16, len(data))]

		fmt.Fprintf(&sb, "%06X  ", uint32(addr.Add(offset)))
		for i := 0; i < 16; i++ {
			if i == 8 {
				sb.WriteByte(' ')
			}
			if i < len(row) {
				fmt.Fprintf(&sb, "%02X ", row[i])
			} else {
				sb.WriteString("   ")
			}
		}

		sb.WriteString(" |")
		for _, b := range row {
			if b >= 0x20 && b < 0x7F {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|\n")
	}

	return sb.String()
}

// FormatRegisterBlock formats a register block the way the monitor's own
// register display does.
func FormatRegisterBlock(r RegisterBlock) string {
	return fmt.Sprintf("PC=%04X A=%04X X=%04X Y=%04X SP=%02X DP=%02X MODE=%02X",
		r.PC, r.A, r.X, r.Y, r.SP, r.DP, r.Mode)
}

// FormatTraceRecord formats a trace record with timestamp, direction and
// the raw bytes.
func FormatTraceRecord(r *TraceRecord) string {
	timestamp := r.Timestamp().Format("15:04:05.000")
	result := fmt.Sprintf("[%s] #%-5d %s %4d bytes", timestamp, r.Seq, r.Dir, len(r.Data))
	if r.Err != "" {
		result += fmt.Sprintf("  error: %s", r.Err)
	}
	result += "\n"

	// Default: hex dump
	for i := 0; i < len(r.Data); i += 16 {
		result += "    "
		for _, b := range r.Data[i:min(i+16, len(r.Data))] {
			result += fmt.Sprintf("%02X ", b)
		}
		result += "\n"
	}
	return result
}
