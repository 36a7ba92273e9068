// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wdcmon

import (
	"encoding/binary"
	"fmt"
)

// RegisterBlock is the CPU register state the monitor loads from
// RegistersAddress before jumping to a program.
//
// Wire layout (16 bytes, little-endian):
//
//	0  A      u16
//	2  X      u16
//	4  Y      u16
//	6  PC     u16
//	8  DP     u8
//	9  -      u8
//	10 SP     u8
//	11 -      u8
//	12 -      u8
//	13 Mode   u8
//	14 -      u8
//	15 -      u8
type RegisterBlock struct {
	A    uint16
	X    uint16
	Y    uint16
	PC   uint16
	DP   uint8
	SP   uint8
	Mode uint8

	// Reserved holds the bytes at offsets 9, 11, 12, 14 and 15. The monitor
	// expects them to be zero.
	Reserved [5]uint8
}

// reservedOffsets maps Reserved[i] to its byte offset in the block
var reservedOffsets = [5]int{9, 11, 12, 14, 15}

// NewRegisterBlock returns the register state used to start a program at
// start: zeroed A/X/Y and direct page, stack pointer 0xFF and the default
// CPU mode.
func NewRegisterBlock(start uint16) RegisterBlock {
	return RegisterBlock{
		PC:   start,
		SP:   DefaultStackPointer,
		Mode: CPUModeDefault,
	}
}

// MarshalBinary encodes the block into its 16 byte wire form
func (r RegisterBlock) MarshalBinary() ([]byte, error) {
	return r.Bytes(), nil
}

// Bytes is MarshalBinary without the error return
func (r RegisterBlock) Bytes() []byte {
	b := make([]byte, RegisterBlockSize)
	binary.LittleEndian.PutUint16(b[0:2], r.A)
	binary.LittleEndian.PutUint16(b[2:4], r.X)
	binary.LittleEndian.PutUint16(b[4:6], r.Y)
	binary.LittleEndian.PutUint16(b[6:8], r.PC)
	b[8] = r.DP
	b[10] = r.SP
	b[13] = r.Mode
	for i, off := range reservedOffsets {
		b[off] = r.Reserved[i]
	}
	return b
}

// UnmarshalBinary decodes a 16 byte register block
func (r *RegisterBlock) UnmarshalBinary(b []byte) error {
	if len(b) != RegisterBlockSize {
		return fmt.Errorf("register block must be %d bytes, got %d", RegisterBlockSize, len(b))
	}
	r.A = binary.LittleEndian.Uint16(b[0:2])
	r.X = binary.LittleEndian.Uint16(b[2:4])
	r.Y = binary.LittleEndian.Uint16(b[4:6])
	r.PC = binary.LittleEndian.Uint16(b[6:8])
	r.DP = b[8]
	r.SP = b[10]
	r.Mode = b[13]
	for i, off := range reservedOffsets {
		r.Reserved[i] = b[off]
	}
	return nil
}
