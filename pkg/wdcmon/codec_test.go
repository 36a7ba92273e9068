// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wdcmon

import (
	"bytes"
	"errors"
	"testing"
)

func TestAddressHalves(t *testing.T) {
	addr := JoinAddress(0x3456, 0x12)
	if addr != 0x123456 {
		t.Fatalf("JoinAddress = 0x%X, want 0x123456", uint32(addr))
	}
	if addr.Low() != 0x3456 {
		t.Errorf("Low() = 0x%04X, want 0x3456", addr.Low())
	}
	if addr.High() != 0x12 {
		t.Errorf("High() = 0x%02X, want 0x12", addr.High())
	}
	if got := addr.String(); got != "$12:3456" {
		t.Errorf("String() = %q, want %q", got, "$12:3456")
	}
	if !MaxAddress.Valid() || Address(0x1000000).Valid() {
		t.Error("Valid() boundary wrong")
	}
}

func TestEncodeCommands(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want []byte
	}{
		{
			name: "sync",
			cmd:  Command{Opcode: CmdSync},
			want: []byte{0x00},
		},
		{
			name: "execute",
			cmd:  Command{Opcode: CmdExecute},
			want: []byte{0x05},
		},
		{
			name: "read bank 12",
			cmd:  Command{Opcode: CmdReadMemory, Address: 0x123456, Count: 0x0010},
			want: []byte{0x03, 0x56, 0x34, 0x12, 0x10, 0x00},
		},
		{
			name: "write three bytes",
			cmd:  Command{Opcode: CmdWriteMemory, Address: 0x001000, Data: []byte{1, 2, 3}},
			want: []byte{0x02, 0x00, 0x10, 0x00, 0x03, 0x00, 0x01, 0x02, 0x03},
		},
		{
			name: "write empty",
			cmd:  Command{Opcode: CmdWriteMemory, Address: 0xFFFFFF},
			want: []byte{0x02, 0xFF, 0xFF, 0xFF, 0x00, 0x00},
		},
		{
			name: "write ignores count field",
			cmd:  Command{Opcode: CmdWriteMemory, Address: 0x7E00, Count: 99, Data: []byte{0xEA}},
			want: []byte{0x02, 0x00, 0x7E, 0x00, 0x01, 0x00, 0xEA},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Encode()
			if err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode() = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestEncodeHelpers(t *testing.T) {
	if got := EncodeSync(); !bytes.Equal(got, []byte{CmdSync}) {
		t.Errorf("EncodeSync() = % X", got)
	}
	if got := EncodeExecute(); !bytes.Equal(got, []byte{CmdExecute}) {
		t.Errorf("EncodeExecute() = % X", got)
	}

	body, err := EncodeReadMemory(0x00FF00, 0xFFFF)
	if err != nil {
		t.Fatalf("EncodeReadMemory() error: %v", err)
	}
	if want := []byte{0x03, 0x00, 0xFF, 0x00, 0xFF, 0xFF}; !bytes.Equal(body, want) {
		t.Errorf("EncodeReadMemory() = % X, want % X", body, want)
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want error
	}{
		{"read past 24 bits", Command{Opcode: CmdReadMemory, Address: 0x1000000, Count: 1}, ErrAddressRange},
		{"write past 24 bits", Command{Opcode: CmdWriteMemory, Address: 0x1000000, Data: []byte{1}}, ErrAddressRange},
		{"write too large", Command{Opcode: CmdWriteMemory, Data: make([]byte, MaxTransferSize+1)}, ErrTransferTooLarge},
		{"undefined opcode 1", Command{Opcode: 0x01}, ErrUnknownOpcode},
		{"registers opcode", Command{Opcode: CmdRegisters}, ErrUnknownOpcode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cmd.Encode()
			if !errors.Is(err, tt.want) {
				t.Errorf("Encode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeCommand(t *testing.T) {
	cmd, err := DecodeCommand([]byte{0x02, 0x00, 0x10, 0x00, 0x03, 0x00, 0x01, 0x02, 0x03})
	if err != nil {
		t.Fatalf("DecodeCommand() error: %v", err)
	}
	if cmd.Opcode != CmdWriteMemory || cmd.Address != 0x1000 || cmd.Count != 3 {
		t.Errorf("DecodeCommand() = %+v", cmd)
	}
	if !bytes.Equal(cmd.Data, []byte{1, 2, 3}) {
		t.Errorf("Data = % X", cmd.Data)
	}

	cmd, err = DecodeCommand([]byte{0x03, 0x56, 0x34, 0x12, 0x10, 0x00})
	if err != nil {
		t.Fatalf("DecodeCommand() error: %v", err)
	}
	if cmd.Address != 0x123456 || cmd.Count != 16 {
		t.Errorf("DecodeCommand() = %+v", cmd)
	}
}

func TestDecodeCommandRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{"empty", nil},
		{"sync with payload", []byte{0x00, 0x01}},
		{"short header", []byte{0x03, 0x00, 0x10}},
		{"read with trailing data", []byte{0x03, 0x00, 0x10, 0x00, 0x01, 0x00, 0xFF}},
		{"write length mismatch", []byte{0x02, 0x00, 0x10, 0x00, 0x03, 0x00, 0x01}},
		{"unknown opcode", []byte{0x07}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeCommand(tt.body); err == nil {
				t.Errorf("DecodeCommand(% X) succeeded, want error", tt.body)
			}
		})
	}
}

func TestRegisterBlockLayout(t *testing.T) {
	regs := NewRegisterBlock(0x8000)
	want := []byte{
		0x00, 0x00, // A
		0x00, 0x00, // X
		0x00, 0x00, // Y
		0x00, 0x80, // PC
		0x00,       // DP
		0x00,       // reserved
		0xFF,       // SP
		0x00, 0x00, // reserved
		0x01,       // mode
		0x00, 0x00, // reserved
	}

	got := regs.Bytes()
	if !bytes.Equal(got, want) {
		t.Fatalf("Bytes() = % X, want % X", got, want)
	}

	marshaled, err := regs.MarshalBinary()
	if err != nil || !bytes.Equal(marshaled, want) {
		t.Errorf("MarshalBinary() = % X, %v", marshaled, err)
	}
}

func TestRegisterBlockRoundTrip(t *testing.T) {
	regs := RegisterBlock{
		A: 0x1234, X: 0x5678, Y: 0x9ABC, PC: 0xDEF0,
		DP: 0x11, SP: 0x22, Mode: 0x33,
		Reserved: [5]uint8{1, 2, 3, 4, 5},
	}

	var decoded RegisterBlock
	if err := decoded.UnmarshalBinary(regs.Bytes()); err != nil {
		t.Fatalf("UnmarshalBinary() error: %v", err)
	}
	if decoded != regs {
		t.Errorf("round trip = %+v, want %+v", decoded, regs)
	}

	if err := decoded.UnmarshalBinary(make([]byte, 17)); err == nil {
		t.Error("UnmarshalBinary() accepted 17 bytes")
	}
}
