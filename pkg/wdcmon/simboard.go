// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wdcmon

import (
	"io"
	"sync"
)

// simParseState is where the simulated monitor is in the incoming frame
type simParseState int

const (
	simHuntPreamble simParseState = iota
	simHuntPreamble2
	simOpcode
	simHeader
	simPayload
)

const simPageSize = 256

// SimBoard is an in-memory stand-in for a board running the monitor
// firmware. It parses the host's byte stream exactly as the firmware does
// and queues replies for the host to read, so it can be used as a
// Transport in tests of both the library and the CLI.
//
// A Read with nothing queued returns (0, nil), which is what a serial port
// does when its read timeout expires.
type SimBoard struct {
	mu sync.Mutex

	memory map[uint32]*[simPageSize]byte
	out    []byte

	state     simParseState
	opcode    byte
	header    []byte
	writeAddr Address
	pending   int
	cmdStart  Address
	cmdData   []byte

	commands []Command
	lastRun  *RegisterBlock

	ackByte    byte
	syncStatus byte
	truncate   int
	readErr    error
	writeErr   error
	closed     bool
}

// NewSimBoard returns a simulated board with zeroed memory
func NewSimBoard() *SimBoard {
	return &SimBoard{
		memory:     make(map[uint32]*[simPageSize]byte),
		ackByte:    AckByte,
		syncStatus: SyncStatusOK,
		truncate:   -1,
	}
}

// Read implements io.Reader
func (b *SimBoard) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, io.ErrClosedPipe
	}
	if b.readErr != nil {
		return 0, b.readErr
	}
	n := copy(p, b.out)
	b.out = b.out[n:]
	return n, nil
}

// Write implements io.Writer. Bytes are fed to the monitor parser one at
// a time.
func (b *SimBoard) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, io.ErrClosedPipe
	}
	if b.writeErr != nil {
		return 0, b.writeErr
	}
	for _, c := range p {
		b.feed(c)
	}
	return len(p), nil
}

// Close implements io.Closer
func (b *SimBoard) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// ResetInputBuffer discards every queued reply byte
func (b *SimBoard) ResetInputBuffer() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out = b.out[:0]
	return nil
}

// Preload queues bytes ahead of any reply, as if left over from an earlier
// exchange.
func (b *SimBoard) Preload(data ...byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out = append(b.out, data...)
}

// Pending returns the number of reply bytes not yet read by the host
func (b *SimBoard) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.out)
}

// SetAckByte changes the byte sent in answer to the preamble
func (b *SimBoard) SetAckByte(ack byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ackByte = ack
}

// SetSyncStatus changes the byte sent in answer to a sync command
func (b *SimBoard) SetSyncStatus(status byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.syncStatus = status
}

// TruncateNextReply cuts the next sync status or memory read reply to n
// bytes.
func (b *SimBoard) TruncateNextReply(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.truncate = n
}

// FailReads makes every Read return err. Pass nil to clear.
func (b *SimBoard) FailReads(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readErr = err
}

// FailWrites makes every Write return err. Pass nil to clear.
func (b *SimBoard) FailWrites(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeErr = err
}

// Closed reports whether Close was called
func (b *SimBoard) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// LoadMemory stores data at addr without going through the protocol
func (b *SimBoard) LoadMemory(addr Address, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, c := range data {
		b.poke(addr.Add(i), c)
	}
}

// Memory returns n bytes of board memory starting at addr
func (b *SimBoard) Memory(addr Address, n int) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.peekRange(addr, n)
}

// Commands returns every complete command the board has received
func (b *SimBoard) Commands() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Command(nil), b.commands...)
}

// LastRun returns the register block used by the most recent execute
// command.
func (b *SimBoard) LastRun() (RegisterBlock, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastRun == nil {
		return RegisterBlock{}, false
	}
	return *b.lastRun, true
}

// feed advances the parser by one byte
func (b *SimBoard) feed(c byte) {
	switch b.state {
	case simHuntPreamble:
		if c == PreambleByte1 {
			b.state = simHuntPreamble2
		}

	case simHuntPreamble2:
		switch c {
		case PreambleByte2:
			b.out = append(b.out, b.ackByte)
			b.state = simOpcode
		case PreambleByte1:
			// stay: 55 55 AA is still a preamble
		default:
			b.state = simHuntPreamble
		}

	case simOpcode:
		b.opcode = c
		switch c {
		case CmdSync:
			b.reply([]byte{b.syncStatus})
			b.finish(Command{Opcode: CmdSync})
		case CmdExecute:
			var regs RegisterBlock
			_ = regs.UnmarshalBinary(b.peekRange(RegistersAddress, RegisterBlockSize))
			b.lastRun = &regs
			b.finish(Command{Opcode: CmdExecute})
		case CmdReadMemory, CmdWriteMemory:
			b.header = b.header[:0]
			b.state = simHeader
		default:
			// The firmware ignores unknown opcodes and goes back to
			// waiting for a preamble, which may start with this byte.
			b.state = simHuntPreamble
			b.feed(c)
		}

	case simHeader:
		b.header = append(b.header, c)
		if len(b.header) < MemoryHeaderSize {
			return
		}
		addr, count, _ := DecodeMemoryHeader(b.header)
		if b.opcode == CmdReadMemory {
			b.reply(b.peekRange(addr, int(count)))
			b.finish(Command{Opcode: CmdReadMemory, Address: addr, Count: count})
			return
		}
		b.cmdStart = addr
		b.writeAddr = addr
		b.pending = int(count)
		b.cmdData = b.cmdData[:0]
		if count == 0 {
			b.finish(Command{Opcode: CmdWriteMemory, Address: addr})
			return
		}
		b.state = simPayload

	case simPayload:
		b.poke(b.writeAddr, c)
		b.cmdData = append(b.cmdData, c)
		b.writeAddr = b.writeAddr.Add(1)
		b.pending--
		if b.pending == 0 {
			b.finish(Command{
				Opcode:  CmdWriteMemory,
				Address: b.cmdStart,
				Count:   uint16(len(b.cmdData)),
				Data:    append([]byte(nil), b.cmdData...),
			})
		}
	}
}

// reply queues a status or data reply, applying any pending truncation
func (b *SimBoard) reply(data []byte) {
	if b.truncate >= 0 {
		data = data[:min(b.truncate, len(data))]
		b.truncate = -1
	}
	b.out = append(b.out, data...)
}

func (b *SimBoard) finish(cmd Command) {
	b.commands = append(b.commands, cmd)
	b.state = simHuntPreamble
}

func (b *SimBoard) poke(addr Address, c byte) {
	a := uint32(addr & MaxAddress)
	page, ok := b.memory[a/simPageSize]
	if !ok {
		page = new([simPageSize]byte)
		b.memory[a/simPageSize] = page
	}
	page[a%simPageSize] = c
}

func (b *SimBoard) peek(addr Address) byte {
	a := uint32(addr & MaxAddress)
	if page, ok := b.memory[a/simPageSize]; ok {
		return page[a%simPageSize]
	}
	return 0
}

func (b *SimBoard) peekRange(addr Address, n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = b.peek(addr.Add(i))
	}
	return data
}
