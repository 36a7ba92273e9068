// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

// resetFlags restores flag variables, which persist between executions of
// the shared root command.
func resetFlags() {
	portName = ""
	noFlowControl = false
	readTimeout = 5 * time.Second
	wsURL = ""
	wsUsername = ""
	wsNoSSLVerify = false
	syncAttempts = wdcmon.DefaultSyncAttempts
	traceFile = ""
	verbose = false

	listAll = false
	programVerify = false
	programChunkSize = wdcmon.MaxTransferSize
	syncCount = 1
	syncInterval = 0
	dumpTUI = false
}

// runCommand executes the CLI against a simulated board
func runCommand(t *testing.T, board *wdcmon.SimBoard, args ...string) (string, error) {
	t.Helper()

	orig := openTransport
	openTransport = func() (wdcmon.Transport, string, error) {
		return board, "Simulated board", nil
	}
	t.Cleanup(func() { openTransport = orig })

	return execute(t, args...)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReadCommand(t *testing.T) {
	board := wdcmon.NewSimBoard()
	board.LoadMemory(0x8000, []byte("W65C816SXB ROM"))
	file := filepath.Join(t.TempDir(), "rom.bin")

	out, err := runCommand(t, board, "read", "0x8000", "14", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Read 14 bytes from $00:8000 into "+file)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, []byte("W65C816SXB ROM"), data)
	assert.True(t, board.Closed())
}

func TestReadCommandRejectsRangeBeforeConnecting(t *testing.T) {
	board := wdcmon.NewSimBoard()

	_, err := runCommand(t, board, "read", "$FF:FFF0", "0x20", filepath.Join(t.TempDir(), "x.bin"))
	var ve *wdcmon.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, board.Commands())
	assert.False(t, board.Closed())
}

func TestProgramCommandWithVerify(t *testing.T) {
	board := wdcmon.NewSimBoard()
	image := make([]byte, 300)
	for i := range image {
		image[i] = byte(255 - i)
	}
	file := filepath.Join(t.TempDir(), "hello.bin")
	require.NoError(t, os.WriteFile(file, image, 0o644))

	out, err := runCommand(t, board, "program", "$01:2000", file, "--verify", "--chunk-size", "128")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 300 bytes to $01:2000")
	assert.Contains(t, out, "Verified OK")
	assert.Equal(t, image, board.Memory(0x012000, len(image)))

	writes, reads := 0, 0
	for _, c := range board.Commands() {
		switch c.Opcode {
		case wdcmon.CmdWriteMemory:
			writes++
		case wdcmon.CmdReadMemory:
			reads++
		}
	}
	assert.Equal(t, 3, writes)
	assert.Equal(t, 3, reads)
}

func TestProgramCommandErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "img.bin")
	require.NoError(t, os.WriteFile(file, []byte{1, 2, 3, 4}, 0o644))

	_, err := runCommand(t, wdcmon.NewSimBoard(), "program", "0x2000", filepath.Join(dir, "missing.bin"))
	assert.ErrorContains(t, err, "failed to read")

	_, err = runCommand(t, wdcmon.NewSimBoard(), "program", "0xFFFFFE", file)
	var ve *wdcmon.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = runCommand(t, wdcmon.NewSimBoard(), "program", "0x2000", file, "--chunk-size", "0")
	assert.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	board := wdcmon.NewSimBoard()

	out, err := runCommand(t, board, "run", "0x8000")
	require.NoError(t, err)
	assert.Contains(t, out, "Started program: PC=8000")

	regs, ok := board.LastRun()
	require.True(t, ok)
	assert.Equal(t, wdcmon.NewRegisterBlock(0x8000), regs)
	assert.Equal(t, wdcmon.NewRegisterBlock(0x8000).Bytes(), board.Memory(wdcmon.RegistersAddress, wdcmon.RegisterBlockSize))
}

func TestRegistersCommandAfterRun(t *testing.T) {
	board := wdcmon.NewSimBoard()
	_, err := runCommand(t, board, "run", "0x8000")
	require.NoError(t, err)

	// Each command opens its own connection; carry the board's memory over
	next := wdcmon.NewSimBoard()
	next.LoadMemory(wdcmon.RegistersAddress, board.Memory(wdcmon.RegistersAddress, wdcmon.RegisterBlockSize))

	out, err := runCommand(t, next, "registers")
	require.NoError(t, err)
	assert.Contains(t, out, "Registers at $00:7E00: ")
	assert.Contains(t, out, wdcmon.FormatRegisterBlock(wdcmon.NewRegisterBlock(0x8000)))

	cmds := next.Commands()
	last := cmds[len(cmds)-1]
	assert.Equal(t, byte(wdcmon.CmdReadMemory), last.Opcode)
	assert.Equal(t, wdcmon.RegistersAddress, last.Address)
}

func TestRegistersCommandRejectsArgs(t *testing.T) {
	board := wdcmon.NewSimBoard()

	_, err := runCommand(t, board, "registers", "0x7E00")
	require.Error(t, err)
	assert.Empty(t, board.Commands())
}

func TestRunCommandRejectsWideStart(t *testing.T) {
	board := wdcmon.NewSimBoard()

	_, err := runCommand(t, board, "run", "0x10000")
	require.Error(t, err)
	assert.Empty(t, board.Commands())
}

func TestSyncCommand(t *testing.T) {
	board := wdcmon.NewSimBoard()

	out, err := runCommand(t, board, "sync", "--count", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "round 1: ")
	assert.Contains(t, out, "round 2: ")
	assert.Contains(t, out, "OK")
	assert.Len(t, board.Commands(), 2)
}

func TestSyncCommandFailure(t *testing.T) {
	board := wdcmon.NewSimBoard()
	board.SetSyncStatus(0x01)

	out, err := runCommand(t, board, "sync", "--count", "2", "--sync-attempts", "2")
	require.Error(t, err)
	assert.Equal(t, "2 of 2 sync rounds failed", err.Error())
	assert.Contains(t, out, "FAILED")
	assert.Len(t, board.Commands(), 4)
}

func TestSyncCommandRejectsZeroCount(t *testing.T) {
	_, err := runCommand(t, wdcmon.NewSimBoard(), "sync", "--count", "0")
	assert.ErrorContains(t, err, "--count must be at least 1")
}

func TestDumpCommand(t *testing.T) {
	board := wdcmon.NewSimBoard()
	board.LoadMemory(0x1000, []byte("Hello, 65816!"))

	out, err := runCommand(t, board, "dump", "0x1000", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "001000  48 65 6C 6C")
	assert.Contains(t, out, "|Hello, 65816!...|")
	assert.Contains(t, out, "20 bytes, CRC 0x")
}

func TestDumpCommandTUINeedsTerminal(t *testing.T) {
	board := wdcmon.NewSimBoard()

	_, err := runCommand(t, board, "dump", "0x1000", "16", "--tui")
	assert.ErrorContains(t, err, "interactive terminal")
	assert.Empty(t, board.Commands())
}

func TestTraceRoundTrip(t *testing.T) {
	board := wdcmon.NewSimBoard()
	board.LoadMemory(0x0200, []byte{0xDE, 0xAD})
	dir := t.TempDir()
	trace := filepath.Join(dir, "session.cbor")

	_, err := runCommand(t, board, "--trace", trace, "read", "0x200", "2", filepath.Join(dir, "out.bin"))
	require.NoError(t, err)

	out, err := execute(t, "trace", trace)
	require.NoError(t, err)
	assert.Contains(t, out, "preamble")
	assert.Contains(t, out, "SYNC")
	assert.Contains(t, out, "READ_MEMORY")
	assert.Contains(t, out, "DE AD")
	assert.Contains(t, out, " records\n")
}

func TestTraceCommandMissingFile(t *testing.T) {
	_, err := execute(t, "trace", filepath.Join(t.TempDir(), "none.cbor"))
	assert.ErrorContains(t, err, "failed to open trace")
}

func TestListCommand(t *testing.T) {
	stubPorts(t, testPorts, nil)

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Equal(t, "/dev/cu.usbserial-A1\n/dev/ttyUSB0\n/dev/ttyUSB1\n", out)

	out, err = execute(t, "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "/dev/ttyS0\n")

	stubPorts(t, testPorts[1:3], nil)
	out, err = execute(t, "list")
	require.NoError(t, err)
	assert.Equal(t, "No boards found\n", out)
}

func TestAutoSelectWithoutBoard(t *testing.T) {
	stubPorts(t, []*enumerator.PortDetails{}, nil)

	_, err := execute(t, "read", "0", "16", filepath.Join(t.TempDir(), "x.bin"))
	var ce *wdcmon.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "Specify a serial port!")
}
