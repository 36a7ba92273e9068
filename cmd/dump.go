// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var dumpTUI bool

var dumpCmd = &cobra.Command{
	Use:   "dump <start_address> <size>",
	Short: "Hex dump board memory",
	Long: `Read board memory and print it as a hex dump with an ASCII column.

With --tui the dump opens in an interactive viewer:
  arrows/pgup/pgdn  scroll
  n / p             next / previous block
  g                 go to address
  r                 read the block again
  q                 quit`,
	Args: cobra.ExactArgs(2),
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().BoolVar(&dumpTUI, "tui", false, "Browse memory in an interactive viewer")
}

func runDump(cmd *cobra.Command, args []string) error {
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	size, err := parseSize(args[1], addr)
	if err != nil {
		return err
	}

	if dumpTUI && !isTerminal(cmd.OutOrStdout()) {
		return errors.New("--tui needs an interactive terminal")
	}

	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	if dumpTUI {
		return runDumpViewer(cmd.Context(), s, addr, size)
	}

	data, err := wdcmon.ReadImage(cmd.Context(), s.engine, addr, size)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, wdcmon.HexDump(addr, data))
	fmt.Fprintf(out, "%d bytes, CRC 0x%04X\n", len(data), wdcmon.CalculateCRC(data))
	return nil
}

// runDumpViewer runs the interactive viewer. A read still running when the
// user quits is cancelled and waited for before the session is closed.
func runDumpViewer(ctx context.Context, s *session, addr wdcmon.Address, size int) error {
	loadCtx, cancel := context.WithCancel(ctx)
	m := newDumpModel(loadCtx, s.engine, s.info, addr, size)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	cancel()
	m.shutdown()

	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
