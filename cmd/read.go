// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read <start_address> <size> <file_name>",
	Short: "Read board memory into a file",
	Long: `Read size bytes of board memory starting at start_address and write them
to file_name as a raw binary image.

Examples:
  wdcmon read 0x8000 0x1000 rom.bin
  wdcmon read '$00:E000' 8192 monitor.bin`,
	Args: cobra.ExactArgs(3),
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	size, err := parseSize(args[1], addr)
	if err != nil {
		return err
	}

	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	image, err := wdcmon.ReadImage(cmd.Context(), s.engine, addr, size, progressOptions(cmd)...)
	if err != nil {
		return err
	}

	if err := os.WriteFile(args[2], image, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[2], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Read %d bytes from %s into %s (CRC 0x%04X)\n",
		len(image), addr, args[2], wdcmon.CalculateCRC(image))
	return nil
}
