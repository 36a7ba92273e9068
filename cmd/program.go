// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
	"github.com/spf13/cobra"
)

var (
	programVerify    bool
	programChunkSize int
)

var programCmd = &cobra.Command{
	Use:   "program <start_address> <file_name>",
	Short: "Write a binary image into board memory",
	Long: `Write the raw contents of file_name into board memory starting at
start_address. With --verify the memory is read back afterwards and any
difference is reported as an error.

Images larger than 65535 bytes are sent in several write commands.

Examples:
  wdcmon program 0x2000 hello.bin --verify
  wdcmon program '$01:0000' bank1.bin --chunk-size 4096`,
	Args: cobra.ExactArgs(2),
	RunE: runProgram,
}

func init() {
	rootCmd.AddCommand(programCmd)
	programCmd.Flags().BoolVar(&programVerify, "verify", false, "Read memory back and compare after writing")
	programCmd.Flags().IntVar(&programChunkSize, "chunk-size", wdcmon.MaxTransferSize, "Bytes per write command")
}

func runProgram(cmd *cobra.Command, args []string) error {
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	if err := wdcmon.ValidateChunkSize(programChunkSize); err != nil {
		return err
	}

	image, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[1], err)
	}
	if err := wdcmon.ValidateRange(uint64(addr), uint64(len(image))); err != nil {
		return err
	}

	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := append(progressOptions(cmd), wdcmon.WithChunkSize(programChunkSize))
	start := time.Now()

	if err := wdcmon.WriteImage(cmd.Context(), s.engine, addr, image, opts...); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %d bytes to %s (CRC 0x%04X) in %s\n",
		len(image), addr, wdcmon.CalculateCRC(image), time.Since(start).Round(time.Millisecond))

	if programVerify {
		if err := wdcmon.VerifyImage(cmd.Context(), s.engine, addr, image, opts...); err != nil {
			return err
		}
		fmt.Fprintln(out, "Verified OK")
	}

	return nil
}
