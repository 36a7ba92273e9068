// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <start_address>",
	Short: "Start a program on the board",
	Long: `Load the default register state (A, X, Y and direct page zero, stack
pointer 0xFF) with the program counter set to start_address and tell the
monitor to jump there.

The monitor sends no confirmation once the program is running.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	start, err := parseStartAddress(args[0])
	if err != nil {
		return err
	}

	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.engine.RunProgram(start); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Started program: %s\n", wdcmon.FormatRegisterBlock(wdcmon.NewRegisterBlock(start)))
	return nil
}
