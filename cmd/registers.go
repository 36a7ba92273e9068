// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
	"github.com/spf13/cobra"
)

var registersCmd = &cobra.Command{
	Use:   "registers",
	Short: "Show the monitor's register block",
	Long: `Read the 16 byte register block at $00:7E00 and display it.

This is the state the monitor loads before starting a program with run.
After a program returns to the monitor it holds the registers the monitor
saved on re-entry.`,
	Args: cobra.NoArgs,
	RunE: runRegisters,
}

func init() {
	rootCmd.AddCommand(registersCmd)
}

func runRegisters(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer s.Close()

	regs, err := s.engine.ReadRegisters()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Registers at %s: %s\n", wdcmon.RegistersAddress, wdcmon.FormatRegisterBlock(regs))
	return nil
}
