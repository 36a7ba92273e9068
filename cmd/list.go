// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List attached boards",
	Long: `List serial ports that belong to a W65C816SXB board.

Boards are recognised by the USB VID/PID of their serial adapter (0403:6001).
Use --all to list every serial port instead.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listAll, "all", false, "List all serial ports, not just boards")
}

func runList(cmd *cobra.Command, args []string) error {
	names, err := findBoardPorts(listAll)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No boards found")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}
