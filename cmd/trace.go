// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace <file>",
	Short: "Display a recorded link trace",
	Long: `Decode a trace file written with --trace and display every read and
write in order. Command bodies sent to the board are decoded as well.

Example:
  wdcmon --trace session.cbor program 0x2000 hello.bin
  wdcmon trace session.cbor`,
	Args: cobra.ExactArgs(1),
	RunE: runTrace,
}

func init() {
	rootCmd.AddCommand(traceCmd)
}

func runTrace(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	reader := wdcmon.NewTraceReader(f)
	count := 0

	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("after %d records: %w", count, err)
		}
		count++

		fmt.Fprint(out, wdcmon.FormatTraceRecord(rec))
		if desc := describeTraceRecord(rec); desc != "" {
			fmt.Fprintf(out, "    %s\n", desc)
		}
	}

	fmt.Fprintf(out, "\n%d records\n", count)
	return nil
}

// describeTraceRecord names what a host write carried
func describeTraceRecord(rec *wdcmon.TraceRecord) string {
	if rec.Dir != wdcmon.DirTx || len(rec.Data) == 0 {
		return ""
	}
	if bytes.Equal(rec.Data, wdcmon.Preamble) {
		return "preamble"
	}
	cmd, err := wdcmon.DecodeCommand(rec.Data)
	if err != nil {
		return ""
	}
	return wdcmon.FormatCommand(cmd)
}
