// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName      string
	noFlowControl bool
	readTimeout   time.Duration

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Session flags
	syncAttempts int
	traceFile    string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "wdcmon",
	Short: "W65C816SXB board monitor client",
	Long: `wdcmon - talk to the monitor firmware of a W65C816SXB board.

Reads and writes board memory and starts programs over the board's USB serial
link (57600 baud, RTS/CTS). When --port is not given the single attached
board is selected automatically by its USB VID/PID (0403:6001).

Connection modes:
  Serial:    --port /dev/ttyUSB0
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the WDCMON_PASSWORD
environment variable, or prompted interactively if not set.

Addresses and sizes accept 0x, 0o, 0b and $ prefixes. Decimal numbers may
not start with 0 (write 0o10, not 010).`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device (auto-detected if omitted)")
	rootCmd.PersistentFlags().BoolVar(&noFlowControl, "no-flow-control", false, "Disable RTS/CTS hardware flow control")
	rootCmd.PersistentFlags().DurationVar(&readTimeout, "timeout", 5*time.Second, "Read timeout for each reply (0 waits forever)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket bridge URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Session flags
	rootCmd.PersistentFlags().IntVar(&syncAttempts, "sync-attempts", wdcmon.DefaultSyncAttempts, "Sync exchanges to try before giving up")
	rootCmd.PersistentFlags().StringVar(&traceFile, "trace", "", "Record every byte on the link to a CBOR trace file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log protocol exchanges to stderr")
}

// Execute runs the root command. Ctrl+C cancels transfers between chunks.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
