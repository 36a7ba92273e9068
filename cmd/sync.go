// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
	"github.com/spf13/cobra"
)

var (
	syncCount    int
	syncInterval time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Check that the board monitor answers",
	Long: `Run the sync handshake against the board and report the result.

Each round is a full handshake with up to --sync-attempts sync exchanges.
Use --count to repeat the check, for example to look for a flaky cable.

The command fails if any round fails.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().IntVar(&syncCount, "count", 1, "Number of handshake rounds")
	syncCmd.Flags().DurationVar(&syncInterval, "interval", 0, "Pause between rounds")
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}

	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("WDCMON - SYNC CHECK"))
	printField(out, "Connection:", s.info)
	printField(out, "Attempts:", fmt.Sprintf("%d per round", syncPolicy().Attempts))
	fmt.Fprintln(out)

	failures := 0
	for round := 1; round <= syncCount; round++ {
		if round > 1 && syncInterval > 0 {
			select {
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			case <-time.After(syncInterval):
			}
		}

		retries := 0
		policy := syncPolicy()
		onRetry := policy.OnRetry
		policy.OnRetry = func(attempt int, err error) {
			retries++
			if onRetry != nil {
				onRetry(attempt, err)
			}
		}

		start := time.Now()
		err := wdcmon.Handshake(s.engine, policy)
		elapsed := time.Since(start).Round(time.Microsecond)

		switch {
		case err == nil && retries == 0:
			fmt.Fprintf(out, "round %d: %s (%s)\n", round, valueStyle.Render("OK"), elapsed)
		case err == nil:
			fmt.Fprintf(out, "round %d: %s after %d retries (%s)\n", round, warningStyle.Render("OK"), retries, elapsed)
		default:
			failures++
			fmt.Fprintf(out, "round %d: %s %v\n", round, errorStyle.Render("FAILED"), err)
			if wdcmon.IsTransportError(err) {
				return err
			}
		}
	}

	fmt.Fprintln(out)
	fmt.Fprint(out, s.engine.Stats().String())

	if failures > 0 {
		return fmt.Errorf("%d of %d sync rounds failed", failures, syncCount)
	}
	return nil
}
