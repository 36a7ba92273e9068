// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wdcmon

import (
	"errors"
	"fmt"
	"time"
)

// SyncPolicy configures the caller-side sync retry loop
type SyncPolicy struct {
	// OnRetry is called after a failed attempt that will be retried
	OnRetry func(attempt int, err error)
	// Attempts is the maximum number of sync exchanges (minimum 1)
	Attempts int
	// Delay is the pause between attempts
	Delay time.Duration
}

// DefaultSyncPolicy returns a policy with DefaultSyncAttempts attempts and
// no delay.
func DefaultSyncPolicy() SyncPolicy {
	return SyncPolicy{Attempts: DefaultSyncAttempts}
}

// Handshake brings host and board into step by running single-shot sync
// exchanges until one succeeds. A board that is still answering a stale
// command fails the first attempts with a protocol error; before each
// retry any pending input is discarded if the transport supports it.
// Transport errors end the loop immediately.
func Handshake(e *Engine, policy SyncPolicy) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := e.Synchronize()
		if err == nil {
			return nil
		}
		if !IsProtocolError(err) || errors.Is(err, ErrNotConnected) {
			return err
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err)
		}
		if flusher, ok := e.Transport().(InputFlusher); ok {
			if flushErr := flusher.ResetInputBuffer(); flushErr != nil {
				return &TransportError{Op: OpSync, Port: e.port, Err: flushErr}
			}
		}
		if policy.Delay > 0 {
			time.Sleep(policy.Delay)
		}
	}

	return fmt.Errorf("no sync after %d attempts: %w", attempts, lastErr)
}
