// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
)

// openTransport opens the link selected by the connection flags. Tests
// replace it with a simulated board.
var openTransport = OpenConnection

// session is one connection to the board used by a single command
type session struct {
	engine *wdcmon.Engine
	info   string

	traceOut *os.File
	traced   *wdcmon.TraceTransport
}

// openSession connects to the board and, when handshake is set, brings it
// into step with the sync policy from the flags.
func openSession(handshake bool) (*session, error) {
	s := &session{}

	if traceFile != "" {
		f, err := os.Create(traceFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace file: %w", err)
		}
		s.traceOut = f
	}

	opener := func(wdcmon.TransportConfig) (wdcmon.Transport, error) {
		transport, info, err := openTransport()
		if err != nil {
			return nil, err
		}
		s.info = info
		if s.traceOut != nil {
			s.traced = wdcmon.NewTraceTransport(transport, s.traceOut)
			return s.traced, nil
		}
		return transport, nil
	}

	var opts []wdcmon.Option
	if verbose {
		opts = append(opts, wdcmon.WithLogger(newExchangeLogger(os.Stderr)))
	}

	engine, err := wdcmon.Open(opener, transportConfig(portName), opts...)
	if err != nil {
		s.closeTrace()
		var ce *wdcmon.ConfigurationError
		if errors.As(err, &ce) {
			return nil, ce
		}
		return nil, err
	}
	s.engine = engine

	if handshake {
		if err := wdcmon.Handshake(engine, syncPolicy()); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

// syncPolicy builds the handshake policy from the flags
func syncPolicy() wdcmon.SyncPolicy {
	policy := wdcmon.DefaultSyncPolicy()
	policy.Attempts = syncAttempts
	if verbose {
		policy.OnRetry = func(attempt int, err error) {
			log.Printf("sync attempt %d failed: %v", attempt, err)
		}
	}
	return policy
}

// Close releases the transport and finishes the trace file
func (s *session) Close() {
	if s.engine != nil && s.engine.Connected() {
		if err := s.engine.Close(); err != nil {
			log.Printf("Close error: %v", err)
		}
	}
	s.closeTrace()
}

func (s *session) closeTrace() {
	if s.traceOut == nil {
		return
	}
	if s.traced != nil {
		if err := s.traced.Err(); err != nil {
			log.Printf("Trace incomplete: %v", err)
		}
	}
	if err := s.traceOut.Close(); err != nil {
		log.Printf("Trace close error: %v", err)
	}
	s.traceOut = nil
}
