// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wdcmon

import (
	"fmt"
	"time"
)

// Statistics tracks command exchanges and link throughput
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalCommands   uint64
	SyncCommands    uint64
	ReadCommands    uint64
	WriteCommands   uint64
	ExecCommands    uint64
	BytesSent       uint64
	BytesReceived   uint64
	ProtocolErrors  uint64
	TransportErrors uint64

	// Rates (calculated)
	CommandRate float64 // commands/sec
	ByteRate    float64 // payload bytes/sec in both directions
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// recordCommand counts one command sent with the given opcode
func (s *Statistics) recordCommand(opcode byte) {
	s.TotalCommands++
	switch opcode {
	case CmdSync:
		s.SyncCommands++
	case CmdReadMemory:
		s.ReadCommands++
	case CmdWriteMemory:
		s.WriteCommands++
	case CmdExecute:
		s.ExecCommands++
	}
	s.LastUpdateTime = time.Now()
}

func (s *Statistics) recordSent(n int) {
	s.BytesSent += uint64(n)
}

func (s *Statistics) recordReceived(n int) {
	s.BytesReceived += uint64(n)
}

// recordError classifies err as a protocol or transport failure
func (s *Statistics) recordError(err error) {
	switch {
	case IsProtocolError(err):
		s.ProtocolErrors++
	case IsTransportError(err):
		s.TransportErrors++
	}
	s.LastUpdateTime = time.Now()
}

// CalculateRates calculates command and byte rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.CommandRate = float64(s.TotalCommands) / elapsed
		s.ByteRate = float64(s.BytesSent+s.BytesReceived) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.1f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Commands:        %8d\n", s.TotalCommands)
	if s.SyncCommands > 0 {
		result += fmt.Sprintf("  Sync:            %6d\n", s.SyncCommands)
	}
	if s.ReadCommands > 0 {
		result += fmt.Sprintf("  Read Memory:     %6d\n", s.ReadCommands)
	}
	if s.WriteCommands > 0 {
		result += fmt.Sprintf("  Write Memory:    %6d\n", s.WriteCommands)
	}
	if s.ExecCommands > 0 {
		result += fmt.Sprintf("  Execute:         %6d\n", s.ExecCommands)
	}
	result += fmt.Sprintf("Bytes Sent:      %8d\n", s.BytesSent)
	result += fmt.Sprintf("Bytes Received:  %8d\n", s.BytesReceived)
	if s.ProtocolErrors > 0 {
		result += fmt.Sprintf("Protocol Errors: %8d\n", s.ProtocolErrors)
	}
	if s.TransportErrors > 0 {
		result += fmt.Sprintf("Transport Errors:%8d\n", s.TransportErrors)
	}
	result += fmt.Sprintf("Throughput:      %8.1f bytes/sec\n", s.ByteRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
