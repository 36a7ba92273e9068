// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
	"go.bug.st/serial/enumerator"
)

// boardVID and boardPID as reported by the enumerator (hex, no prefix)
var (
	boardVID = fmt.Sprintf("%04X", wdcmon.BoardVID)
	boardPID = fmt.Sprintf("%04X", wdcmon.BoardPID)
)

// enumeratePorts lists serial ports with USB details. Tests replace it.
var enumeratePorts = enumerator.GetDetailedPortsList

// isBoardPort reports whether a port belongs to the board's USB serial
// adapter. Enumerators differ in hex case, so the match ignores it.
func isBoardPort(p *enumerator.PortDetails) bool {
	return p.IsUSB &&
		strings.EqualFold(p.VID, boardVID) &&
		strings.EqualFold(p.PID, boardPID)
}

// filterBoardPorts returns the sorted names of ports matching the board,
// or of every port when all is set.
func filterBoardPorts(ports []*enumerator.PortDetails, all bool) []string {
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		if all || isBoardPort(p) {
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)
	return names
}

// findBoardPorts enumerates the system's serial ports
func findBoardPorts(all bool) ([]string, error) {
	ports, err := enumeratePorts()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return filterBoardPorts(ports, all), nil
}

// selectPort picks the board port when exactly one is attached
func selectPort() (string, error) {
	candidates, err := findBoardPorts(false)
	if err != nil {
		return "", err
	}
	if len(candidates) != 1 {
		return "", &wdcmon.ConfigurationError{Candidates: candidates}
	}
	return candidates[0], nil
}
