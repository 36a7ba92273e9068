// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
)

// parseNumber parses a command line integer. Go literal prefixes (0x, 0o,
// 0b, underscores) are accepted, as is the 65xx assembler's $ for hex.
// A leading zero without a prefix is rejected rather than read as octal.
func parseNumber(s string) (uint64, error) {
	text := strings.TrimSpace(s)
	base := 0
	if rest, ok := strings.CutPrefix(text, "$"); ok {
		text = rest
		base = 16
	} else if hasLeadingZero(text) {
		return 0, fmt.Errorf("invalid number %q: leading zeros are not allowed, use 0o for octal", s)
	}

	v, err := strconv.ParseUint(text, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// hasLeadingZero reports a decimal literal such as 010. Zero itself, in any
// spelling, and prefixed literals are fine.
func hasLeadingZero(text string) bool {
	if len(text) < 2 || text[0] != '0' {
		return false
	}
	if c := text[1]; c != '_' && (c < '0' || c > '9') {
		return false
	}
	return strings.Trim(text, "0_") != ""
}

// parseAddress parses a 24-bit target address. The bank:offset form
// printed by the tool ($01:2000) is accepted too; both halves are hex.
func parseAddress(s string) (wdcmon.Address, error) {
	if bank, offset, ok := strings.Cut(strings.TrimPrefix(s, "$"), ":"); ok {
		high, err := strconv.ParseUint(bank, 16, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid bank in address %q", s)
		}
		low, err := strconv.ParseUint(offset, 16, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid offset in address %q", s)
		}
		return wdcmon.JoinAddress(uint16(low), uint8(high)), nil
	}

	v, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	if err := wdcmon.ValidateAddress(v); err != nil {
		return 0, err
	}
	return wdcmon.Address(v), nil
}

// parseStartAddress parses a 16-bit program counter value
func parseStartAddress(s string) (uint16, error) {
	v, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	if err := wdcmon.ValidateStartAddress(v); err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// parseSize parses a byte count for an image starting at addr
func parseSize(s string, addr wdcmon.Address) (int, error) {
	v, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	if err := wdcmon.ValidateRange(uint64(addr), v); err != nil {
		return 0, err
	}
	return int(v), nil
}
