// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wdcmon

import "fmt"

// ValidationType identifies which caller argument failed validation
type ValidationType int

const (
	InvalidAddress ValidationType = iota
	InvalidRange
	InvalidStartAddress
	InvalidChunkSize
)

// ValidationError represents a rejected caller argument. The engine itself
// does not range-check; these helpers are for the layer that builds requests.
type ValidationError struct {
	Details map[string]interface{}
	Message string
	Type    ValidationType
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateAddress checks that addr fits in the 24-bit address space
func ValidateAddress(addr uint64) error {
	if addr > uint64(MaxAddress) {
		return &ValidationError{
			Type:    InvalidAddress,
			Message: fmt.Sprintf("address 0x%X outside 24-bit address space", addr),
			Details: map[string]interface{}{"address": addr, "max": uint64(MaxAddress)},
		}
	}
	return nil
}

// ValidateRange checks that size bytes starting at addr stay inside the
// 24-bit address space.
func ValidateRange(addr, size uint64) error {
	if err := ValidateAddress(addr); err != nil {
		return err
	}
	if addr+size > AddressSpaceSize {
		return &ValidationError{
			Type:    InvalidRange,
			Message: fmt.Sprintf("range 0x%X+0x%X runs past end of address space (0x%X)", addr, size, AddressSpaceSize),
			Details: map[string]interface{}{"address": addr, "size": size},
		}
	}
	return nil
}

// ValidateStartAddress checks that addr fits the 16-bit program counter
func ValidateStartAddress(addr uint64) error {
	if addr > 0xFFFF {
		return &ValidationError{
			Type:    InvalidStartAddress,
			Message: fmt.Sprintf("start address 0x%X does not fit the 16-bit program counter", addr),
			Details: map[string]interface{}{"address": addr, "max": 0xFFFF},
		}
	}
	return nil
}

// ValidateChunkSize checks that size can be carried by one memory command
func ValidateChunkSize(size int) error {
	if size < 1 || size > MaxTransferSize {
		return &ValidationError{
			Type:    InvalidChunkSize,
			Message: fmt.Sprintf("chunk size %d outside 1..%d", size, MaxTransferSize),
			Details: map[string]interface{}{"size": size, "max": MaxTransferSize},
		}
	}
	return nil
}
