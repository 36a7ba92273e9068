// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wdcmon

import "fmt"

// Address is a 24-bit target address. On the wire it is sent as a
// little-endian 16-bit low word followed by the 8-bit bank byte.
type Address uint32

// JoinAddress rebuilds an address from its wire halves.
func JoinAddress(low uint16, high uint8) Address {
	return Address(high)<<16 | Address(low)
}

// Low returns the low 16 bits of the address
func (a Address) Low() uint16 {
	return uint16(a & 0xFFFF)
}

// High returns the bank byte (bits 16-23)
func (a Address) High() uint8 {
	return uint8(a >> 16)
}

// Valid reports whether the address fits in 24 bits
func (a Address) Valid() bool {
	return a <= MaxAddress
}

// Add returns the address offset by n bytes
func (a Address) Add(n int) Address {
	return a + Address(n)
}

// String formats the address as $BB:LLLL
func (a Address) String() string {
	return fmt.Sprintf("$%02X:%04X", a.High(), a.Low())
}
