// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// wdcmon - W65C816SXB board monitor client
//
// A CLI tool for reading, writing and running programs in the memory of a
// W65C816SXB development board through its serial monitor firmware.

package main

import (
	"fmt"
	"os"

	"github.com/Thermoquad/wdcmon/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
