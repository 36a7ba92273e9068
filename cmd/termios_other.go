// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build !linux && !darwin

package cmd

import (
	"errors"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
)

var errFlowControlUnsupported = errors.New("hardware flow control not supported")

func openFlowControlPort(wdcmon.TransportConfig) (wdcmon.Transport, error) {
	return nil, errFlowControlUnsupported
}
