// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	ioctlGetTermios = unix.TIOCGETA
	ioctlSetTermios = unix.TIOCSETA
)

func setTermiosSpeed(t *unix.Termios, baud int) error {
	if baud <= 0 {
		return fmt.Errorf("unsupported baud rate %d", baud)
	}
	// Speeds are plain bit rates on darwin
	t.Ispeed = uint64(baud)
	t.Ospeed = uint64(baud)
	return nil
}

func flushInput(fd int) error {
	return unix.IoctlSetPointerInt(fd, unix.TIOCFLUSH, unix.TCIFLUSH)
}
