// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build linux || darwin

package cmd

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
	"golang.org/x/sys/unix"
)

var errFlowControlUnsupported = errors.New("hardware flow control not supported")

// termiosPort is a serial port configured through termios with RTS/CTS
// enabled. With a read timeout, reads use VMIN=0/VTIME so an expired
// timeout returns no data and no error.
type termiosPort struct {
	mu     sync.Mutex
	fd     int
	closed bool
}

func openFlowControlPort(cfg wdcmon.TransportConfig) (wdcmon.Transport, error) {
	fd, err := unix.Open(cfg.Port, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}

	if err := configureTermios(fd, cfg); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to configure serial port %s: %w", cfg.Port, err)
	}

	if err := unix.SetNonblock(fd, false); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to configure serial port %s: %w", cfg.Port, err)
	}

	// Keep other processes off the port while we own it
	if err := unix.IoctlSetInt(fd, unix.TIOCEXCL, 0); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to lock serial port %s: %w", cfg.Port, err)
	}

	return &termiosPort{fd: fd}, nil
}

// configureTermios puts the line in raw 8N1 mode at the configured baud
// rate with RTS/CTS enabled.
func configureTermios(fd int, cfg wdcmon.TransportConfig) error {
	t, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return err
	}

	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | unix.CRTSCTS

	if err := setTermiosSpeed(t, cfg.BaudRate); err != nil {
		return err
	}

	t.Cc[unix.VMIN], t.Cc[unix.VTIME] = readMode(cfg.ReadTimeout)

	return unix.IoctlSetTermios(fd, ioctlSetTermios, t)
}

// readMode returns the VMIN and VTIME settings for a read timeout. A zero
// timeout blocks until at least one byte arrives. Otherwise reads return
// whatever arrived once the timeout expires, which VTIME caps at 25.5s.
func readMode(d time.Duration) (vmin, vtime uint8) {
	if d <= 0 {
		return 1, 0
	}
	ds := (d + 99*time.Millisecond) / (100 * time.Millisecond)
	return 0, uint8(min(ds, 255))
}

func (p *termiosPort) Read(b []byte) (int, error) {
	for {
		n, err := unix.Read(p.fd, b)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

func (p *termiosPort) Write(b []byte) (int, error) {
	written := 0
	for written < len(b) {
		n, err := unix.Write(p.fd, b[written:])
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

// ResetInputBuffer discards bytes received but not yet read
func (p *termiosPort) ResetInputBuffer() error {
	return flushInput(p.fd)
}

func (p *termiosPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	_ = unix.IoctlSetInt(p.fd, unix.TIOCNXCL, 0)
	return unix.Close(p.fd)
}
