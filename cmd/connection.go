// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// SerialConnection wraps a serial port opened without hardware flow control
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// ResetInputBuffer discards bytes received but not yet read
func (s *SerialConnection) ResetInputBuffer() error {
	return s.port.ResetInputBuffer()
}

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = errors.New("websocket connection closed")

// WebSocketConnection carries the monitor byte stream over binary WebSocket
// messages, for boards attached to a remote serial bridge. Messages are read
// by a background goroutine so that Read can honour the reply timeout the
// same way a serial port does: by returning no data and no error.
type WebSocketConnection struct {
	conn     *websocket.Conn
	timeout  time.Duration
	incoming chan []byte
	done     chan struct{}
	readErr  error // valid once incoming is closed
	buf      []byte

	closeOnce sync.Once
}

func newWebSocketConnection(conn *websocket.Conn, timeout time.Duration) *WebSocketConnection {
	w := &WebSocketConnection{
		conn:     conn,
		timeout:  timeout,
		incoming: make(chan []byte, 16),
		done:     make(chan struct{}),
	}
	go w.readLoop()
	return w
}

func (w *WebSocketConnection) readLoop() {
	defer close(w.incoming)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.readErr = err
			return
		}

		// The bridge only carries binary messages
		if messageType != websocket.BinaryMessage {
			continue
		}

		select {
		case w.incoming <- data:
		case <-w.done:
			return
		}
	}
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	// If we have buffered data, return it first
	if len(w.buf) > 0 {
		n := copy(p, w.buf)
		w.buf = w.buf[n:]
		return n, nil
	}

	var expired <-chan time.Time
	if w.timeout > 0 {
		timer := time.NewTimer(w.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case data, ok := <-w.incoming:
		if !ok {
			if websocket.IsCloseError(w.readErr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, ErrConnectionClosed
			}
			return 0, w.readErr
		}
		n := copy(p, data)
		w.buf = data[n:]
		return n, nil
	case <-expired:
		return 0, nil
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	err := w.conn.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// ResetInputBuffer drops buffered data and any messages already received
func (w *WebSocketConnection) ResetInputBuffer() error {
	w.buf = nil
	for {
		select {
		case _, ok := <-w.incoming:
			if !ok {
				return nil
			}
		default:
			return nil
		}
	}
}

func (w *WebSocketConnection) Close() error {
	err := ErrConnectionClosed
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.conn.Close()
	})
	return err
}

// OpenSerialConnection opens the board's serial port. With RTS/CTS requested
// the port is configured through termios directly where the platform allows
// it; otherwise go.bug.st/serial is used without flow control.
func OpenSerialConnection(cfg wdcmon.TransportConfig) (wdcmon.Transport, error) {
	if cfg.FlowControl == wdcmon.FlowControlRTSCTS {
		conn, err := openFlowControlPort(cfg)
		if !errors.Is(err, errFlowControlUnsupported) {
			return conn, err
		}
		log.Printf("RTS/CTS flow control not supported on this platform, continuing without it")
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
		InitialStatusBits: &serial.ModemOutputBits{
			RTS: true,
			DTR: true,
		},
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}

	if cfg.ReadTimeout > 0 {
		if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to set read timeout on %s: %w", cfg.Port, err)
		}
	}

	return &SerialConnection{port: port}, nil
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool, timeout time.Duration) (wdcmon.Transport, error) {
	// Parse and validate URL
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	// Validate scheme
	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	// Configure TLS for wss://
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	// Build HTTP headers with Basic auth
	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return newWebSocketConnection(conn, timeout), nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("WDCMON_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	// Read password without echo
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// transportConfig builds the link configuration from the persistent flags
func transportConfig(port string) wdcmon.TransportConfig {
	cfg := wdcmon.DefaultTransportConfig(port)
	cfg.ReadTimeout = readTimeout
	if noFlowControl {
		cfg.FlowControl = wdcmon.FlowControlNone
	}
	return cfg
}

// OpenConnection opens either a serial or WebSocket connection based on
// flags. Without --port or --url the attached board is found by VID/PID.
func OpenConnection() (wdcmon.Transport, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := OpenWebSocketConnection(wsURL, wsUsername, password, wsNoSSLVerify, readTimeout)
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	port := portName
	if port == "" {
		var err error
		port, err = selectPort()
		if err != nil {
			return nil, "", err
		}
	}

	cfg := transportConfig(port)
	conn, err := OpenSerialConnection(cfg)
	if err != nil {
		return nil, "", err
	}

	return conn, fmt.Sprintf("Serial: %s @ %d baud (%s)", port, cfg.BaudRate, cfg.FlowControl), nil
}
