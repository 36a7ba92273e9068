// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBridgeServer serves a WebSocket bridge in front of a simulated board,
// the way a remote serial bridge forwards the board's byte stream.
func newBridgeServer(t *testing.T, board *wdcmon.SimBoard, username, password string) string {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if username != "" {
			user, pass, ok := r.BasicAuth()
			if !ok || user != username || pass != password {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		buf := make([]byte, 1024)
		for {
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if messageType != websocket.BinaryMessage {
				continue
			}
			if _, err := board.Write(data); err != nil {
				return
			}
			for {
				n, _ := board.Read(buf)
				if n == 0 {
					break
				}
				if err := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketBridgeSession(t *testing.T) {
	board := wdcmon.NewSimBoard()
	url := newBridgeServer(t, board, "operator", "secret")

	conn, err := OpenWebSocketConnection(url, "operator", "secret", false, time.Second)
	require.NoError(t, err)

	engine := wdcmon.New(conn)
	require.NoError(t, wdcmon.Handshake(engine, wdcmon.DefaultSyncPolicy()))

	image := make([]byte, 3000)
	for i := range image {
		image[i] = byte(i * 7)
	}
	require.NoError(t, engine.WriteMemory(0x012000, image))

	got, err := engine.ReadMemory(0x012000, uint16(len(image)))
	require.NoError(t, err)
	assert.Equal(t, image, got)

	require.NoError(t, engine.RunProgram(0x2000))
	regs, ok := board.LastRun()
	require.True(t, ok)
	assert.Equal(t, uint16(0x2000), regs.PC)

	require.NoError(t, engine.Close())
}

func TestWebSocketBridgeRejectsBadCredentials(t *testing.T) {
	url := newBridgeServer(t, wdcmon.NewSimBoard(), "operator", "secret")

	_, err := OpenWebSocketConnection(url, "operator", "wrong", false, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestWebSocketUnsupportedScheme(t *testing.T) {
	_, err := OpenWebSocketConnection("http://localhost:1/bridge", "", "", false, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported URL scheme")
}

func TestWebSocketReadTimeoutReturnsNoData(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	conn, err := OpenWebSocketConnection("ws"+strings.TrimPrefix(srv.URL, "http"), "", "", false, 50*time.Millisecond)
	require.NoError(t, err)
	defer conn.Close()

	buf := make([]byte, 4)
	n, err := conn.Read(buf)
	assert.NoError(t, err)
	assert.Zero(t, n)

	// A silent board shows up as a missing ack
	err = wdcmon.New(conn).Synchronize()
	assert.ErrorIs(t, err, wdcmon.ErrSyncFailed)
	assert.ErrorIs(t, err, wdcmon.ErrShortRead)
}

func TestWebSocketSkipsTextAndReportsClose(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte("bridge ready"))
		conn.WriteMessage(websocket.BinaryMessage, []byte{0xCC, 0x00, 0x42})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.ReadMessage()
	}))
	defer srv.Close()

	conn, err := OpenWebSocketConnection("ws"+strings.TrimPrefix(srv.URL, "http"), "", "", false, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	// Partial reads are served from the buffered message
	buf := make([]byte, 2)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCC, 0x00}, buf[:n])

	n, err = conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x42}, buf[:n])

	_, err = conn.Read(buf)
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestWebSocketResetInputBuffer(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.BinaryMessage, []byte{0xEE, 0xEE, 0xEE})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	transport, err := OpenWebSocketConnection("ws"+strings.TrimPrefix(srv.URL, "http"), "", "", false, 50*time.Millisecond)
	require.NoError(t, err)
	conn := transport.(*WebSocketConnection)
	defer conn.Close()

	buf := make([]byte, 1)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, conn.ResetInputBuffer())
	n, err = conn.Read(buf)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestWebSocketCloseTwice(t *testing.T) {
	url := newBridgeServer(t, wdcmon.NewSimBoard(), "", "")

	conn, err := OpenWebSocketConnection(url, "", "", false, time.Second)
	require.NoError(t, err)

	assert.NoError(t, conn.Close())
	assert.ErrorIs(t, conn.Close(), ErrConnectionClosed)
}
