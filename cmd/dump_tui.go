// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// dumpChunkSize keeps reads short so a cancelled viewer stops quickly
const dumpChunkSize = 256

var errViewerClosed = errors.New("memory viewer closed")

// loadGate keeps background reads off the engine once the viewer has shut
// down. shutdown waits for a read already in flight.
type loadGate struct {
	mu     sync.Mutex
	closed bool
	active sync.WaitGroup
}

func (g *loadGate) enter() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.active.Add(1)
	return true
}

func (g *loadGate) leave() {
	g.active.Done()
}

func (g *loadGate) shutdown() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.active.Wait()
}

// dumpLoadedMsg carries the result of a memory read
type dumpLoadedMsg struct {
	addr wdcmon.Address
	data []byte
	err  error
	at   time.Time
}

// dumpModel is the interactive memory viewer
type dumpModel struct {
	ctx      context.Context
	engine   *wdcmon.Engine
	connInfo string
	loads    *loadGate

	addr wdcmon.Address
	size int
	data []byte

	viewport viewport.Model
	input    textinput.Model
	jumping  bool
	loading  bool

	status   string
	isError  bool
	loadedAt time.Time

	width    int
	height   int
	quitting bool
}

func newDumpModel(ctx context.Context, engine *wdcmon.Engine, connInfo string, addr wdcmon.Address, size int) dumpModel {
	ti := textinput.New()
	ti.Placeholder = "$00:8000"
	ti.Prompt = "Go to: "
	ti.CharLimit = 12
	ti.Width = 14

	return dumpModel{
		ctx:      ctx,
		engine:   engine,
		connInfo: connInfo,
		loads:    &loadGate{},
		addr:     addr,
		size:     size,
		viewport: viewport.New(80, 20),
		input:    ti,
		loading:  true,
		width:    80,
		height:   24,
	}
}

func (m dumpModel) Init() tea.Cmd {
	return m.load(m.addr)
}

// load reads one block in the background. Only one load runs at a time.
func (m dumpModel) load(addr wdcmon.Address) tea.Cmd {
	ctx, engine, size, loads := m.ctx, m.engine, m.size, m.loads
	return func() tea.Msg {
		if !loads.enter() {
			return dumpLoadedMsg{addr: addr, err: errViewerClosed, at: time.Now()}
		}
		defer loads.leave()

		data, err := wdcmon.ReadImage(ctx, engine, addr, size, wdcmon.WithChunkSize(dumpChunkSize))
		return dumpLoadedMsg{addr: addr, data: data, err: err, at: time.Now()}
	}
}

// shutdown stops further loads and waits for a running one to return.
// The engine may be closed afterwards.
func (m dumpModel) shutdown() {
	m.loads.shutdown()
}

func (m dumpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = max(msg.Height-8, 3)
		return m, nil

	case dumpLoadedMsg:
		m.loading = false
		m.loadedAt = msg.at
		if msg.err != nil {
			m.status = msg.err.Error()
			m.isError = true
			return m, nil
		}
		m.addr = msg.addr
		m.data = msg.data
		m.status = fmt.Sprintf("%d bytes, CRC 0x%04X", len(msg.data), wdcmon.CalculateCRC(msg.data))
		m.isError = false
		m.viewport.SetContent(wdcmon.HexDump(m.addr, m.data))
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if m.jumping {
			return m.updateJump(msg)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m.startLoad(m.addr)
		case "n":
			return m.startLoad(m.clamp(int(m.addr) + m.size))
		case "p":
			return m.startLoad(m.clamp(int(m.addr) - m.size))
		case "g":
			m.jumping = true
			m.input.SetValue("")
			cmd := m.input.Focus()
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m dumpModel) updateJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.jumping = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.jumping = false
		m.input.Blur()
		addr, err := parseAddress(m.input.Value())
		if err == nil {
			err = wdcmon.ValidateRange(uint64(addr), uint64(m.size))
		}
		if err != nil {
			m.status = err.Error()
			m.isError = true
			return m, nil
		}
		return m.startLoad(addr)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m dumpModel) startLoad(addr wdcmon.Address) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	m.loading = true
	m.status = fmt.Sprintf("reading %s...", addr)
	m.isError = false
	return m, m.load(addr)
}

// clamp keeps a block start inside the address space
func (m dumpModel) clamp(addr int) wdcmon.Address {
	last := wdcmon.AddressSpaceSize - m.size
	return wdcmon.Address(max(0, min(addr, last)))
}

func (m dumpModel) View() string {
	if m.quitting {
		return "Closing...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("WDCMON - MEMORY"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | %s +%d | n/p block, g go to, r re-read, q quit",
		m.connInfo, m.addr, m.size)))
	s.WriteString("\n\n")

	if len(m.data) == 0 && m.loading {
		s.WriteString(warningStyle.Render("Reading memory..."))
	} else {
		s.WriteString(boxStyle.Width(m.width - 2).Render(m.viewport.View()))
	}
	s.WriteString("\n")

	if m.jumping {
		s.WriteString(m.input.View())
	} else if m.isError {
		s.WriteString(errorStyle.Render("✗ " + m.status))
	} else {
		line := m.status
		if !m.loadedAt.IsZero() {
			line = fmt.Sprintf("%s | read at %s | %3.0f%%", m.status, m.loadedAt.Format("15:04:05"), m.viewport.ScrollPercent()*100)
		}
		s.WriteString(headerStyle.Render(line))
	}

	return s.String()
}
