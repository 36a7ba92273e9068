// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Thermoquad/wdcmon/pkg/wdcmon"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Styles shared by the text commands and the dump viewer
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// printField writes a "label value" line
func printField(w io.Writer, label string, value string) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render(label), valueStyle.Render(value))
}

// renderBar draws a fixed width progress bar
func renderBar(width int, percentage float64) string {
	filled := int(float64(width) * percentage / 100.0)
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// progressPrinter returns a callback that redraws a progress line on w
func progressPrinter(w io.Writer) wdcmon.ProgressCallback {
	return func(p wdcmon.Progress) {
		if p.Phase == wdcmon.PhaseComplete {
			fmt.Fprint(w, "\r\033[K")
			return
		}
		fmt.Fprintf(w, "\r\033[K%-9s [%s] %5.1f%% %s %d/%d bytes",
			p.Phase, renderBar(30, p.Percentage), p.Percentage, p.Address, p.Done, p.Total)
	}
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// progressOptions enables the progress line when stderr is a terminal
func progressOptions(cmd *cobra.Command) []wdcmon.TransferOption {
	if w := cmd.ErrOrStderr(); isTerminal(w) {
		return []wdcmon.TransferOption{wdcmon.WithProgress(progressPrinter(w))}
	}
	return nil
}
