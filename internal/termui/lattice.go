// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package termui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	spinUpStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "4", Dark: "12"}).Bold(true)
	spinDownStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "1", Dark: "9"})
	latticeStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Spin symbols used by RenderLattice.
const (
	SpinUp   = "↑"
	SpinDown = "↓"
)

// RenderLattice renders one configuration of spins (values > 0 are up) in a box, with the given title.
// A 1D lattice is rendered in one line, a 2D lattice (dims [height, width]) one row per line.
func RenderLattice(title string, spins []float32, dims []int) string {
	width := dims[len(dims)-1]
	var rows []string
	for start := 0; start < len(spins); start += width {
		var sb strings.Builder
		for ii, s := range spins[start:min(start+width, len(spins))] {
			if ii > 0 {
				sb.WriteString(" ")
			}
			if s > 0 {
				sb.WriteString(spinUpStyle.Render(SpinUp))
			} else {
				sb.WriteString(spinDownStyle.Render(SpinDown))
			}
		}
		rows = append(rows, sb.String())
	}
	content := lipgloss.JoinVertical(lipgloss.Left, append([]string{title}, rows...)...)
	return latticeStyle.Render(content)
}

// JoinLattices renders the lattices side by side, wrapping after perLine lattices.
func JoinLattices(lattices []string, perLine int) string {
	if perLine <= 0 {
		perLine = len(lattices)
	}
	var lines []string
	for start := 0; start < len(lattices); start += perLine {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, lattices[start:min(start+perLine, len(lattices))]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
