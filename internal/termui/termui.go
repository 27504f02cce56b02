// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package termui holds the terminal rendering helpers shared by the commands: tables, titles and lattices.
package termui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)
	redRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "9", Dark: "9"}).
			Bold(true).
			PaddingLeft(1).PaddingRight(1)

	// TitleStyle for the sections of a report.
	TitleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
)

// DisableColors makes all the rendering plain ASCII, without colors or other terminal escape sequences.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// TableWithReds is a table where selected rows are highlighted in red.
type TableWithReds struct {
	Table *lgtable.Table
	Count int
	Reds  map[int]bool
}

// Row appends a row, highlighted if isRed.
func (t *TableWithReds) Row(isRed bool, row ...string) {
	if isRed {
		t.Reds[t.Count] = true
	}
	t.Table.Row(row...)
	t.Count++
}

// Render the table to a string.
func (t *TableWithReds) Render() string {
	return t.Table.Render()
}

// NewPlainTable returns a table with alternating row styles.
// The alignments are given per column, the last one is used for any remaining columns.
func NewPlainTable(alignments ...lipgloss.Position) *lgtable.Table {
	return NewPlainTableWithReds(alignments...).Table
}

// NewPlainTableWithReds is like NewPlainTable, but rows can be highlighted in red, see TableWithReds.Row.
func NewPlainTableWithReds(alignments ...lipgloss.Position) *TableWithReds {
	t := &TableWithReds{
		Reds: make(map[int]bool),
	}
	t.Table = lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if row == lgtable.HeaderRow {
				s = headerRowStyle
				return
			}
			if t.Reds[row] {
				s = redRowStyle
			} else if row%2 == 0 {
				s = oddRowStyle
			} else {
				s = evenRowStyle
			}
			alignment := lipgloss.Left
			if col < len(alignments) {
				alignment = alignments[col]
			} else if len(alignments) > 0 {
				alignment = alignments[len(alignments)-1]
			}
			s = s.Align(alignment)
			return
		})
	return t
}

// ParseDims parses a comma-separated list of positive dimensions, e.g. "4,4".
func ParseDims(value string) ([]int, error) {
	parts := strings.Split(value, ",")
	dims := make([]int, 0, len(parts))
	for _, part := range parts {
		dim, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid dimensions %q", value)
		}
		if dim <= 0 {
			return nil, errors.Errorf("invalid dimensions %q: dimensions must be > 0", value)
		}
		dims = append(dims, dim)
	}
	return dims, nil
}
