// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package termui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDims(t *testing.T) {
	dims, err := ParseDims("4, 3")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 3}, dims)

	dims, err = ParseDims("7")
	require.NoError(t, err)
	assert.Equal(t, []int{7}, dims)

	for _, invalid := range []string{"", "4,x", "0,2", "-1"} {
		_, err = ParseDims(invalid)
		assert.Errorf(t, err, "ParseDims(%q)", invalid)
	}
}

func TestRenderLattice(t *testing.T) {
	DisableColors()
	rendered := RenderLattice("#0", []float32{1, -1, -1, 1, 1, 1}, []int{2, 3})
	assert.Contains(t, rendered, "#0")
	assert.Contains(t, rendered, "↑ ↓ ↓")
	assert.Contains(t, rendered, "↑ ↑ ↑")
	assert.Equal(t, 2, strings.Count(rendered, SpinDown))

	joined := JoinLattices([]string{rendered, rendered, rendered}, 2)
	assert.Equal(t, 3, strings.Count(joined, "#0"))
}

func TestTableWithReds(t *testing.T) {
	DisableColors()
	table := NewPlainTableWithReds()
	table.Table.Headers("name", "value")
	table.Row(false, "a", "1")
	table.Row(true, "b", "2")
	assert.True(t, table.Reds[1])
	assert.False(t, table.Reds[0])
	rendered := table.Render()
	assert.Contains(t, rendered, "name")
	assert.Contains(t, rendered, "b")
}
