package pyparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleNotebook = `{
  "cells": [
    {"cell_type": "markdown", "source": ["# Title\n"]},
    {"cell_type": "code", "source": ["def f():\n", "    return 1\n"]},
    {"cell_type": "code", "source": "f()\n"}
  ]
}`

func TestExtractNotebookSourceSkipsMarkdown(t *testing.T) {
	src, lineMap, err := ExtractNotebookSource([]byte(sampleNotebook))
	require.NoError(t, err)
	require.Contains(t, string(src), "def f():")
	require.NotContains(t, string(src), "# Title")

	cell, lineInCell, ok := lineMap.CellLocation(1)
	require.True(t, ok)
	require.Equal(t, 1, cell)
	require.Equal(t, 1, lineInCell)
}

func TestExtractNotebookSourceStringSource(t *testing.T) {
	src, _, err := ExtractNotebookSource([]byte(sampleNotebook))
	require.NoError(t, err)
	require.Contains(t, string(src), "f()")
}

func TestExtractNotebookSourceInvalidJSON(t *testing.T) {
	_, _, err := ExtractNotebookSource([]byte("not json"))
	require.Error(t, err)
}

func TestNotebookLineMapOutOfRange(t *testing.T) {
	m := &NotebookLineMap{CellOfLine: []int{0}, LineInCellOfLine: []int{1}}
	_, _, ok := m.CellLocation(0)
	require.False(t, ok)
	_, _, ok = m.CellLocation(99)
	require.False(t, ok)
}
