package pyparse

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NotebookLineMap maps a line in the re-projected Python-equivalent source
// back to (cell_index, line_in_cell), matching the "Notebook
// input". This type is defined here so an external notebook extractor or
// report formatter has a concrete contract to populate/consume; the
// extraction logic below is the in-core reference implementation pyaudit
// uses when --include-ipynb is enabled (include_ipynb).
type NotebookLineMap struct {
	// CellOfLine[i] is the cell index owning re-projected line i+1 (1-indexed
	// storage via a 0-indexed slice).
	CellOfLine []int
	// LineInCellOfLine[i] is the 1-indexed line within that cell.
	LineInCellOfLine []int
}

// CellLocation resolves a re-projected 1-indexed line to its notebook cell
// coordinates.
func (m *NotebookLineMap) CellLocation(line int) (cellIndex, lineInCell int, ok bool) {
	if m == nil || line < 1 || line > len(m.CellOfLine) {
		return 0, 0, false
	}
	return m.CellOfLine[line-1], m.LineInCellOfLine[line-1], true
}

// notebookDocument is the subset of the Jupyter nbformat JSON schema pyaudit
// needs: an ordered list of cells, each with a type and source lines.
type notebookDocument struct {
	Cells []notebookCell `json:"cells"`
}

type notebookCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
}

// sourceLines normalizes a cell's `source` field, which nbformat allows to be
// either a single string or a list of strings (one per line, each typically
// still newline-terminated except the last).
func (c notebookCell) sourceLines() []string {
	var asList []string
	if err := json.Unmarshal(c.Source, &asList); err == nil {
		return asList
	}
	var asString string
	if err := json.Unmarshal(c.Source, &asString); err == nil {
		if asString == "" {
			return nil
		}
		lines := strings.SplitAfter(asString, "\n")
		if lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		return lines
	}
	return nil
}

// ExtractNotebookSource re-projects a cell-structured .ipynb JSON document to
// concatenated Python-equivalent source, along with the line map back to
// (cell_index, line_in_cell). Markdown cells are skipped; code cells are
// joined with a blank-line separator so top-level definitions across cells
// never collide on a single source line.
func ExtractNotebookSource(raw []byte) ([]byte, *NotebookLineMap, error) {
	var doc notebookDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("invalid notebook JSON: %w", err)
	}

	var out strings.Builder
	lineMap := &NotebookLineMap{}

	for cellIdx, cell := range doc.Cells {
		if cell.CellType != "code" {
			continue
		}
		lines := cell.sourceLines()
		for li, raw := range lines {
			text := strings.TrimRight(raw, "\n")
			out.WriteString(text)
			out.WriteByte('\n')
			lineMap.CellOfLine = append(lineMap.CellOfLine, cellIdx)
			lineMap.LineInCellOfLine = append(lineMap.LineInCellOfLine, li+1)
		}
		if len(lines) == 0 {
			continue
		}
		// Blank separator line between cells, attributed to the cell that
		// precedes it so every re-projected line still maps somewhere.
		out.WriteByte('\n')
		lineMap.CellOfLine = append(lineMap.CellOfLine, cellIdx)
		lineMap.LineInCellOfLine = append(lineMap.LineInCellOfLine, len(lines)+1)
	}

	return []byte(out.String()), lineMap, nil
}
