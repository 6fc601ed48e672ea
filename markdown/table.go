package markdown

import (
	"strings"

	"github.com/opendocs-go/mdreader/ast"
)

// table tries a simple (single dash-rule, no multi-line cells) table first,
// then a multiline table (dash rule, header, dash rule, rows, dash rule).
// Spec §4.F.
func table(c *Cursor) (ast.Block, bool) {
	if in, ok := simpleTable(c); ok {
		return in, true
	}
	return multilineTable(c)
}

// dashRule matches a line of one or more runs of '-', each run optionally
// followed by trailing spaces, preceded by initSp leading spaces. It
// reports, per run, the dash count alone (dashLens, used for alignment
// inference) and the dash count plus its trailing gap (totals, used to
// compute column-break indices).
func dashRule(c *Cursor) (initSp int, dashLens []int, totals []int, ok bool) {
	snap := *c
	for c.Peek() == ' ' {
		c.Advance()
		initSp++
	}
	if c.Peek() != '-' {
		*c = snap
		return 0, nil, nil, false
	}
	for c.Peek() == '-' {
		d := 0
		for c.Peek() == '-' {
			c.Advance()
			d++
		}
		t := 0
		for c.Peek() == ' ' {
			c.Advance()
			t++
		}
		dashLens = append(dashLens, d)
		totals = append(totals, d+t)
	}
	if c.Peek() != '\n' && !c.AtEOF() {
		*c = snap
		return 0, nil, nil, false
	}
	if c.Peek() == '\n' {
		c.Advance()
	}
	return initSp, dashLens, totals, true
}

// columnIndices turns a dash rule's per-column totals into the cumulative
// rune offsets (offset by initSp) splitByIndices expects.
func columnIndices(initSp int, totals []int) []int {
	indices := make([]int, len(totals))
	cum := initSp
	for i, t := range totals {
		cum += t
		indices[i] = cum
	}
	return indices
}

func dashLenAt(dashLens []int, i int) int {
	if i >= 0 && i < len(dashLens) {
		return dashLens[i]
	}
	return 0
}

// computeWidths derives each column's fractional width from the span between
// successive break indices, normalized against max(total content width,
// state Columns) — spec §4.F.
func computeWidths(indices []int, columns int) []float64 {
	widths := make([]float64, len(indices))
	lengths := make([]int, len(indices))
	prev, total := 0, 0
	for i, idx := range indices {
		lengths[i] = idx - prev
		prev = idx
		total += lengths[i]
	}
	denom := total
	if columns > denom {
		denom = columns
	}
	if denom == 0 {
		denom = 1
	}
	for i, l := range lengths {
		widths[i] = float64(l) / float64(denom)
	}
	return widths
}

// inferAlignment implements spec §4.F's alignment-inference table: L is
// whether str's column slice opens on whitespace, R is whether the content
// is shorter than the column's dash run or ends in whitespace at that
// boundary. (T,F) -> Right, (F,T) -> Left, (T,T) -> Center, (F,F) -> Default.
//
// This is the one place SPEC_FULL.md's pseudocode under-specifies an exact
// byte offset (whether "str" includes a column's trailing inter-column gap,
// and whether dash_run_len means the bare dash count or the dash count plus
// gap); see DESIGN.md for the reading adopted here.
func inferAlignment(str string, dashLen int) ast.Alignment {
	if str == "" {
		return ast.AlignDefault
	}
	runes := []rune(str)
	left := runes[0] == ' ' || runes[0] == '\t'
	right := len(runes) < dashLen
	if !right && dashLen-1 >= 0 && dashLen-1 < len(runes) {
		r := runes[dashLen-1]
		right = r == ' ' || r == '\t'
	}
	switch {
	case left && right:
		return ast.AlignCenter
	case left && !right:
		return ast.AlignRight
	case !left && right:
		return ast.AlignLeft
	default:
		return ast.AlignDefault
	}
}

func cellOf(state State, raw string) []ast.Block {
	return []ast.Block{ast.Plain{Inlines: reenterInlines(state, strings.TrimSpace(raw))}}
}

// simpleTable: a single header line, a dash rule establishing column
// boundaries, one line per data row, trailing blank line(s), and an
// optional "Table: caption" line.
func simpleTable(c *Cursor) (ast.Block, bool) {
	snap := *c
	headerLine, ok := anyLine(c)
	if !ok || strings.TrimSpace(headerLine) == "" {
		*c = snap
		return nil, false
	}
	if c.Peek() != '\n' {
		*c = snap
		return nil, false
	}
	c.Advance()
	initSp, dashLens, totals, ok := dashRule(c)
	if !ok {
		*c = snap
		return nil, false
	}
	indices := columnIndices(initSp, totals)
	// The last column runs to the end of the line.
	cellBreaks := indices[:len(indices)-1]
	headerCellsRaw := splitByIndices(headerLine, cellBreaks)
	headers := make([][]ast.Block, len(headerCellsRaw))
	aligns := make([]ast.Alignment, len(headerCellsRaw))
	for i, raw := range headerCellsRaw {
		aligns[i] = inferAlignment(raw, dashLenAt(dashLens, i))
		headers[i] = cellOf(c.State, raw)
	}
	var rows [][][]ast.Block
	for {
		if peekBlank(c) || c.AtEOF() {
			break
		}
		line, _ := anyLine(c)
		cellsRaw := splitByIndices(line, cellBreaks)
		row := make([][]ast.Block, len(cellsRaw))
		for i, raw := range cellsRaw {
			row[i] = cellOf(c.State, raw)
		}
		rows = append(rows, row)
		if c.Peek() == '\n' {
			c.Advance()
		} else {
			break
		}
	}
	blanklines(c)
	caption := optionalCaption(c)
	widths := computeWidths(indices, c.State.Columns)
	return ast.Table{Caption: caption, Aligns: aligns, Widths: widths, Headers: headers, Rows: rows}, true
}

// multilineTable: dash rule, one or more header lines, dash rule, then body
// rows (each possibly spanning several lines, separated from the next by a
// blank line), a closing dash rule, and an optional caption.
func multilineTable(c *Cursor) (ast.Block, bool) {
	snap := *c
	initSp, dashLens, totals, ok := dashRule(c)
	if !ok {
		*c = snap
		return nil, false
	}
	indices := columnIndices(initSp, totals)
	numCols := len(indices)

	var headerLines []string
	for {
		if peekBlank(c) {
			*c = snap
			return nil, false
		}
		save := *c
		if _, _, _, ok := dashRule(c); ok {
			*c = save
			break
		}
		line, _ := anyLine(c)
		headerLines = append(headerLines, line)
		if c.Peek() == '\n' {
			c.Advance()
		} else {
			break
		}
	}
	if len(headerLines) == 0 {
		*c = snap
		return nil, false
	}
	if _, _, _, ok := dashRule(c); !ok {
		*c = snap
		return nil, false
	}

	headerCols := make([]string, numCols)
	shortestCols := make([]string, numCols)
	haveShortest := make([]bool, numCols)
	for _, line := range headerLines {
		cells := splitByIndices(line, indices)
		for i := 0; i < numCols && i < len(cells); i++ {
			trimmed := strings.TrimSpace(cells[i])
			if trimmed != "" {
				if headerCols[i] != "" {
					headerCols[i] += " "
				}
				headerCols[i] += trimmed
			}
			if !haveShortest[i] || len(cells[i]) < len(shortestCols[i]) {
				shortestCols[i] = cells[i]
				haveShortest[i] = true
			}
		}
	}
	headers := make([][]ast.Block, numCols)
	aligns := make([]ast.Alignment, numCols)
	for i := 0; i < numCols; i++ {
		aligns[i] = inferAlignment(shortestCols[i], dashLenAt(dashLens, i))
		headers[i] = []ast.Block{ast.Plain{Inlines: reenterInlines(c.State, headerCols[i])}}
	}

	var rows [][][]ast.Block
	for {
		if peekBlank(c) {
			break
		}
		save := *c
		if _, _, _, ok := dashRule(c); ok {
			*c = save
			break
		}
		var rowLines []string
		for {
			if peekBlank(c) {
				break
			}
			save2 := *c
			if _, _, _, ok := dashRule(c); ok {
				*c = save2
				break
			}
			line, _ := anyLine(c)
			rowLines = append(rowLines, line)
			if c.Peek() == '\n' {
				c.Advance()
			} else {
				break
			}
		}
		if len(rowLines) == 0 {
			break
		}
		rowCols := make([]string, numCols)
		for _, line := range rowLines {
			cells := splitByIndices(line, indices)
			for i := 0; i < numCols && i < len(cells); i++ {
				trimmed := strings.TrimSpace(cells[i])
				if trimmed == "" {
					continue
				}
				if rowCols[i] != "" {
					rowCols[i] += " "
				}
				rowCols[i] += trimmed
			}
		}
		row := make([][]ast.Block, numCols)
		for i := 0; i < numCols; i++ {
			row[i] = []ast.Block{ast.Plain{Inlines: reenterInlines(c.State, rowCols[i])}}
		}
		rows = append(rows, row)
		blanklines(c)
	}
	if _, _, _, ok := dashRule(c); !ok {
		*c = snap
		return nil, false
	}
	blanklines(c)
	caption := optionalCaption(c)
	widths := computeWidths(indices, c.State.Columns)
	return ast.Table{Caption: caption, Aligns: aligns, Widths: widths, Headers: headers, Rows: rows}, true
}

// optionalCaption recognizes a trailing "Table: <inlines>" line.
func optionalCaption(c *Cursor) []ast.Inline {
	save := *c
	if !strings.HasPrefix(c.Rest(), "Table:") {
		return nil
	}
	for range []rune("Table:") {
		c.Advance()
	}
	skipInlineSpace(c)
	line, _ := anyLine(c)
	if strings.TrimSpace(line) == "" {
		*c = save
		return nil
	}
	if c.Peek() == '\n' {
		c.Advance()
	}
	blanklines(c)
	return reenterInlines(c.State, line)
}
