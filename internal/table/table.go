// Package table renders simple ASCII tables with per-column alignment.
// Cell contents may contain ANSI color codes; widths are computed on the
// visible text.
package table

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Alignment controls how a cell is padded within its column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

func stripAnsi(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// Table accumulates rows and renders them to a writer.
type Table struct {
	writer    io.Writer
	header    []string
	headerAln []Alignment
	columnAln []Alignment
	rows      [][]string
}

// NewTable creates a table that renders to the given writer.
func NewTable(writer io.Writer) *Table {
	return &Table{writer: writer}
}

// WithHeader sets the header row.
func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

// WithHeaderAlignment sets per-column alignment for the header row.
func (t *Table) WithHeaderAlignment(aln []Alignment) *Table {
	t.headerAln = aln
	return t
}

// WithColumnAlignment sets per-column alignment for the body rows.
func (t *Table) WithColumnAlignment(aln []Alignment) *Table {
	t.columnAln = aln
	return t
}

// Append adds one row to the table body.
func (t *Table) Append(row []string) *Table {
	t.rows = append(t.rows, row)
	return t
}

// WithRows replaces the table body.
func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = rows
	return t
}

// Render writes the table. Column widths fit the widest visible cell.
func (t *Table) Render() {
	columns := len(t.header)
	for _, row := range t.rows {
		if len(row) > columns {
			columns = len(row)
		}
	}
	if columns == 0 {
		return
	}

	widths := make([]int, columns)
	measure := func(row []string) {
		for i, cell := range row {
			if w := len(stripAnsi(cell)); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.header)
	for _, row := range t.rows {
		measure(row)
	}

	separator := t.separator(widths)
	fmt.Fprintln(t.writer, separator)
	if len(t.header) > 0 {
		fmt.Fprintln(t.writer, t.formatRow(t.header, widths, t.headerAln))
		fmt.Fprintln(t.writer, separator)
	}
	for _, row := range t.rows {
		fmt.Fprintln(t.writer, t.formatRow(row, widths, t.columnAln))
	}
	fmt.Fprintln(t.writer, separator)
}

func (t *Table) separator(widths []int) string {
	var sb strings.Builder
	for _, w := range widths {
		sb.WriteString("+")
		sb.WriteString(strings.Repeat("-", w+2))
	}
	sb.WriteString("+")
	return sb.String()
}

func (t *Table) formatRow(row []string, widths []int, aln []Alignment) string {
	var sb strings.Builder
	for i, w := range widths {
		var cell string
		if i < len(row) {
			cell = row[i]
		}
		a := AlignLeft
		if i < len(aln) {
			a = aln[i]
		}
		sb.WriteString("| ")
		sb.WriteString(pad(cell, w, a))
		sb.WriteString(" ")
	}
	sb.WriteString("|")
	return sb.String()
}

func pad(cell string, width int, aln Alignment) string {
	gap := width - len(stripAnsi(cell))
	if gap <= 0 {
		return cell
	}
	switch aln {
	case AlignRight:
		return strings.Repeat(" ", gap) + cell
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + cell + strings.Repeat(" ", gap-left)
	}
	return cell + strings.Repeat(" ", gap)
}
