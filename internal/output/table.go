package output

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table lays out text rows in aligned columns. Widths are measured with
// lipgloss, so cells may carry ANSI styling.
type Table struct {
	headers     []string
	rows        [][]string
	right       map[int]bool
	headerStyle *lipgloss.Style
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, right: map[int]bool{}}
}

// AddRow appends a row. Rows may have more or fewer cells than headers.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// AlignRight right-aligns the given zero-based columns.
func (t *Table) AlignRight(cols ...int) {
	for _, c := range cols {
		t.right[c] = true
	}
}

// SetHeaderStyle styles header cells.
func (t *Table) SetHeaderStyle(style lipgloss.Style) {
	t.headerStyle = &style
}

// Render writes the table to w. A table with no headers and no rows writes
// nothing.
func (t *Table) Render(w io.Writer) error {
	s := t.String()
	if s == "" {
		return nil
	}
	_, err := io.WriteString(w, s)
	return err
}

// String returns the rendered table.
func (t *Table) String() string {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return ""
	}

	widths := t.widths()
	var sb strings.Builder

	if len(t.headers) > 0 {
		header := t.headers
		if t.headerStyle != nil {
			header = make([]string, len(t.headers))
			for i, h := range t.headers {
				header[i] = t.headerStyle.Render(h)
			}
		}
		t.writeLine(&sb, header, widths)

		rule := make([]string, len(widths))
		for i, n := range widths {
			rule[i] = strings.Repeat("-", n)
		}
		t.writeLine(&sb, rule, widths)
	}

	for _, row := range t.rows {
		t.writeLine(&sb, row, widths)
	}
	return sb.String()
}

func (t *Table) widths() []int {
	cols := len(t.headers)
	for _, row := range t.rows {
		cols = max(cols, len(row))
	}

	widths := make([]int, cols)
	measure := func(cells []string) {
		for i, c := range cells {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}
	measure(t.headers)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

// writeLine pads each cell to its column and drops trailing blanks.
func (t *Table) writeLine(sb *strings.Builder, cells []string, widths []int) {
	var line strings.Builder
	for i, width := range widths {
		if i > 0 {
			line.WriteString("  ")
		}
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		pad := strings.Repeat(" ", width-lipgloss.Width(cell))
		if t.right[i] {
			line.WriteString(pad + cell)
		} else {
			line.WriteString(cell + pad)
		}
	}
	sb.WriteString(strings.TrimRight(line.String(), " "))
	sb.WriteByte('\n')
}
