package executor

import (
	"strings"
	"unicode/utf8"
)

// table renders rows as a box-drawn table. Column widths count runes so
// parameter values with non-ASCII text stay aligned.
type table struct {
	headers []string
	rows    [][]string
	widths  []int
}

func newTable(headers ...string) *table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	return &table{headers: headers, widths: widths}
}

// addRow appends a row, padding or truncating it to the header count.
func (t *table) addRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	for i, cell := range row {
		if n := utf8.RuneCountInString(cell); n > t.widths[i] {
			t.widths[i] = n
		}
	}
	t.rows = append(t.rows, row)
}

func (t *table) String() string {
	var sb strings.Builder
	t.border(&sb, "┌", "┬", "┐")
	t.line(&sb, t.headers)
	t.border(&sb, "├", "┼", "┤")
	for _, row := range t.rows {
		t.line(&sb, row)
	}
	t.border(&sb, "└", "┴", "┘")
	return sb.String()
}

func (t *table) line(sb *strings.Builder, cells []string) {
	sb.WriteString("│")
	for i, cell := range cells {
		sb.WriteByte(' ')
		sb.WriteString(cell)
		sb.WriteString(strings.Repeat(" ", t.widths[i]-utf8.RuneCountInString(cell)+1))
		sb.WriteString("│")
	}
	sb.WriteByte('\n')
}

func (t *table) border(sb *strings.Builder, left, middle, right string) {
	sb.WriteString(left)
	for i, w := range t.widths {
		sb.WriteString(strings.Repeat("─", w+2))
		if i < len(t.widths)-1 {
			sb.WriteString(middle)
		}
	}
	sb.WriteString(right)
	sb.WriteByte('\n')
}
