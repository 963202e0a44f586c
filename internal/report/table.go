package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

type align int

const (
	alignLeft align = iota
	alignRight
)

// table lays out rows in columns separated by two spaces. Trailing blanks
// are trimmed from every line.
type table struct {
	aligns []align
	rows   [][]string
}

func newTable(aligns ...align) *table {
	return &table{aligns: aligns}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) write(w io.Writer) error {
	widths := make([]int, len(t.aligns))
	for _, row := range t.rows {
		for i, c := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(c))
		}
	}

	var b strings.Builder
	for _, row := range t.rows {
		b.Reset()
		for i, c := range row {
			if i > 0 {
				b.WriteString("  ")
			}
			pad := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c))
			if t.aligns[i] == alignRight {
				b.WriteString(pad + c)
			} else {
				b.WriteString(c + pad)
			}
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}
