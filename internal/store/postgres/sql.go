package postgres

import (
	"strconv"
	"strings"
)

// multiRowValues builds the placeholder block for a multi-row VALUES clause:
// rowCount rows of colCount columns, numbered from startIndex. For (2, 3, 1)
// it yields "($1,$2,$3),($4,$5,$6)". Batch writes use this instead of one
// statement per row.
func multiRowValues(rowCount, colCount, startIndex int) string {
	var b strings.Builder
	n := startIndex
	for row := 0; row < rowCount; row++ {
		if row > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('(')
		for col := 0; col < colCount; col++ {
			if col > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}
