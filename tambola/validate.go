package tambola

import (
	"github.com/pkg/errors"
)

// Validate reports the first rule the ticket breaks, or nil.
func Validate(t Ticket) error {
	return validate(t, true)
}

func validate(t Ticket, ordered bool) error {
	seen := make(map[int]bool, Rows*NumbersPerRow)

	for row := 0; row < Rows; row++ {
		if n := t.RowCount(row); n != NumbersPerRow {
			return errors.Errorf("row %d has %d numbers, expected %d", row, n, NumbersPerRow)
		}
	}

	for col := 0; col < Columns; col++ {
		lo, hi := ColumnRange(col)
		prev := 0
		for row := 0; row < Rows; row++ {
			v := t[row][col]
			if v == Blank {
				continue
			}
			if v < lo || v > hi {
				return errors.Errorf("number %d in column %d is outside [%d,%d]", v, col, lo, hi)
			}
			if seen[v] {
				return errors.Errorf("number %d appears more than once", v)
			}
			seen[v] = true
			if ordered && v <= prev {
				return errors.Errorf("column %d is not ascending at row %d", col, row)
			}
			prev = v
		}
	}

	return nil
}
