package tambola

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const (
	Rows    = 3
	Columns = 9

	// NumbersPerRow is the count of marked cells every row must carry.
	NumbersPerRow = 5
)

// Blank marks an empty cell.
const Blank = 0

// Ticket is a 3x9 Tambola grid in row-major order. A zero cell is blank.
type Ticket [Rows][Columns]int

// ColumnRange returns the inclusive bounds of the numbers allowed in column col.
func ColumnRange(col int) (lo, hi int) {
	switch col {
	case 0:
		return 1, 9
	case Columns - 1:
		return 80, 90
	default:
		return col*10 + 1, col*10 + 9
	}
}

func (t Ticket) RowCount(row int) int {
	var n int
	for _, v := range t[row] {
		if v != Blank {
			n++
		}
	}
	return n
}

// Column returns the non-blank numbers of col from top to bottom.
func (t Ticket) Column(col int) []int {
	var out []int
	for row := 0; row < Rows; row++ {
		if t[row][col] != Blank {
			out = append(out, t[row][col])
		}
	}
	return out
}

// Numbers returns every non-blank number of the ticket in row-major order.
func (t Ticket) Numbers() []int {
	out := make([]int, 0, Rows*NumbersPerRow)
	for row := 0; row < Rows; row++ {
		for _, v := range t[row] {
			if v != Blank {
				out = append(out, v)
			}
		}
	}
	return out
}

// String renders the grid with blanks as dots, one row per line.
func (t Ticket) String() string {
	var b strings.Builder
	for row := 0; row < Rows; row++ {
		for col, v := range t[row] {
			if col > 0 {
				b.WriteByte(' ')
			}
			if v == Blank {
				b.WriteString(" .")
				continue
			}
			fmt.Fprintf(&b, "%2d", v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (t *Ticket) UnmarshalJSON(b []byte) error {
	var rows [][]int
	if err := json.Unmarshal(b, &rows); err != nil {
		return errors.Wrap(err, "failed decoding ticket")
	}
	if len(rows) != Rows {
		return errors.Errorf("expected %d rows and got %d", Rows, len(rows))
	}

	var out Ticket
	for r, row := range rows {
		if len(row) != Columns {
			return errors.Errorf("expected %d cells in row %d and got %d", Columns, r, len(row))
		}
		copy(out[r][:], row)
	}
	*t = out
	return nil
}

// Value stores the ticket as its JSON text.
func (t Ticket) Value() (driver.Value, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *Ticket) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return t.UnmarshalJSON([]byte(v))
	case []byte:
		return t.UnmarshalJSON(v)
	case nil:
		return errors.New("ticket data is null")
	default:
		return errors.Errorf("cannot scan %T into ticket", src)
	}
}
