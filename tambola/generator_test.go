package tambola

import (
	"encoding/json"
	"sync"
	"testing"
)

// stepSource returns start, start+step, start+2*step, ... reduced modulo n.
type stepSource struct {
	next int
	step int
}

func (s *stepSource) IntN(n int) int {
	v := s.next % n
	s.next += s.step
	return v
}

func TestGenerateProperties(t *testing.T) {
	g := NewSeededGenerator(42)

	for i := 0; i < 500; i++ {
		ticket := g.Generate()

		if err := Validate(ticket); err != nil {
			t.Fatalf("ticket %d invalid: %v\n%v", i, err, ticket)
		}

		for row := 0; row < Rows; row++ {
			if n := ticket.RowCount(row); n != NumbersPerRow {
				t.Errorf("Expected %d numbers in row %d, got %d", NumbersPerRow, row, n)
			}
		}

		seen := map[int]bool{}
		for _, n := range ticket.Numbers() {
			if seen[n] {
				t.Errorf("Number %d appears twice in %v", n, ticket)
			}
			seen[n] = true
		}
		if len(seen) != Rows*NumbersPerRow {
			t.Errorf("Expected %d numbers, got %d", Rows*NumbersPerRow, len(seen))
		}
	}
}

func TestGenerateColumnRanges(t *testing.T) {
	g := NewSeededGenerator(7)

	for i := 0; i < 200; i++ {
		ticket := g.Generate()
		for col := 0; col < Columns; col++ {
			lo, hi := ColumnRange(col)
			for _, n := range ticket.Column(col) {
				if n < lo || n > hi {
					t.Fatalf("Number %d outside column %d range [%d,%d]", n, col, lo, hi)
				}
			}
		}
	}
}

func TestGenerateGolden(t *testing.T) {
	g := NewGenerator(&stepSource{next: 3, step: 7})

	expected := Ticket{
		{0, 0, 26, 0, 41, 0, 64, 71, 84},
		{6, 0, 28, 34, 0, 0, 66, 0, 87},
		{0, 0, 0, 36, 44, 0, 68, 72, 89},
	}

	got := g.Generate()
	if got != expected {
		t.Errorf("Expected\n%v\ngot\n%v", expected, got)
	}
}

func TestGenerateUnsortedColumnsGolden(t *testing.T) {
	g := NewGenerator(&stepSource{next: 3, step: 7}, WithUnsortedColumns())

	expected := Ticket{
		{0, 0, 26, 0, 41, 0, 64, 71, 84},
		{6, 0, 28, 36, 0, 0, 68, 0, 89},
		{0, 0, 0, 34, 44, 0, 66, 72, 87},
	}

	got := g.Generate()
	if got != expected {
		t.Errorf("Expected\n%v\ngot\n%v", expected, got)
	}
	if err := Validate(got); err == nil {
		t.Error("Expected unsorted ticket to fail ordered validation")
	}
	if err := validate(got, false); err != nil {
		t.Errorf("Expected unsorted ticket to pass layout validation, got %v", err)
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	a := NewSeededGenerator(2024)
	b := NewSeededGenerator(2024)

	for i := 0; i < 20; i++ {
		ta, tb := a.Generate(), b.Generate()
		if ta != tb {
			t.Fatalf("Expected identical tickets for identical seeds, got\n%v\n%v", ta, tb)
		}
	}
}

func TestGenerateConcurrent(t *testing.T) {
	g := NewGenerator(nil)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := Validate(g.Generate()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestBalanceRowRemoves(t *testing.T) {
	ticket := Ticket{{3, 12, 25, 31, 45, 51, 0, 0, 85}}

	balanceRow(&stepSource{step: 1}, &ticket, 0)

	expected := [Columns]int{0, 12, 0, 31, 45, 51, 0, 0, 85}
	if ticket[0] != expected {
		t.Errorf("Expected %v, got %v", expected, ticket[0])
	}
}

func TestBalanceRowAdds(t *testing.T) {
	ticket := Ticket{
		{3, 0, 0, 0, 45, 0, 0, 0, 85},
		{0, 11, 0, 0, 0, 0, 0, 0, 0},
		{0, 19, 0, 0, 0, 0, 0, 0, 0},
	}

	balanceRow(&stepSource{step: 1}, &ticket, 0)

	expected := [Columns]int{3, 14, 0, 34, 45, 0, 0, 0, 85}
	if ticket[0] != expected {
		t.Errorf("Expected %v, got %v", expected, ticket[0])
	}
}

func TestBalanceRowAddsNeverReusesColumnNumber(t *testing.T) {
	g := NewSeededGenerator(99)

	for i := 0; i < 200; i++ {
		ticket := Ticket{
			{0, 0, 0, 0, 0, 0, 0, 0, 0},
			{1, 10 + 1, 21, 31, 41, 51, 61, 71, 80},
			{9, 10 + 9, 29, 39, 49, 59, 69, 79, 90},
		}
		balanceRow(g.src, &ticket, 0)

		if n := ticket.RowCount(0); n != NumbersPerRow {
			t.Fatalf("Expected %d numbers, got %d", NumbersPerRow, n)
		}
		for col := 0; col < Columns; col++ {
			v := ticket[0][col]
			if v != Blank && (v == ticket[1][col] || v == ticket[2][col]) {
				t.Fatalf("Number %d reused in column %d", v, col)
			}
		}
	}
}

func TestBalanceRowKeepsFullRow(t *testing.T) {
	ticket := Ticket{{1, 0, 22, 0, 44, 0, 66, 0, 88}}
	before := ticket

	balanceRow(&stepSource{step: 1}, &ticket, 0)

	if ticket != before {
		t.Errorf("Expected row untouched, got %v", ticket[0])
	}
}

func TestSortColumns(t *testing.T) {
	ticket := Ticket{
		{9, 0, 0, 0, 0, 0, 0, 0, 90},
		{0, 0, 0, 0, 0, 0, 0, 0, 0},
		{1, 0, 0, 0, 0, 0, 0, 0, 80},
	}

	sortColumns(&ticket)

	if ticket[0][0] != 1 || ticket[2][0] != 9 || ticket[1][0] != Blank {
		t.Errorf("Expected column 0 sorted around blank, got %v", ticket.Column(0))
	}
	if ticket[0][8] != 80 || ticket[2][8] != 90 {
		t.Errorf("Expected column 8 sorted, got %v", ticket.Column(8))
	}
}

func TestSampleDistinct(t *testing.T) {
	pool := span(10, 19)
	got := sample(&stepSource{next: 5, step: 3}, pool, 10)

	seen := map[int]bool{}
	for _, v := range got {
		if seen[v] {
			t.Fatalf("Expected distinct values, got %v", got)
		}
		seen[v] = true
	}
	if pool[0] != 10 || pool[9] != 19 {
		t.Errorf("Expected pool untouched, got %v", pool)
	}
}

func TestColumnRange(t *testing.T) {
	cases := []struct {
		col    int
		lo, hi int
	}{
		{0, 1, 9},
		{1, 11, 19},
		{4, 41, 49},
		{7, 71, 79},
		{8, 80, 90},
	}

	for _, c := range cases {
		lo, hi := ColumnRange(c.col)
		if lo != c.lo || hi != c.hi {
			t.Errorf("Column %d: expected [%d,%d], got [%d,%d]", c.col, c.lo, c.hi, lo, hi)
		}
	}
}

func TestTicketJSONRoundTrip(t *testing.T) {
	ticket := NewSeededGenerator(5).Generate()

	b, err := json.Marshal(ticket)
	if err != nil {
		t.Fatalf("Failed to marshal ticket: %v", err)
	}

	var decoded Ticket
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal ticket: %v", err)
	}
	if decoded != ticket {
		t.Errorf("Expected %v, got %v", ticket, decoded)
	}
}

func TestTicketJSONRejectsBadShape(t *testing.T) {
	inputs := []string{
		`[[1,2,3]]`,
		`[[0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0]]`,
		`[[0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0]]`,
		`{"rows":3}`,
	}

	for _, in := range inputs {
		var ticket Ticket
		if err := json.Unmarshal([]byte(in), &ticket); err == nil {
			t.Errorf("Expected error decoding %s", in)
		}
	}
}

func TestTicketScanValue(t *testing.T) {
	ticket := NewSeededGenerator(11).Generate()

	v, err := ticket.Value()
	if err != nil {
		t.Fatalf("Failed to get value: %v", err)
	}

	var fromString, fromBytes Ticket
	if err := fromString.Scan(v); err != nil {
		t.Fatalf("Failed to scan string: %v", err)
	}
	if err := fromBytes.Scan([]byte(v.(string))); err != nil {
		t.Fatalf("Failed to scan bytes: %v", err)
	}
	if fromString != ticket || fromBytes != ticket {
		t.Errorf("Expected %v, got %v and %v", ticket, fromString, fromBytes)
	}

	var empty Ticket
	if err := empty.Scan(nil); err == nil {
		t.Error("Expected error scanning nil")
	}
	if err := empty.Scan(42); err == nil {
		t.Error("Expected error scanning int")
	}
}
