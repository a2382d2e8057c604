package tambola

import (
	"math/rand/v2"
	"sort"
	"sync"
)

// Source is the randomness a Generator draws from. *rand.Rand satisfies it.
type Source interface {
	// IntN returns a uniform value in [0, n).
	IntN(n int) int
}

type Option func(*Generator)

// WithUnsortedColumns skips the final column sort, leaving numbers in the rows
// the seeding phase put them in.
func WithUnsortedColumns() Option {
	return func(g *Generator) {
		g.unsorted = true
	}
}

// Generator issues tickets. It is safe for concurrent use.
type Generator struct {
	mu       sync.Mutex
	src      Source
	unsorted bool
}

// NewGenerator returns a Generator drawing from src, or from a randomly seeded
// PCG source when src is nil.
func NewGenerator(src Source, opts ...Option) *Generator {
	if src == nil {
		src = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	g := &Generator{src: src}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewSeededGenerator returns a Generator whose output is fully determined by seed.
func NewSeededGenerator(seed uint64, opts ...Option) *Generator {
	return NewGenerator(rand.New(rand.NewPCG(seed, seed)), opts...)
}

// Generate returns a new ticket. It never fails.
func (g *Generator) Generate() Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()

	var t Ticket
	for col := 0; col < Columns; col++ {
		seedColumn(g.src, &t, col)
	}
	for row := 0; row < Rows; row++ {
		balanceRow(g.src, &t, row)
	}
	if !g.unsorted {
		sortColumns(&t)
	}
	return t
}

// seedColumn places three sorted numbers from the column range into a random
// permutation of the rows.
func seedColumn(src Source, t *Ticket, col int) {
	lo, hi := ColumnRange(col)
	nums := sample(src, span(lo, hi), Rows)
	sort.Ints(nums)

	rows := sample(src, span(0, Rows-1), Rows)
	for i, row := range rows {
		t[row][col] = nums[i]
	}
}

// balanceRow blanks or fills random cells until the row holds exactly
// NumbersPerRow numbers.
func balanceRow(src Source, t *Ticket, row int) {
	var filled, blank []int
	for col := 0; col < Columns; col++ {
		if t[row][col] == Blank {
			blank = append(blank, col)
		} else {
			filled = append(filled, col)
		}
	}

	switch {
	case len(filled) > NumbersPerRow:
		for _, col := range sample(src, filled, len(filled)-NumbersPerRow) {
			t[row][col] = Blank
		}
	case len(filled) < NumbersPerRow:
		for _, col := range sample(src, blank, NumbersPerRow-len(filled)) {
			t[row][col] = unusedNumber(src, t, col)
		}
	}
}

// unusedNumber draws a number of the column range not yet present in the column.
// A column holds at most two other numbers, so the candidate set is never empty.
func unusedNumber(src Source, t *Ticket, col int) int {
	lo, hi := ColumnRange(col)
	used := t.Column(col)

	candidates := make([]int, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		if !contains(used, n) {
			candidates = append(candidates, n)
		}
	}
	return candidates[src.IntN(len(candidates))]
}

// sortColumns rewrites every column so its numbers ascend top to bottom,
// keeping blank cells where they are.
func sortColumns(t *Ticket) {
	for col := 0; col < Columns; col++ {
		nums := t.Column(col)
		sort.Ints(nums)

		i := 0
		for row := 0; row < Rows; row++ {
			if t[row][col] != Blank {
				t[row][col] = nums[i]
				i++
			}
		}
	}
}

// sample draws k distinct elements of pool with a partial Fisher-Yates shuffle.
// pool is left untouched.
func sample(src Source, pool []int, k int) []int {
	p := append([]int(nil), pool...)
	for i := 0; i < k; i++ {
		j := i + src.IntN(len(p)-i)
		p[i], p[j] = p[j], p[i]
	}
	return p[:k]
}

func span(lo, hi int) []int {
	out := make([]int, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		out = append(out, n)
	}
	return out
}

func contains(list []int, n int) bool {
	for _, v := range list {
		if v == n {
			return true
		}
	}
	return false
}
