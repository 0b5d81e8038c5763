// Package sparse implements the compressed-column matrix, the Markowitz
// fill-reducing ordering and the left-looking LU factorization used by the
// MNA engine. The nonzero pattern of a Matrix is fixed at construction;
// only the stored values change between factorizations.
package sparse

import (
	"fmt"
	"sort"
)

// Position is a structural (row, col) slot a device will write to.
type Position struct {
	Row int
	Col int
}

// Entry is a Position together with an assembled value.
type Entry struct {
	Row int
	Col int
	Val float64
}

// Matrix is a square sparse matrix in compressed sparse column form.
type Matrix struct {
	n      int
	data   []float64
	rowIdx []int
	colPtr []int
}

// NewMatrix builds an n x n CSC matrix from a list of structural positions.
// Duplicate positions are coalesced into a single slot. Values start at zero.
func NewMatrix(n int, positions []Position) *Matrix {
	sorted := make([]Position, len(positions))
	copy(sorted, positions)
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a].Col != sorted[b].Col {
			return sorted[a].Col < sorted[b].Col
		}
		return sorted[a].Row < sorted[b].Row
	})

	m := &Matrix{
		n:      n,
		colPtr: make([]int, n+1),
	}

	lastCol, lastRow := -1, -1
	for _, p := range sorted {
		if p.Row < 0 || p.Row >= n || p.Col < 0 || p.Col >= n {
			panic(fmt.Sprintf("sparse: position (%d,%d) outside %dx%d matrix", p.Row, p.Col, n, n))
		}
		if p.Col == lastCol && p.Row == lastRow {
			continue // coalesce duplicate
		}
		m.data = append(m.data, 0)
		m.rowIdx = append(m.rowIdx, p.Row)
		for c := lastCol + 1; c <= p.Col; c++ {
			m.colPtr[c] = len(m.data) - 1
		}
		lastCol, lastRow = p.Col, p.Row
	}
	for c := lastCol + 1; c <= n; c++ {
		m.colPtr[c] = len(m.data)
	}

	return m
}

// NewMatrixFromEntries builds the matrix and sums the entry values into it.
// Duplicates at the same position accumulate.
func NewMatrixFromEntries(n int, entries []Entry) *Matrix {
	positions := make([]Position, len(entries))
	for i, e := range entries {
		positions[i] = Position{e.Row, e.Col}
	}
	m := NewMatrix(n, positions)
	for _, e := range entries {
		m.Add(e.Row, e.Col, e.Val)
	}
	return m
}

func (m *Matrix) Size() int { return m.n }

func (m *Matrix) NNZ() int { return len(m.data) }

// ZeroValues clears every stored value without touching the pattern.
func (m *Matrix) ZeroValues() {
	for i := range m.data {
		m.data[i] = 0
	}
}

// find returns the storage index of (row, col), or -1 when the position is
// not part of the pattern. Binary search within the column.
func (m *Matrix) find(row, col int) int {
	lo, hi := m.colPtr[col], m.colPtr[col+1]
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case m.rowIdx[mid] < row:
			lo = mid + 1
		case m.rowIdx[mid] > row:
			hi = mid
		default:
			return mid
		}
	}
	return -1
}

// Add accumulates v at (row, col). Writing outside the fixed pattern is a
// programming error in the caller's structural entries and panics.
func (m *Matrix) Add(row, col int, v float64) {
	k := m.find(row, col)
	if k < 0 {
		panic(fmt.Sprintf("sparse: add at (%d,%d) outside the matrix pattern", row, col))
	}
	m.data[k] += v
}

// At returns the value at (row, col), zero when outside the pattern.
func (m *Matrix) At(row, col int) float64 {
	k := m.find(row, col)
	if k < 0 {
		return 0
	}
	return m.data[k]
}

// ColRange returns the storage index range [lo, hi) of column col, for use
// with RowIndex and Value.
func (m *Matrix) ColRange(col int) (lo, hi int) {
	return m.colPtr[col], m.colPtr[col+1]
}

func (m *Matrix) RowIndex(k int) int { return m.rowIdx[k] }

func (m *Matrix) Value(k int) float64 { return m.data[k] }

// Permuted returns a new matrix B with B(ri[i], ci[j]) = A(i, j), where
// ri and ci are the inverses of the given elimination orders: order[k] is
// the original index placed at position k.
func (m *Matrix) Permuted(rowOrder, colOrder []int) *Matrix {
	ri := inversePermutation(rowOrder)
	ci := inversePermutation(colOrder)

	entries := make([]Entry, 0, m.NNZ())
	for j := 0; j < m.n; j++ {
		lo, hi := m.ColRange(j)
		for k := lo; k < hi; k++ {
			entries = append(entries, Entry{ri[m.rowIdx[k]], ci[j], m.data[k]})
		}
	}
	return NewMatrixFromEntries(m.n, entries)
}

// MulVec computes y = A*x. Used by residual checks.
func (m *Matrix) MulVec(x []float64) []float64 {
	y := make([]float64, m.n)
	for j := 0; j < m.n; j++ {
		xj := x[j]
		if xj == 0 {
			continue
		}
		lo, hi := m.ColRange(j)
		for k := lo; k < hi; k++ {
			y[m.rowIdx[k]] += m.data[k] * xj
		}
	}
	return y
}

func inversePermutation(perm []int) []int {
	inv := make([]int, len(perm))
	for pos, orig := range perm {
		inv[orig] = pos
	}
	return inv
}
