package sparse

import (
	"math"
	"testing"
)

func TestNewMatrixCoalescesDuplicates(t *testing.T) {
	m := NewMatrix(3, []Position{
		{0, 0}, {1, 1}, {0, 0}, {2, 1}, {1, 1}, {0, 2},
	})

	if got, want := m.NNZ(), 4; got != want {
		t.Fatalf("NNZ = %d, want %d", got, want)
	}

	m.Add(0, 0, 1.5)
	m.Add(0, 0, 2.5)
	if got := m.At(0, 0); got != 4.0 {
		t.Errorf("At(0,0) = %g, want 4", got)
	}
	if got := m.At(2, 2); got != 0 {
		t.Errorf("At(2,2) = %g, want 0 (outside pattern)", got)
	}
}

func TestNewMatrixFromEntriesSumsDuplicates(t *testing.T) {
	m := NewMatrixFromEntries(2, []Entry{
		{0, 0, 1}, {0, 0, 2}, {1, 0, -3}, {1, 1, 4},
	})

	if got := m.At(0, 0); got != 3 {
		t.Errorf("At(0,0) = %g, want 3", got)
	}
	if got := m.At(1, 0); got != -3 {
		t.Errorf("At(1,0) = %g, want -3", got)
	}
}

func TestAddOutsidePatternPanics(t *testing.T) {
	m := NewMatrix(2, []Position{{0, 0}, {1, 1}})

	defer func() {
		if recover() == nil {
			t.Fatal("Add outside the pattern did not panic")
		}
	}()
	m.Add(0, 1, 1.0)
}

func TestZeroValuesKeepsPattern(t *testing.T) {
	m := NewMatrix(2, []Position{{0, 0}, {1, 0}, {1, 1}})
	m.Add(0, 0, 2)
	m.Add(1, 0, -1)

	m.ZeroValues()

	if m.NNZ() != 3 || m.At(0, 0) != 0 {
		t.Errorf("after ZeroValues: nnz=%d at(0,0)=%g, want 3 and 0", m.NNZ(), m.At(0, 0))
	}
	m.Add(1, 0, 5) // still inside the pattern
	if got := m.At(1, 0); got != 5 {
		t.Errorf("At(1,0) = %g, want 5", got)
	}
}

func TestColumnIteration(t *testing.T) {
	m := NewMatrixFromEntries(3, []Entry{
		{0, 1, 7}, {2, 1, 9}, {1, 0, 3},
	})

	lo, hi := m.ColRange(1)
	if hi-lo != 2 {
		t.Fatalf("column 1 has %d entries, want 2", hi-lo)
	}
	if m.RowIndex(lo) != 0 || m.Value(lo) != 7 {
		t.Errorf("first entry = (%d, %g), want (0, 7)", m.RowIndex(lo), m.Value(lo))
	}
	if m.RowIndex(lo+1) != 2 || m.Value(lo+1) != 9 {
		t.Errorf("second entry = (%d, %g), want (2, 9)", m.RowIndex(lo+1), m.Value(lo+1))
	}
	if lo, hi := m.ColRange(2); hi != lo {
		t.Errorf("column 2 should be empty")
	}
}

func TestPermutedRoundTrip(t *testing.T) {
	m := NewMatrixFromEntries(3, []Entry{
		{0, 0, 1}, {0, 1, 2}, {1, 1, 3}, {2, 0, 4}, {2, 2, 5},
	})

	rowOrder := []int{2, 0, 1}
	colOrder := []int{1, 2, 0}
	p := m.Permuted(rowOrder, colOrder)

	ri := inversePermutation(rowOrder)
	ci := inversePermutation(colOrder)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if got, want := p.At(ri[i], ci[j]), m.At(i, j); got != want {
				t.Errorf("permuted(%d,%d) = %g, want %g", ri[i], ci[j], got, want)
			}
		}
	}

	// permuting back with the inverse orders restores the original
	back := p.Permuted(ri, ci)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if got, want := back.At(i, j), m.At(i, j); got != want {
				t.Errorf("round trip (%d,%d) = %g, want %g", i, j, got, want)
			}
		}
	}
}

func TestMulVec(t *testing.T) {
	m := NewMatrixFromEntries(2, []Entry{
		{0, 0, 2}, {0, 1, 1}, {1, 1, -1},
	})
	y := m.MulVec([]float64{3, 4})
	if math.Abs(y[0]-10) > 1e-15 || math.Abs(y[1]+4) > 1e-15 {
		t.Errorf("MulVec = %v, want [10 -4]", y)
	}
}
