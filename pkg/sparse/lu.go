package sparse

import (
	"errors"
	"fmt"
	"math"
)

// ErrSingular reports a numerically singular matrix during factorization.
var ErrSingular = errors.New("matrix is singular")

// pivotEps is the relative tolerance under which a diagonal entry counts
// as zero during elimination.
const pivotEps = 1e-12

// LU holds the factors A' = L*U of the permuted matrix, where A' is the
// assembled matrix reordered by the elimination orders handed to Factor.
// L is unit lower triangular (diagonal implicit), U upper triangular.
type LU struct {
	n        int
	rowOrder []int
	colOrder []int
	rowPos   []int // rowPos[original row] = elimination position

	// factor storage, CSC, columns appended in elimination order
	lData   []float64
	lRowIdx []int
	lColPtr []int
	uData   []float64
	uRowIdx []int
	uColPtr []int
	uDiag   []float64

	work []float64
	y    []float64
}

// Factor computes the LU decomposition of a under the given elimination
// orders. No pivoting happens here; the orders are expected to come from
// Order. A zero diagonal (relative to its column) yields ErrSingular.
func Factor(a *Matrix, rowOrder, colOrder []int) (*LU, error) {
	n := a.Size()
	if len(rowOrder) != n || len(colOrder) != n {
		return nil, fmt.Errorf("factor: permutation length %d/%d does not match matrix size %d", len(rowOrder), len(colOrder), n)
	}

	lu := &LU{
		n:        n,
		rowOrder: append([]int(nil), rowOrder...),
		colOrder: append([]int(nil), colOrder...),
		rowPos:   inversePermutation(rowOrder),
		lColPtr:  make([]int, 1, n+1),
		uColPtr:  make([]int, 1, n+1),
		uDiag:    make([]float64, n),
		work:     make([]float64, n),
		y:        make([]float64, n),
	}

	work := lu.work

	for jp := 0; jp < n; jp++ {
		for i := range work {
			work[i] = 0
		}

		// scatter permuted column jp
		lo, hi := a.ColRange(lu.colOrder[jp])
		for k := lo; k < hi; k++ {
			work[lu.rowPos[a.RowIndex(k)]] = a.Value(k)
		}

		// left-looking update with every prior column
		for kp := 0; kp < jp; kp++ {
			ukj := work[kp]
			if ukj == 0 {
				continue
			}
			clo, chi := lu.lColPtr[kp], lu.lColPtr[kp+1]
			for k := clo; k < chi; k++ {
				work[lu.lRowIdx[k]] -= ukj * lu.lData[k]
			}
		}

		colNorm := 0.0
		for i := 0; i < n; i++ {
			if mag := math.Abs(work[i]); mag > colNorm {
				colNorm = mag
			}
		}

		ujj := work[jp]
		if ujj == 0 || math.Abs(ujj) <= pivotEps*colNorm {
			return nil, fmt.Errorf("zero pivot at elimination step %d: %w", jp, ErrSingular)
		}
		lu.uDiag[jp] = ujj

		for i := 0; i <= jp; i++ {
			if work[i] == 0 {
				continue
			}
			lu.uData = append(lu.uData, work[i])
			lu.uRowIdx = append(lu.uRowIdx, i)
		}
		lu.uColPtr = append(lu.uColPtr, len(lu.uData))

		for i := jp + 1; i < n; i++ {
			if work[i] == 0 {
				continue
			}
			lu.lData = append(lu.lData, work[i]/ujj)
			lu.lRowIdx = append(lu.lRowIdx, i)
		}
		lu.lColPtr = append(lu.lColPtr, len(lu.lData))
	}

	return lu, nil
}

// Solve solves A*x = b using the factors, permuting b in and the solution
// back out, so callers stay in the original (unpermuted) numbering.
func (lu *LU) Solve(b []float64) ([]float64, error) {
	if len(b) != lu.n {
		return nil, fmt.Errorf("solve: rhs length %d does not match matrix size %d", len(b), lu.n)
	}

	y := lu.y
	for k := 0; k < lu.n; k++ {
		y[k] = b[lu.rowOrder[k]]
	}

	// forward substitution, L*y' = b' (unit diagonal)
	for jp := 0; jp < lu.n; jp++ {
		yj := y[jp]
		if yj == 0 {
			continue
		}
		lo, hi := lu.lColPtr[jp], lu.lColPtr[jp+1]
		for k := lo; k < hi; k++ {
			y[lu.lRowIdx[k]] -= lu.lData[k] * yj
		}
	}

	// back substitution, U*z = y'
	for jp := lu.n - 1; jp >= 0; jp-- {
		z := y[jp] / lu.uDiag[jp]
		y[jp] = z
		if z == 0 {
			continue
		}
		lo, hi := lu.uColPtr[jp], lu.uColPtr[jp+1]
		for k := lo; k < hi; k++ {
			if i := lu.uRowIdx[k]; i < jp {
				y[i] -= lu.uData[k] * z
			}
		}
	}

	x := make([]float64, lu.n)
	for jp := 0; jp < lu.n; jp++ {
		x[lu.colOrder[jp]] = y[jp]
	}
	return x, nil
}

// Size returns the system dimension.
func (lu *LU) Size() int { return lu.n }
