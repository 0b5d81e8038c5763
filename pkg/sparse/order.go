package sparse

import (
	"math"
	"sort"
)

// relThreshold is the fraction of the largest live entry in a column a
// pivot candidate must reach to be numerically acceptable.
const relThreshold = 1e-3

// Order computes a Markowitz fill-reducing elimination order for m.
// At each step it picks, over the still-live submatrix, the entry (i, j)
// minimising (rowcount(i)-1)*(colcount(j)-1), breaking ties by largest
// magnitude, subject to threshold pivoting within the column. The returned
// slices list the original row/column placed at each elimination step, so
// that m.Permuted(rowOrder, colOrder) factorizes without further pivoting.
//
// Ordering works on a scratch copy of the values; m is left untouched.
// Structurally deficient matrices still get a complete permutation back;
// the factorization reports them as singular.
func Order(m *Matrix) (rowOrder, colOrder []int) {
	n := m.Size()

	// scratch elimination state: values by row, pattern mirror by column
	rows := make([]map[int]float64, n)
	cols := make([]map[int]struct{}, n)
	for i := 0; i < n; i++ {
		rows[i] = make(map[int]float64)
		cols[i] = make(map[int]struct{})
	}
	for j := 0; j < n; j++ {
		lo, hi := m.ColRange(j)
		for k := lo; k < hi; k++ {
			i := m.RowIndex(k)
			rows[i][j] = m.Value(k)
			cols[j][i] = struct{}{}
		}
	}

	liveRow := make([]bool, n)
	liveCol := make([]bool, n)
	for i := 0; i < n; i++ {
		liveRow[i] = true
		liveCol[i] = true
	}

	rowOrder = make([]int, 0, n)
	colOrder = make([]int, 0, n)

	for step := 0; step < n; step++ {
		pi, pj, ok := searchPivot(rows, cols, liveRow, liveCol)
		if !ok {
			break
		}

		rowOrder = append(rowOrder, pi)
		colOrder = append(colOrder, pj)
		liveRow[pi] = false
		liveCol[pj] = false

		eliminate(rows, cols, liveRow, liveCol, pi, pj)
	}

	// Structural zeros can leave rows/columns unpicked; complete the
	// permutation deterministically so the factorization can diagnose them.
	rowOrder = appendRemaining(rowOrder, liveRow)
	colOrder = appendRemaining(colOrder, liveCol)

	return rowOrder, colOrder
}

func searchPivot(rows []map[int]float64, cols []map[int]struct{}, liveRow, liveCol []bool) (pi, pj int, ok bool) {
	n := len(rows)

	rowCount := make([]int, n)
	colCount := make([]int, n)
	colMax := make([]float64, n)
	for i := 0; i < n; i++ {
		if !liveRow[i] {
			continue
		}
		for j, v := range rows[i] {
			if !liveCol[j] {
				continue
			}
			rowCount[i]++
			colCount[j]++
			if mag := math.Abs(v); mag > colMax[j] {
				colMax[j] = mag
			}
		}
	}

	bestProduct := math.MaxInt
	bestMag := 0.0
	ok = false

	// columns are visited in ascending order so tie-breaking, and with it
	// the whole run, stays deterministic
	var js []int
	for i := 0; i < n; i++ {
		if !liveRow[i] {
			continue
		}
		js = js[:0]
		for j := range rows[i] {
			if liveCol[j] {
				js = append(js, j)
			}
		}
		sort.Ints(js)

		for _, j := range js {
			mag := math.Abs(rows[i][j])
			if mag == 0 || mag < relThreshold*colMax[j] {
				continue
			}
			product := (rowCount[i] - 1) * (colCount[j] - 1)
			if product < bestProduct || (product == bestProduct && mag > bestMag) {
				bestProduct = product
				bestMag = mag
				pi, pj = i, j
				ok = true
			}
		}
	}

	return pi, pj, ok
}

// eliminate performs one step of Gaussian elimination on the scratch state,
// so that later pivot searches see the fill-in the chosen pivot creates.
func eliminate(rows []map[int]float64, cols []map[int]struct{}, liveRow, liveCol []bool, pi, pj int) {
	pivot := rows[pi][pj]

	for i2 := range cols[pj] {
		if !liveRow[i2] {
			continue
		}
		target, exists := rows[i2][pj]
		if !exists || target == 0 {
			continue
		}
		factor := target / pivot

		for l, v := range rows[pi] {
			if !liveCol[l] {
				continue
			}
			updated := rows[i2][l] - factor*v
			if math.Abs(updated) < 1e-14 {
				delete(rows[i2], l)
				delete(cols[l], i2)
				continue
			}
			rows[i2][l] = updated
			cols[l][i2] = struct{}{}
		}
	}
}

func appendRemaining(order []int, live []bool) []int {
	for i, alive := range live {
		if alive {
			order = append(order, i)
		}
	}
	return order
}
