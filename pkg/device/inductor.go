package device

import (
	"github.com/Myshaak-Jr/SimLogue/pkg/sparse"
)

// Inductor reserves a branch row for its current and uses the
// backward-Euler companion model on that row.
type Inductor struct {
	BasePart
	inductance float64
	lastI      float64
	branch     int
}

var _ Device = (*Inductor)(nil)

func NewInductor(name string, inductance float64) *Inductor {
	return &Inductor{
		BasePart:   NewBasePart(name, 2),
		inductance: inductance,
	}
}

func (l *Inductor) ReservedRows() int { return 1 }

func (l *Inductor) SetFirstReservedRow(r int) { l.branch = r }

func (l *Inductor) StructuralEntries() []sparse.Position {
	positions := branchPositions(l.PinNode(0), l.PinNode(1), l.branch)
	return append(positions, sparse.Position{Row: l.branch, Col: l.branch})
}

func (l *Inductor) StampMatrix(a *sparse.Matrix, ctx *Context) error {
	stampBranch(a, l.PinNode(0), l.PinNode(1), l.branch)
	a.Add(l.branch, l.branch, -l.inductance*ctx.InvDt)
	return nil
}

func (l *Inductor) StampRHS(rhs []float64, ctx *Context) {
	rhs[l.branch] -= l.inductance * ctx.InvDt * l.lastI
}

func (l *Inductor) Observe(solution []float64) {
	l.lastI = solution[l.branch]
}

func (l *Inductor) CurrentBetween(a, b int) float64 {
	if a == 1 {
		return -l.lastI
	}
	return l.lastI
}
