package device

import (
	"github.com/Myshaak-Jr/SimLogue/pkg/sparse"
)

// VoltageSource is an ideal DC source. The one-pin form fixes its node's
// potential against ground; the two-pin form fixes the difference between
// its pins. Either way the branch row encodes V(a) - V(b) = V.
type VoltageSource struct {
	BasePart
	volts   float64
	branch  int
	current float64
}

var _ Device = (*VoltageSource)(nil)

func NewVoltageSource(name string, volts float64) *VoltageSource {
	return &VoltageSource{
		BasePart: NewBasePart(name, 1),
		volts:    volts,
	}
}

func NewVoltageSource2P(name string, volts float64) *VoltageSource {
	return &VoltageSource{
		BasePart: NewBasePart(name, 2),
		volts:    volts,
	}
}

// grounded reports a one-pin source sitting directly on the ground node,
// which needs no equation of its own.
func (v *VoltageSource) grounded() bool {
	return v.PinCount() == 1 && v.PinNode(0).IsGround
}

func (v *VoltageSource) secondNode() *Node {
	if v.PinCount() < 2 {
		return nil
	}
	return v.PinNode(1)
}

func (v *VoltageSource) ReservedRows() int {
	if v.grounded() {
		return 0
	}
	return 1
}

func (v *VoltageSource) SetFirstReservedRow(r int) { v.branch = r }

func (v *VoltageSource) StructuralEntries() []sparse.Position {
	if v.grounded() {
		return nil
	}
	return branchPositions(v.PinNode(0), v.secondNode(), v.branch)
}

func (v *VoltageSource) StampMatrix(a *sparse.Matrix, ctx *Context) error {
	if v.grounded() {
		return nil
	}
	stampBranch(a, v.PinNode(0), v.secondNode(), v.branch)
	return nil
}

func (v *VoltageSource) StampRHS(rhs []float64, ctx *Context) {
	if v.grounded() {
		return
	}
	rhs[v.branch] += v.volts
}

func (v *VoltageSource) Observe(solution []float64) {
	if v.grounded() {
		return
	}
	v.current = solution[v.branch]
}

func (v *VoltageSource) Voltage() float64 { return v.volts }

func (v *VoltageSource) CurrentBetween(a, b int) float64 {
	if a == 1 {
		return -v.current
	}
	return v.current
}
