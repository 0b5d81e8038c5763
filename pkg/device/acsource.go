package device

import (
	"math"

	"github.com/Myshaak-Jr/SimLogue/pkg/sparse"
)

// ACVoltageSource is a sinusoidal source V(t) = A*sin(w*t + phase). The
// matrix footprint matches the DC source; only the right-hand side moves,
// refreshed in Advance for the coming step.
type ACVoltageSource struct {
	BasePart
	angularVel float64
	amplitude  float64
	phase      float64
	voltage    float64
	branch     int
	current    float64
}

var _ Device = (*ACVoltageSource)(nil)

func newACVoltageSource(name string, pinCount int, frequency, amplitude, phase float64) *ACVoltageSource {
	return &ACVoltageSource{
		BasePart:   NewBasePart(name, pinCount),
		angularVel: 2 * math.Pi * frequency,
		amplitude:  amplitude,
		phase:      phase,
		voltage:    amplitude * math.Sin(phase),
	}
}

func NewACVoltageSource(name string, frequency, amplitude, phase float64) *ACVoltageSource {
	return newACVoltageSource(name, 1, frequency, amplitude, phase)
}

func NewACVoltageSource2P(name string, frequency, amplitude, phase float64) *ACVoltageSource {
	return newACVoltageSource(name, 2, frequency, amplitude, phase)
}

func (v *ACVoltageSource) grounded() bool {
	return v.PinCount() == 1 && v.PinNode(0).IsGround
}

func (v *ACVoltageSource) secondNode() *Node {
	if v.PinCount() < 2 {
		return nil
	}
	return v.PinNode(1)
}

func (v *ACVoltageSource) ReservedRows() int {
	if v.grounded() {
		return 0
	}
	return 1
}

func (v *ACVoltageSource) SetFirstReservedRow(r int) { v.branch = r }

func (v *ACVoltageSource) StructuralEntries() []sparse.Position {
	if v.grounded() {
		return nil
	}
	return branchPositions(v.PinNode(0), v.secondNode(), v.branch)
}

func (v *ACVoltageSource) StampMatrix(a *sparse.Matrix, ctx *Context) error {
	if v.grounded() {
		return nil
	}
	stampBranch(a, v.PinNode(0), v.secondNode(), v.branch)
	return nil
}

func (v *ACVoltageSource) StampRHS(rhs []float64, ctx *Context) {
	if v.grounded() {
		return
	}
	rhs[v.branch] += v.voltage
}

func (v *ACVoltageSource) Observe(solution []float64) {
	if v.grounded() {
		return
	}
	v.current = solution[v.branch]
}

func (v *ACVoltageSource) Advance(ctx *Context) bool {
	v.voltage = v.amplitude * math.Sin(v.angularVel*ctx.Time+v.phase)
	return false
}

func (v *ACVoltageSource) Voltage() float64 { return v.voltage }

func (v *ACVoltageSource) CurrentBetween(a, b int) float64 {
	if a == 1 {
		return -v.current
	}
	return v.current
}
