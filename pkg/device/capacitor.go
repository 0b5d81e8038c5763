package device

import (
	"github.com/Myshaak-Jr/SimLogue/pkg/sparse"
)

// Capacitor uses the backward-Euler companion model: a conductance C/dt in
// the matrix plus a history current on the right-hand side.
type Capacitor struct {
	BasePart
	capacitance float64
	admittance  float64
	lastV       float64
	lastI       float64
}

var _ Device = (*Capacitor)(nil)

func NewCapacitor(name string, capacitance float64) *Capacitor {
	return &Capacitor{
		BasePart:    NewBasePart(name, 2),
		capacitance: capacitance,
	}
}

func (c *Capacitor) StructuralEntries() []sparse.Position {
	return conductancePositions(c.PinNode(0), c.PinNode(1))
}

func (c *Capacitor) StampMatrix(a *sparse.Matrix, ctx *Context) error {
	c.admittance = c.capacitance * ctx.InvDt

	stampConductance(a, c.PinNode(0), c.PinNode(1), c.admittance)
	return nil
}

func (c *Capacitor) StampRHS(rhs []float64, ctx *Context) {
	value := c.admittance * c.lastV

	if n := c.PinNode(0); !n.IsGround {
		rhs[n.ID] += value
	}
	if n := c.PinNode(1); !n.IsGround {
		rhs[n.ID] -= value
	}
}

func (c *Capacitor) Advance(ctx *Context) bool {
	vNow := voltageDiff(c.PinNode(0), c.PinNode(1))
	c.lastI = c.admittance * (vNow - c.lastV)
	c.lastV = vNow
	return false
}

func (c *Capacitor) CurrentBetween(a, b int) float64 {
	if a == 1 {
		return -c.lastI
	}
	return c.lastI
}
