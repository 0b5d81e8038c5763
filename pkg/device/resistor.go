package device

import (
	"fmt"
	"math"

	"github.com/Myshaak-Jr/SimLogue/pkg/sparse"
)

type Resistor struct {
	BasePart
	ohms        float64
	conductance float64
}

var _ Device = (*Resistor)(nil)

func NewResistor(name string, ohms float64) *Resistor {
	return &Resistor{
		BasePart: NewBasePart(name, 2),
		ohms:     ohms,
	}
}

func (r *Resistor) StructuralEntries() []sparse.Position {
	return conductancePositions(r.PinNode(0), r.PinNode(1))
}

func (r *Resistor) StampMatrix(a *sparse.Matrix, ctx *Context) error {
	if math.Abs(r.ohms) < 1e-12 {
		return fmt.Errorf("resistor %s: resistance %g Ohm is too small to stamp: %w", r.Name(), r.ohms, ErrOverflow)
	}
	r.conductance = 1.0 / r.ohms

	stampConductance(a, r.PinNode(0), r.PinNode(1), r.conductance)
	return nil
}

func (r *Resistor) CurrentBetween(a, b int) float64 {
	return r.conductance * voltageDiff(r.PinNode(a), r.PinNode(b))
}
