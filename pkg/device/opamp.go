package device

import (
	"github.com/Myshaak-Jr/SimLogue/pkg/sparse"
)

type opAmpMode int

const (
	opAmpLinear opAmpMode = iota
	opAmpSatHigh
	opAmpSatLow
)

// opAmpHysteresis is the dead band around the rails that keeps the mode
// from chattering between consecutive steps.
const opAmpHysteresis = 1e-3

var opAmpPinNames = [3]string{"plus", "minus", "out"}

// Pin indices of the OpAmp.
const (
	OpAmpPlus = iota
	OpAmpMinus
	OpAmpOut
)

// OpAmp is a three-pin amplifier with saturation rails and hysteresis.
// Linear mode enforces V(out) = A*(V+ - V-) through its branch row; in a
// saturated mode the row pins the output to the rail instead. A mode
// change alters the stamped coefficients and forces a refactor.
type OpAmp struct {
	BasePart
	vMin          float64
	vMax          float64
	amplification float64
	branch        int
	mode          opAmpMode
}

var _ Device = (*OpAmp)(nil)

func NewOpAmp(name string, vMin, vMax, amplification float64) *OpAmp {
	return &OpAmp{
		BasePart:      NewBasePart(name, 3),
		vMin:          vMin,
		vMax:          vMax,
		amplification: amplification,
	}
}

func (o *OpAmp) PinName(i int) string { return opAmpPinNames[i] }

func (o *OpAmp) ReservedRows() int {
	if o.PinNode(OpAmpOut).IsGround {
		return 0
	}
	return 1
}

func (o *OpAmp) SetFirstReservedRow(r int) { o.branch = r }

func (o *OpAmp) StructuralEntries() []sparse.Position {
	out := o.PinNode(OpAmpOut)
	if out.IsGround {
		return nil
	}

	positions := []sparse.Position{
		{Row: out.ID, Col: o.branch},
		{Row: o.branch, Col: out.ID},
	}
	if plus := o.PinNode(OpAmpPlus); !plus.IsGround {
		positions = append(positions, sparse.Position{Row: o.branch, Col: plus.ID})
	}
	if minus := o.PinNode(OpAmpMinus); !minus.IsGround {
		positions = append(positions, sparse.Position{Row: o.branch, Col: minus.ID})
	}
	return positions
}

func (o *OpAmp) StampMatrix(a *sparse.Matrix, ctx *Context) error {
	out := o.PinNode(OpAmpOut)
	if out.IsGround {
		return nil
	}

	a.Add(out.ID, o.branch, 1)
	a.Add(o.branch, out.ID, 1)

	if o.mode == opAmpLinear {
		if plus := o.PinNode(OpAmpPlus); !plus.IsGround {
			a.Add(o.branch, plus.ID, -o.amplification)
		}
		if minus := o.PinNode(OpAmpMinus); !minus.IsGround {
			a.Add(o.branch, minus.ID, o.amplification)
		}
	}
	return nil
}

func (o *OpAmp) StampRHS(rhs []float64, ctx *Context) {
	if o.PinNode(OpAmpOut).IsGround {
		return
	}

	switch o.mode {
	case opAmpSatHigh:
		rhs[o.branch] += o.vMax
	case opAmpSatLow:
		rhs[o.branch] += o.vMin
	}
}

func (o *OpAmp) Advance(ctx *Context) bool {
	plus := o.PinNode(OpAmpPlus)
	minus := o.PinNode(OpAmpMinus)
	diff := o.amplification * voltageDiff(plus, minus)

	prev := o.mode
	switch o.mode {
	case opAmpLinear:
		if diff > o.vMax+opAmpHysteresis {
			o.mode = opAmpSatHigh
		} else if diff < o.vMin-opAmpHysteresis {
			o.mode = opAmpSatLow
		}
	case opAmpSatHigh:
		if diff < o.vMax-opAmpHysteresis {
			o.mode = opAmpLinear
		}
	case opAmpSatLow:
		if diff > o.vMin+opAmpHysteresis {
			o.mode = opAmpLinear
		}
	}
	return o.mode != prev
}
