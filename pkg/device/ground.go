package device

import (
	"github.com/Myshaak-Jr/SimLogue/pkg/sparse"
)

// Ground is the one-pin pseudo-device whose pin sits on the sole ground
// node. It contributes no rows and no stamps; it only exists so netlists
// can connect to GND by name.
type Ground struct {
	BasePart
}

var _ Device = (*Ground)(nil)

func NewGround(name string) *Ground {
	return &Ground{BasePart: NewBasePart(name, 1)}
}

func (g *Ground) StructuralEntries() []sparse.Position { return nil }

func (g *Ground) StampMatrix(a *sparse.Matrix, ctx *Context) error { return nil }
