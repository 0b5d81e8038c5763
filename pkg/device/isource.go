package device

import (
	"github.com/Myshaak-Jr/SimLogue/pkg/sparse"
)

// CurrentSource injects a constant current from pin 0 to pin 1. It has no
// matrix footprint, only right-hand-side terms.
type CurrentSource struct {
	BasePart
	current float64
}

var _ Device = (*CurrentSource)(nil)

func NewCurrentSource(name string, current float64) *CurrentSource {
	return &CurrentSource{
		BasePart: NewBasePart(name, 2),
		current:  current,
	}
}

func (s *CurrentSource) StructuralEntries() []sparse.Position { return nil }

func (s *CurrentSource) StampMatrix(a *sparse.Matrix, ctx *Context) error { return nil }

func (s *CurrentSource) StampRHS(rhs []float64, ctx *Context) {
	if n := s.PinNode(0); !n.IsGround {
		rhs[n.ID] -= s.current
	}
	if n := s.PinNode(1); !n.IsGround {
		rhs[n.ID] += s.current
	}
}

func (s *CurrentSource) CurrentBetween(a, b int) float64 {
	if a == 1 {
		return -s.current
	}
	return s.current
}
