package device

import (
	"github.com/Myshaak-Jr/SimLogue/pkg/sparse"
)

// Switch transitions between open and closed at scheduled steps. Closed it
// behaves as a zero-volt source, forcing V(a) = V(b) through its branch
// row; open the same row pins the branch current to zero, so the matrix
// pattern survives toggling and only the stamped values change.
type Switch struct {
	BasePart
	closed   bool
	branch   int
	schedule map[int]bool
	current  float64
}

var _ Device = (*Switch)(nil)

func NewSwitch(name string) *Switch {
	return &Switch{
		BasePart: NewBasePart(name, 2),
		schedule: make(map[int]bool),
	}
}

// ScheduleOn requests the closed state starting at the given step.
// Scheduling the same state twice for a step is a no-op.
func (s *Switch) ScheduleOn(step int) { s.schedule[step] = true }

// ScheduleOff requests the open state starting at the given step.
func (s *Switch) ScheduleOff(step int) { s.schedule[step] = false }

func (s *Switch) Closed() bool { return s.closed }

func (s *Switch) ReservedRows() int { return 1 }

func (s *Switch) SetFirstReservedRow(r int) { s.branch = r }

func (s *Switch) StructuralEntries() []sparse.Position {
	positions := branchPositions(s.PinNode(0), s.PinNode(1), s.branch)
	return append(positions, sparse.Position{Row: s.branch, Col: s.branch})
}

func (s *Switch) StampMatrix(a *sparse.Matrix, ctx *Context) error {
	if s.closed {
		stampBranch(a, s.PinNode(0), s.PinNode(1), s.branch)
	} else {
		a.Add(s.branch, s.branch, 1)
	}
	return nil
}

func (s *Switch) Observe(solution []float64) {
	if s.closed {
		s.current = solution[s.branch]
	} else {
		s.current = 0
	}
}

func (s *Switch) Advance(ctx *Context) bool {
	want, scheduled := s.schedule[ctx.Step]
	if !scheduled || want == s.closed {
		return false
	}
	s.closed = want
	return true
}

func (s *Switch) CurrentBetween(a, b int) float64 {
	if a == 1 {
		return -s.current
	}
	return s.current
}
