package circuit

import (
	"errors"
	"fmt"

	"github.com/Myshaak-Jr/SimLogue/pkg/sparse"
)

// ErrTopology reports a circuit that cannot be assembled: a floating pin
// or a node with no path to ground.
var ErrTopology = errors.New("unresolved topology")

// State is the driver's lifecycle position.
type State int

const (
	Building State = iota
	Assembled
	Factored
	Running
	Terminated
)

func (s State) String() string {
	switch s {
	case Building:
		return "building"
	case Assembled:
		return "assembled"
	case Factored:
		return "factored"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StepError wraps a fatal solver failure with the step and time it hit.
type StepError struct {
	Step int
	Time float64
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%gs): %v", e.Step, e.Time, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// engine is the numeric half of the circuit: the assembled system, its
// factors and the step counter.
type engine struct {
	state    State
	numNodes int
	size     int

	matrix   *sparse.Matrix
	rowOrder []int
	colOrder []int
	lu       *sparse.LU

	rhs      []float64
	solution []float64

	step int
}
