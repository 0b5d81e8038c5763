package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/Myshaak-Jr/SimLogue/pkg/circuit"
	"github.com/Myshaak-Jr/SimLogue/pkg/sparse"
)

// Transient steps a circuit from t = 0 for a fixed duration at the
// circuit's timestep.
type Transient struct {
	Circuit  *circuit.Circuit
	duration float64
	steps    int
}

func NewTransient(duration float64) *Transient {
	return &Transient{duration: duration}
}

// Setup assembles and factors the circuit. A singular matrix here means
// the run never starts.
func (tr *Transient) Setup(ckt *circuit.Circuit) error {
	tr.Circuit = ckt
	tr.steps = int(math.Round(tr.duration / ckt.Timestep()))

	if err := ckt.Assemble(); err != nil {
		return fmt.Errorf("assembling circuit: %w", err)
	}
	if err := ckt.Factor(); err != nil {
		return fmt.Errorf("factoring circuit: %w", err)
	}
	return nil
}

// Execute runs the step loop to the requested duration. On a singular
// matrix mid-run it terminates cleanly, leaving every sample recorded so
// far intact, and reports the failing step and time.
func (tr *Transient) Execute() error {
	if tr.Circuit == nil {
		return fmt.Errorf("transient: circuit not set")
	}

	for step := 0; step < tr.steps; step++ {
		if err := tr.Circuit.Step(); err != nil {
			if errors.Is(err, sparse.ErrSingular) {
				return fmt.Errorf("run terminated: %w", err)
			}
			return err
		}
	}
	tr.Circuit.Terminate()
	return nil
}

// Steps is the number of samples the run produces.
func (tr *Transient) Steps() int { return tr.steps }
