package circuit

import (
	"fmt"

	"github.com/Myshaak-Jr/SimLogue/pkg/sparse"
)

// Factor orders and factorizes the assembled matrix. Assembled -> Factored.
func (c *Circuit) Factor() error {
	if c.engine.state != Assembled {
		return fmt.Errorf("circuit %s: factor in state %s", c.name, c.engine.state)
	}
	if err := c.refactor(); err != nil {
		c.engine.state = Terminated
		return &StepError{Step: c.engine.step, Time: float64(c.engine.step) * c.timestep, Err: err}
	}
	c.engine.state = Factored
	return nil
}

func (c *Circuit) refactor() error {
	c.engine.rowOrder, c.engine.colOrder = sparse.Order(c.engine.matrix)
	lu, err := sparse.Factor(c.engine.matrix, c.engine.rowOrder, c.engine.colOrder)
	if err != nil {
		return fmt.Errorf("factoring circuit matrix: %w", err)
	}
	c.engine.lu = lu
	return nil
}

// Step runs one timestep: refresh the right-hand side, solve, scatter the
// solution back into nodes and devices, sample the probes, then advance
// device state. A structural event (switch toggle, op-amp mode change)
// re-stamps the coefficients and refactors once before the next step.
func (c *Circuit) Step() error {
	if c.engine.state != Factored && c.engine.state != Running {
		return fmt.Errorf("circuit %s: step in state %s", c.name, c.engine.state)
	}
	c.engine.state = Running

	ctx := c.contextAt(c.engine.step)

	for i := range c.engine.rhs {
		c.engine.rhs[i] = 0
	}
	for _, dev := range c.parts {
		dev.StampRHS(c.engine.rhs, ctx)
	}

	x, err := c.engine.lu.Solve(c.engine.rhs)
	if err != nil {
		c.engine.state = Terminated
		return &StepError{Step: ctx.Step, Time: ctx.Time, Err: err}
	}
	copy(c.engine.solution, x)

	for _, n := range c.nodes {
		if !n.IsGround {
			n.Voltage = c.engine.solution[n.ID]
		}
	}
	for _, dev := range c.parts {
		dev.Observe(c.engine.solution)
	}
	for _, s := range c.scopes {
		s.Sample(ctx.Time)
	}

	next := c.contextAt(c.engine.step + 1)
	structureDirty := false
	for _, dev := range c.parts {
		if dev.Advance(next) {
			structureDirty = true
		}
	}
	c.engine.step++

	if structureDirty {
		if err := c.stampAll(); err != nil {
			c.engine.state = Terminated
			return &StepError{Step: next.Step, Time: next.Time, Err: err}
		}
		if err := c.refactor(); err != nil {
			c.engine.state = Terminated
			return &StepError{Step: next.Step, Time: next.Time, Err: err}
		}
	}

	return nil
}

// State reports the driver's lifecycle position.
func (c *Circuit) State() State { return c.engine.state }

// StepCount is the number of completed steps.
func (c *Circuit) StepCount() int { return c.engine.step }

// Time is the timestamp of the next step to run.
func (c *Circuit) Time() float64 { return float64(c.engine.step) * c.timestep }

// Terminate marks the run finished.
func (c *Circuit) Terminate() { c.engine.state = Terminated }

// Solution exposes the last solved vector; rows [0, numNodes) are node
// voltages, the rest branch currents.
func (c *Circuit) Solution() []float64 { return c.engine.solution }

// NumNodes is the count of non-ground nodes in the assembled system.
func (c *Circuit) NumNodes() int { return c.engine.numNodes }

// SystemSize is the full MNA dimension including branch rows.
func (c *Circuit) SystemSize() int { return c.engine.size }
