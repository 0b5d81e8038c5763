package circuit

import (
	"fmt"

	"github.com/Myshaak-Jr/SimLogue/pkg/device"
	"github.com/Myshaak-Jr/SimLogue/pkg/sparse"
)

// Assemble freezes the topology: assigns node ids, reserves branch rows,
// collects every device's structural entries into the CSC pattern and
// writes the initial coefficients. Building -> Assembled.
func (c *Circuit) Assemble() error {
	if c.engine.state != Building {
		return fmt.Errorf("circuit %s: assemble in state %s", c.name, c.engine.state)
	}

	if err := c.checkTopology(); err != nil {
		return err
	}

	// node rows first, branch rows stacked after them
	k := 0
	for _, n := range c.nodes {
		if n.IsGround {
			continue
		}
		n.ID = k
		k++
	}
	c.engine.numNodes = k

	row := k
	for _, dev := range c.parts {
		if reserved := dev.ReservedRows(); reserved > 0 {
			dev.SetFirstReservedRow(row)
			row += reserved
		}
	}
	c.engine.size = row

	var positions []sparse.Position
	for _, dev := range c.parts {
		positions = append(positions, dev.StructuralEntries()...)
	}
	c.engine.matrix = sparse.NewMatrix(c.engine.size, positions)
	c.engine.rhs = make([]float64, c.engine.size)
	c.engine.solution = make([]float64, c.engine.size)

	// fold state scheduled for step 0 (e.g. a switch turned on at t=0)
	// into the devices before the first stamp
	ctx0 := c.contextAt(0)
	for _, dev := range c.parts {
		dev.Advance(ctx0)
	}

	if err := c.stampAll(); err != nil {
		return err
	}

	c.engine.state = Assembled
	return nil
}

// checkTopology rejects floating pins and nodes with no path to ground.
// One-pin voltage-defining parts count as grounded: their branch equation
// references the ground potential directly.
func (c *Circuit) checkTopology() error {
	for _, dev := range c.parts {
		for i := 0; i < dev.PinCount(); i++ {
			if dev.PinNode(i) == nil {
				return fmt.Errorf("circuit %s: pin %d of part %s is floating: %w", c.name, i, dev.Name(), ErrTopology)
			}
		}
	}

	reached := map[*device.Node]bool{c.groundNode: true}
	for _, dev := range c.parts {
		if dev.PinCount() == 1 && dev.ReservedRows() > 0 {
			reached[dev.PinNode(0)] = true
		}
	}

	for changed := true; changed; {
		changed = false
		for _, dev := range c.parts {
			touched := false
			for i := 0; i < dev.PinCount(); i++ {
				if reached[dev.PinNode(i)] {
					touched = true
					break
				}
			}
			if !touched {
				continue
			}
			for i := 0; i < dev.PinCount(); i++ {
				if n := dev.PinNode(i); !reached[n] {
					reached[n] = true
					changed = true
				}
			}
		}
	}

	for _, n := range c.nodes {
		if !reached[n] {
			return fmt.Errorf("circuit %s: a node is not connected to ground: %w", c.name, ErrTopology)
		}
	}
	return nil
}

// stampAll rewrites every constant coefficient. Used at assembly and again
// after a device reports a mode change.
func (c *Circuit) stampAll() error {
	ctx := c.contextAt(c.engine.step)
	c.engine.matrix.ZeroValues()
	for _, dev := range c.parts {
		if err := dev.StampMatrix(c.engine.matrix, ctx); err != nil {
			return fmt.Errorf("stamping part %s: %w", dev.Name(), err)
		}
	}
	return nil
}

func (c *Circuit) contextAt(step int) *device.Context {
	return &device.Context{
		Step:  step,
		Time:  float64(step) * c.timestep,
		Dt:    c.timestep,
		InvDt: 1.0 / c.timestep,
	}
}
