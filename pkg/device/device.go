// Package device holds the MNA device models and the node/pin graph they
// hang on. Devices own their pins; nodes are owned by the circuit and
// referenced from here without ownership.
package device

import (
	"errors"

	"github.com/Myshaak-Jr/SimLogue/pkg/sparse"
)

// ErrOverflow reports a device parameter that cannot be stamped, such as a
// zero resistance that would demand an infinite conductance.
var ErrOverflow = errors.New("numeric overflow")

// Node is an electrical junction. ID is the node's row in the MNA system;
// it is only meaningful after assembly and never assigned for ground.
type Node struct {
	Voltage  float64
	ID       int
	IsGround bool
}

// Pin addresses one terminal of a device. The current node is always read
// through the owner so connection fusing cannot leave stale handles around.
type Pin struct {
	Owner Device
	Index int
}

func (p Pin) Node() *Node { return p.Owner.PinNode(p.Index) }

// Context carries the per-step quantities devices stamp and advance with.
// The driver passes the context of the step being computed to StampRHS and
// the context of the upcoming step to Advance.
type Context struct {
	Step  int
	Time  float64
	Dt    float64
	InvDt float64
}

// Device is the contract every part satisfies to participate in assembly
// and in the step loop.
type Device interface {
	Name() string
	PinCount() int
	PinNode(i int) *Node
	SetPinNode(i int, n *Node)
	PinName(i int) string

	// ReservedRows is the number of private branch rows the device needs;
	// the engine assigns the block [r, r+k) through SetFirstReservedRow.
	ReservedRows() int
	SetFirstReservedRow(r int)

	// StructuralEntries lists every matrix position the device will ever
	// write to, across all of its modes. Build-time only.
	StructuralEntries() []sparse.Position

	// StampMatrix writes the device's coefficients. Called once after
	// assembly and again after any device reports a mode change.
	StampMatrix(a *sparse.Matrix, ctx *Context) error

	// StampRHS accumulates the device's per-step right-hand-side terms.
	StampRHS(rhs []float64, ctx *Context)

	// Observe reads the solved vector back into internal state.
	Observe(solution []float64)

	// Advance moves internal state to the next step. A true return means
	// the stamped coefficients changed and the matrix must be refactored.
	Advance(ctx *Context) bool

	// CurrentBetween reports the most recent current flowing from pin a
	// to pin b, for probes.
	CurrentBetween(a, b int) float64
}

// BasePart carries the name and pin table and the no-op halves of the
// Device contract.
type BasePart struct {
	name  string
	nodes []*Node
}

func NewBasePart(name string, pinCount int) BasePart {
	return BasePart{
		name:  name,
		nodes: make([]*Node, pinCount),
	}
}

func (p *BasePart) Name() string { return p.name }

func (p *BasePart) PinCount() int { return len(p.nodes) }

func (p *BasePart) PinNode(i int) *Node { return p.nodes[i] }

func (p *BasePart) SetPinNode(i int, n *Node) { p.nodes[i] = n }

func (p *BasePart) PinName(i int) string { return "" }

func (p *BasePart) ReservedRows() int { return 0 }

func (p *BasePart) SetFirstReservedRow(r int) {}

func (p *BasePart) StampRHS(rhs []float64, ctx *Context) {}

func (p *BasePart) Observe(solution []float64) {}

func (p *BasePart) Advance(ctx *Context) bool { return false }

func (p *BasePart) CurrentBetween(a, b int) float64 { return 0 }

// voltageDiff is V(a) - V(b) with ground pinned at zero.
func voltageDiff(a, b *Node) float64 {
	va, vb := 0.0, 0.0
	if !a.IsGround {
		va = a.Voltage
	}
	if !b.IsGround {
		vb = b.Voltage
	}
	return va - vb
}

// conductancePositions is the structural footprint of a conductance
// between two nodes, ground rows dropped.
func conductancePositions(a, b *Node) []sparse.Position {
	switch {
	case !a.IsGround && !b.IsGround:
		return []sparse.Position{
			{Row: a.ID, Col: a.ID},
			{Row: a.ID, Col: b.ID},
			{Row: b.ID, Col: a.ID},
			{Row: b.ID, Col: b.ID},
		}
	case !a.IsGround:
		return []sparse.Position{{Row: a.ID, Col: a.ID}}
	case !b.IsGround:
		return []sparse.Position{{Row: b.ID, Col: b.ID}}
	default:
		return nil
	}
}

// stampConductance adds the g / -g quad between two nodes.
func stampConductance(m *sparse.Matrix, a, b *Node, g float64) {
	if !a.IsGround {
		m.Add(a.ID, a.ID, g)
		if !b.IsGround {
			m.Add(a.ID, b.ID, -g)
		}
	}
	if !b.IsGround {
		m.Add(b.ID, b.ID, g)
		if !a.IsGround {
			m.Add(b.ID, a.ID, -g)
		}
	}
}

// branchPositions is the structural footprint of a branch row coupled to
// two nodes, ground rows dropped. The second node may be nil for one-pin
// voltage-defining parts.
func branchPositions(a, b *Node, row int) []sparse.Position {
	var positions []sparse.Position
	if a != nil && !a.IsGround {
		positions = append(positions,
			sparse.Position{Row: a.ID, Col: row},
			sparse.Position{Row: row, Col: a.ID},
		)
	}
	if b != nil && !b.IsGround {
		positions = append(positions,
			sparse.Position{Row: b.ID, Col: row},
			sparse.Position{Row: row, Col: b.ID},
		)
	}
	return positions
}

// stampBranch adds the +1/-1 couplings of a branch row.
func stampBranch(m *sparse.Matrix, a, b *Node, row int) {
	if a != nil && !a.IsGround {
		m.Add(a.ID, row, 1)
		m.Add(row, a.ID, 1)
	}
	if b != nil && !b.IsGround {
		m.Add(b.ID, row, -1)
		m.Add(row, b.ID, -1)
	}
}
