// Package scope implements the probes: named observers that sample a
// voltage difference or a device current once per simulation step, plus
// the CSV and chart sinks the recorded series are flushed into.
package scope

import (
	"fmt"

	"github.com/Myshaak-Jr/SimLogue/pkg/device"
)

type Kind int

const (
	Voltage Kind = iota
	Current
)

// Scope records one probed scalar per step. Buffers grow append-only; a
// sample costs O(1).
type Scope struct {
	name   string
	kind   Kind
	a, b   device.Pin
	times  []float64
	values []float64
}

func NewVoltage(name string, a, b device.Pin) *Scope {
	return &Scope{name: name, kind: Voltage, a: a, b: b}
}

func NewCurrent(name string, a, b device.Pin) *Scope {
	return &Scope{name: name, kind: Current, a: a, b: b}
}

func (s *Scope) Name() string { return s.name }

func (s *Scope) Kind() Kind { return s.kind }

// Unit is the probed quantity's unit symbol, used as the CSV column header
// and the chart axis label.
func (s *Scope) Unit() string {
	if s.kind == Current {
		return "A"
	}
	return "V"
}

// Sample records the probed value at time t.
func (s *Scope) Sample(t float64) {
	var value float64
	switch s.kind {
	case Voltage:
		value = nodeVoltage(s.a.Node()) - nodeVoltage(s.b.Node())
	case Current:
		value = s.a.Owner.CurrentBetween(s.a.Index, s.b.Index)
	}
	s.times = append(s.times, t)
	s.values = append(s.values, value)
}

func (s *Scope) Len() int { return len(s.times) }

func (s *Scope) Times() []float64 { return s.times }

func (s *Scope) Values() []float64 { return s.values }

func (s *Scope) String() string {
	return fmt.Sprintf("scope %s (%d samples)", s.name, len(s.times))
}

func nodeVoltage(n *device.Node) float64 {
	if n == nil || n.IsGround {
		return 0
	}
	return n.Voltage
}
