// Package circuit owns the device graph and drives the MNA engine: it
// assembles the sparse system from device stamps, factors it once, and
// steps the simulation forward at a fixed timestep.
package circuit

import (
	"fmt"

	"github.com/Myshaak-Jr/SimLogue/pkg/device"
	"github.com/Myshaak-Jr/SimLogue/pkg/scope"
)

// GroundName is the reserved part name of the global ground.
const GroundName = "GND"

// Circuit owns every node and device for its whole lifetime. Devices hold
// non-owning node references; all mutation happens inside the step loop.
type Circuit struct {
	name     string
	timestep float64

	nodes      []*device.Node
	groundNode *device.Node
	ground     *device.Ground

	parts     []device.Device
	partIndex map[string]device.Device

	scopes []*scope.Scope

	engine engine
}

func New(name string, timestep float64) (*Circuit, error) {
	if timestep <= 0 {
		return nil, fmt.Errorf("circuit %s: timestep must be positive, got %g", name, timestep)
	}

	c := &Circuit{
		name:      name,
		timestep:  timestep,
		partIndex: make(map[string]device.Device),
	}

	c.groundNode = c.newNode()
	c.groundNode.IsGround = true

	c.ground = device.NewGround(GroundName)
	c.ground.SetPinNode(0, c.groundNode)
	c.parts = append(c.parts, c.ground)
	c.partIndex[GroundName] = c.ground

	return c, nil
}

func (c *Circuit) Name() string { return c.name }

func (c *Circuit) Timestep() float64 { return c.timestep }

func (c *Circuit) Ground() *device.Ground { return c.ground }

// AddPart registers a device under its unique name. Only allowed before
// assembly.
func (c *Circuit) AddPart(dev device.Device) error {
	if c.engine.state != Building {
		return fmt.Errorf("circuit %s: cannot add part %s after assembly", c.name, dev.Name())
	}
	if _, exists := c.partIndex[dev.Name()]; exists {
		return fmt.Errorf("circuit %s: duplicate part name %s", c.name, dev.Name())
	}
	c.parts = append(c.parts, dev)
	c.partIndex[dev.Name()] = dev
	return nil
}

// Part looks a device up by name.
func (c *Circuit) Part(name string) (device.Device, bool) {
	dev, ok := c.partIndex[name]
	return dev, ok
}

func (c *Circuit) Parts() []device.Device { return c.parts }

func (c *Circuit) newNode() *device.Node {
	n := &device.Node{}
	c.nodes = append(c.nodes, n)
	return n
}

// NodeFor returns the node a pin sits on, creating one when the pin has
// been addressed before any connection touched it.
func (c *Circuit) NodeFor(p device.Pin) *device.Node {
	if n := p.Node(); n != nil {
		return n
	}
	n := c.newNode()
	p.Owner.SetPinNode(p.Index, n)
	return n
}

// Connect joins two pins onto a shared node, creating or fusing nodes as
// needed.
func (c *Circuit) Connect(a, b device.Pin) {
	na, nb := a.Node(), b.Node()

	switch {
	case na == nil && nb == nil:
		n := c.newNode()
		a.Owner.SetPinNode(a.Index, n)
		b.Owner.SetPinNode(b.Index, n)
	case na == nil:
		a.Owner.SetPinNode(a.Index, nb)
	case nb == nil:
		b.Owner.SetPinNode(b.Index, na)
	case na == nb:
		// already joined
	default:
		c.fuse(na, nb)
	}
}

// fuse merges two distinct nodes, keeping ground alive when involved.
func (c *Circuit) fuse(keep, drop *device.Node) {
	if drop.IsGround {
		keep, drop = drop, keep
	}

	for _, dev := range c.parts {
		for i := 0; i < dev.PinCount(); i++ {
			if dev.PinNode(i) == drop {
				dev.SetPinNode(i, keep)
			}
		}
	}

	for i, n := range c.nodes {
		if n == drop {
			c.nodes = append(c.nodes[:i], c.nodes[i+1:]...)
			break
		}
	}
}

// ScopeVoltage registers a probe on the voltage between two pins.
func (c *Circuit) ScopeVoltage(name string, a, b device.Pin) {
	c.NodeFor(a)
	c.NodeFor(b)
	c.scopes = append(c.scopes, scope.NewVoltage(name, a, b))
}

// ScopeCurrent registers a probe on the current between two pins.
func (c *Circuit) ScopeCurrent(name string, a, b device.Pin) {
	c.NodeFor(a)
	c.NodeFor(b)
	c.scopes = append(c.scopes, scope.NewCurrent(name, a, b))
}

func (c *Circuit) Scopes() []*scope.Scope { return c.scopes }
