package circuit

import (
	"errors"
	"testing"

	"github.com/Myshaak-Jr/SimLogue/pkg/device"
)

func mustAdd(t *testing.T, ckt *Circuit, devs ...device.Device) {
	t.Helper()
	for _, dev := range devs {
		if err := ckt.AddPart(dev); err != nil {
			t.Fatalf("AddPart(%s): %v", dev.Name(), err)
		}
	}
}

func pin(dev device.Device, idx int) device.Pin {
	return device.Pin{Owner: dev, Index: idx}
}

func newTestCircuit(t *testing.T, dt float64) *Circuit {
	t.Helper()
	ckt, err := New("test", dt)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ckt
}

func TestNewRejectsBadTimestep(t *testing.T) {
	if _, err := New("bad", 0); err == nil {
		t.Fatal("New with zero timestep did not fail")
	}
}

func TestConnectCreatesAndSharesNodes(t *testing.T) {
	ckt := newTestCircuit(t, 1e-3)
	r1 := device.NewResistor("R1", 1)
	r2 := device.NewResistor("R2", 1)
	mustAdd(t, ckt, r1, r2)

	ckt.Connect(pin(r1, 1), pin(r2, 0))
	if r1.PinNode(1) == nil || r1.PinNode(1) != r2.PinNode(0) {
		t.Fatal("connected pins do not share a node")
	}

	ckt.Connect(pin(r2, 1), pin(ckt.Ground(), 0))
	if !r2.PinNode(1).IsGround {
		t.Fatal("pin connected to GND is not on the ground node")
	}
}

func TestConnectFusesDistinctNodes(t *testing.T) {
	ckt := newTestCircuit(t, 1e-3)
	r1 := device.NewResistor("R1", 1)
	r2 := device.NewResistor("R2", 1)
	r3 := device.NewResistor("R3", 1)
	r4 := device.NewResistor("R4", 1)
	mustAdd(t, ckt, r1, r2, r3, r4)

	ckt.Connect(pin(r1, 0), pin(r2, 0))
	ckt.Connect(pin(r3, 0), pin(r4, 0))
	before := len(ckt.nodes)

	ckt.Connect(pin(r1, 0), pin(r3, 0))

	if len(ckt.nodes) != before-1 {
		t.Fatalf("fusing kept %d nodes, want %d", len(ckt.nodes), before-1)
	}
	n := r1.PinNode(0)
	for _, dev := range []device.Device{r2, r3, r4} {
		if dev.PinNode(0) != n {
			t.Errorf("%s pin 0 not fused onto the shared node", dev.Name())
		}
	}
}

func TestConnectFusePrefersGround(t *testing.T) {
	ckt := newTestCircuit(t, 1e-3)
	r1 := device.NewResistor("R1", 1)
	r2 := device.NewResistor("R2", 1)
	mustAdd(t, ckt, r1, r2)

	ckt.Connect(pin(r1, 0), pin(r2, 0))
	ckt.Connect(pin(r1, 0), pin(ckt.Ground(), 0))

	if !r1.PinNode(0).IsGround || !r2.PinNode(0).IsGround {
		t.Fatal("fusing with ground did not keep the ground node")
	}
}

func TestAddPartDuplicateName(t *testing.T) {
	ckt := newTestCircuit(t, 1e-3)
	mustAdd(t, ckt, device.NewResistor("R1", 1))
	if err := ckt.AddPart(device.NewResistor("R1", 2)); err == nil {
		t.Fatal("duplicate part name accepted")
	}
}

func TestAssembleFloatingPin(t *testing.T) {
	ckt := newTestCircuit(t, 1e-3)
	r1 := device.NewResistor("R1", 1)
	mustAdd(t, ckt, r1)
	ckt.Connect(pin(r1, 0), pin(ckt.Ground(), 0))
	// pin 1 left floating

	if err := ckt.Assemble(); !errors.Is(err, ErrTopology) {
		t.Fatalf("Assemble error = %v, want ErrTopology", err)
	}
}

func TestAssembleDisconnectedIsland(t *testing.T) {
	ckt := newTestCircuit(t, 1e-3)
	v1 := device.NewVoltageSource("V1", 1)
	r1 := device.NewResistor("R1", 1)
	r2 := device.NewResistor("R2", 1)
	r3 := device.NewResistor("R3", 1)
	mustAdd(t, ckt, v1, r1, r2, r3)

	ckt.Connect(pin(v1, 0), pin(r1, 0))
	ckt.Connect(pin(r1, 1), pin(ckt.Ground(), 0))

	// island: R2 and R3 in a loop of their own
	ckt.Connect(pin(r2, 0), pin(r3, 0))
	ckt.Connect(pin(r2, 1), pin(r3, 1))

	if err := ckt.Assemble(); !errors.Is(err, ErrTopology) {
		t.Fatalf("Assemble error = %v, want ErrTopology", err)
	}
}

func TestAssembleAfterAssembleFails(t *testing.T) {
	ckt := newTestCircuit(t, 1e-3)
	v1 := device.NewVoltageSource("V1", 1)
	r1 := device.NewResistor("R1", 1)
	mustAdd(t, ckt, v1, r1)
	ckt.Connect(pin(v1, 0), pin(r1, 0))
	ckt.Connect(pin(r1, 1), pin(ckt.Ground(), 0))

	if err := ckt.Assemble(); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if err := ckt.Assemble(); err == nil {
		t.Fatal("second Assemble did not fail")
	}
	if err := ckt.AddPart(device.NewResistor("R2", 1)); err == nil {
		t.Fatal("AddPart after assembly did not fail")
	}
}

func TestAssembleRowLayout(t *testing.T) {
	ckt := newTestCircuit(t, 1e-3)
	v1 := device.NewVoltageSource("V1", 1)
	r1 := device.NewResistor("R1", 1)
	l1 := device.NewInductor("L1", 1)
	mustAdd(t, ckt, v1, r1, l1)

	ckt.Connect(pin(v1, 0), pin(r1, 0))
	ckt.Connect(pin(r1, 1), pin(l1, 0))
	ckt.Connect(pin(l1, 1), pin(ckt.Ground(), 0))

	if err := ckt.Assemble(); err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if got, want := ckt.NumNodes(), 2; got != want {
		t.Errorf("NumNodes = %d, want %d", got, want)
	}
	// 2 node rows + 1 source branch + 1 inductor branch
	if got, want := ckt.SystemSize(), 4; got != want {
		t.Errorf("SystemSize = %d, want %d", got, want)
	}

	seen := make(map[int]bool)
	for _, n := range ckt.nodes {
		if n.IsGround {
			continue
		}
		if n.ID < 0 || n.ID >= ckt.NumNodes() || seen[n.ID] {
			t.Fatalf("node id %d invalid or duplicated", n.ID)
		}
		seen[n.ID] = true
	}
}
