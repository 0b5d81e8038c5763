package netlist

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Myshaak-Jr/SimLogue/pkg/analysis"
	"github.com/Myshaak-Jr/SimLogue/pkg/circuit"
	"github.com/Myshaak-Jr/SimLogue/pkg/device"
)

func newTestCircuit(t *testing.T, dt float64) *circuit.Circuit {
	t.Helper()
	ckt, err := circuit.New("test", dt)
	if err != nil {
		t.Fatalf("circuit.New: %v", err)
	}
	return ckt
}

func execute(t *testing.T, ckt *circuit.Circuit, script string) {
	t.Helper()
	if err := New(ckt).ExecuteString(script); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}

func TestParseDividerNetlist(t *testing.T) {
	ckt := newTestCircuit(t, 1e-3)
	execute(t, ckt, `
voltage_source V1 : 5_V
resistor R1 : 10_Ohm
resistor R2 : 10_Ohm

V1 - R1.0
R1.1 - R2.0
R2.1 - GND

scope voltage of R2
scope current of R1
`)

	for _, name := range []string{"V1", "R1", "R2"} {
		if _, ok := ckt.Part(name); !ok {
			t.Errorf("part %s not registered", name)
		}
	}

	v1, _ := ckt.Part("V1")
	r1, _ := ckt.Part("R1")
	r2, _ := ckt.Part("R2")
	if v1.PinNode(0) == nil || v1.PinNode(0) != r1.PinNode(0) {
		t.Error("V1 and R1.0 do not share a node")
	}
	if r1.PinNode(1) != r2.PinNode(0) {
		t.Error("R1.1 and R2.0 do not share a node")
	}
	if !r2.PinNode(1).IsGround {
		t.Error("R2.1 is not on ground")
	}

	if got := len(ckt.Scopes()); got != 2 {
		t.Errorf("%d scopes registered, want 2", got)
	}
}

func TestTwoPinChainShorthand(t *testing.T) {
	ckt := newTestCircuit(t, 1e-3)
	execute(t, ckt, `
voltage_source V1 : 5_V
resistor R1 : 10_Ohm
resistor R2 : 10_Ohm

V1 - R1 - R2 - GND
`)

	v1, _ := ckt.Part("V1")
	r1, _ := ckt.Part("R1")
	r2, _ := ckt.Part("R2")

	// a bare two-pin part enters the chain through pin 0 and continues
	// out of pin 1
	if v1.PinNode(0) != r1.PinNode(0) {
		t.Error("V1 should join R1 through R1.0")
	}
	if r1.PinNode(1) != r2.PinNode(0) {
		t.Error("R1.1 should join R2.0")
	}
	if !r2.PinNode(1).IsGround {
		t.Error("R2.1 should be on ground")
	}
}

func TestNamedPinsAndDefaults(t *testing.T) {
	ckt := newTestCircuit(t, 1e-3)
	execute(t, ckt, `
op_amp OP1
voltage_source V1 : 1_V
resistor RL : 1_kOhm

V1 - OP1.plus
OP1.minus - GND
OP1.out - RL - GND
`)

	opDev, ok := ckt.Part("OP1")
	if !ok {
		t.Fatal("OP1 not registered")
	}
	op := opDev.(*device.OpAmp)
	if op.PinNode(device.OpAmpMinus) == nil || !op.PinNode(device.OpAmpMinus).IsGround {
		t.Error("OP1.minus should be on ground")
	}
	v1, _ := ckt.Part("V1")
	if op.PinNode(device.OpAmpPlus) != v1.PinNode(0) {
		t.Error("OP1.plus should share V1's node")
	}
}

func TestParamsBindByQuantity(t *testing.T) {
	ckt := newTestCircuit(t, 1e-3)
	// angle before voltage before frequency; binding is by quantity
	execute(t, ckt, "ac_voltage_source V1 : 90_deg, 2_V, 50_Hz\n")

	if _, ok := ckt.Part("V1"); !ok {
		t.Fatal("V1 not registered")
	}
	src, _ := ckt.Part("V1")
	ac := src.(*device.ACVoltageSource)
	if got := ac.Voltage(); math.Abs(got-2) > 1e-12 {
		t.Errorf("initial voltage = %g, want 2 (amplitude at 90 deg)", got)
	}
}

func TestCommentsAndBlockComments(t *testing.T) {
	ckt := newTestCircuit(t, 1e-3)
	execute(t, ckt, `
// a full-line comment
resistor R1 : 10_Ohm // trailing comment
/* block comment
spanning lines
resistor R_ignored : 1_Ohm
*/ resistor R2 : 20_Ohm
R1 - R2 - GND
R1.0 - GND
`)

	if _, ok := ckt.Part("R_ignored"); ok {
		t.Error("part inside a block comment was parsed")
	}
	if _, ok := ckt.Part("R2"); !ok {
		t.Error("part after a block comment close was skipped")
	}
}

func TestTurnSchedulesSwitch(t *testing.T) {
	ckt := newTestCircuit(t, 1e-3)
	execute(t, ckt, `
switch SW1
voltage_source V1 : 1_V
resistor R1 : 1_Ohm
V1 - SW1 - R1 - GND
turn on SW1 at 5_ms
turn off SW1 at 8_ms
`)

	swDev, _ := ckt.Part("SW1")
	sw := swDev.(*device.Switch)

	if changed := sw.Advance(&device.Context{Step: 5}); !changed || !sw.Closed() {
		t.Error("switch did not close at step 5")
	}
	if changed := sw.Advance(&device.Context{Step: 8}); !changed || sw.Closed() {
		t.Error("switch did not open at step 8")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"unknown part in scope", "scope voltage of R9\n"},
		{"scope of one-pin part", "voltage_source V1 : 1_V\nscope voltage of V1\n"},
		{"redefinition", "resistor R1 : 1_Ohm\nresistor R1 : 2_Ohm\n"},
		{"bad separator", "resistor R1 ; 1_Ohm\n"},
		{"wrong quantity", "resistor R1 : 1_V\n"},
		{"too many params", "resistor R1 : 1_Ohm, 2_Ohm\n"},
		{"turn non-switch", "resistor R1 : 1_Ohm\nturn on R1 at 1_s\n"},
		{"turn without time", "switch SW1\nturn on SW1 at 5_V\n"},
		{"bad pin", "resistor R1 : 1_Ohm\nR1.7 - GND\n"},
		{"missing connector", "resistor R1 : 1_Ohm\nR1.0 GND\n"},
		{"invalid name", "resistor 1R : 1_Ohm\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ckt := newTestCircuit(t, 1e-3)
			err := New(ckt).ExecuteString(tt.script)
			if err == nil {
				t.Fatal("script accepted, want parse error")
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("error = %T (%v), want *ParseError", err, err)
			}
			if parseErr.Line <= 0 {
				t.Errorf("parse error without line number: %v", parseErr)
			}
		})
	}
}

func TestParseErrorReportsLine(t *testing.T) {
	ckt := newTestCircuit(t, 1e-3)
	err := New(ckt).ExecuteString("resistor R1 : 1_Ohm\n\nresistor R1 : 2_Ohm\n")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if parseErr.Line != 3 {
		t.Errorf("line = %d, want 3", parseErr.Line)
	}
}

// TestRCNetlistEndToEnd drives a parsed netlist through the engine and
// checks the charging curve at t = tau.
func TestRCNetlistEndToEnd(t *testing.T) {
	ckt := newTestCircuit(t, 10e-6)
	execute(t, ckt, `
voltage_source V1 : 1_V
resistor R1 : 1_kOhm
capacitor C1 : 1_uF

V1 - R1.0
R1.1 - C1.0
C1.1 - GND

scope voltage of C1
`)

	tr := analysis.NewTransient(1e-3)
	if err := tr.Setup(ckt); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := tr.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	scopes := ckt.Scopes()
	if len(scopes) != 1 {
		t.Fatalf("%d scopes, want 1", len(scopes))
	}
	s := scopes[0]
	if s.Len() != 100 {
		t.Fatalf("recorded %d samples, want 100", s.Len())
	}
	final := s.Values()[s.Len()-1]
	if math.Abs(final-0.632) > 0.01 {
		t.Errorf("V(C1) at tau = %v, want 0.632 +- 0.01", final)
	}
	if !strings.HasPrefix(s.Name(), "voltage_") {
		t.Errorf("scope name = %q, want voltage_ prefix", s.Name())
	}
}
