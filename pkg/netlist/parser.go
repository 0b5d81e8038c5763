// Package netlist interprets the SimLogue circuit language: part
// declarations, pin connections, scope commands and switch schedules.
package netlist

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Myshaak-Jr/SimLogue/pkg/circuit"
	"github.com/Myshaak-Jr/SimLogue/pkg/device"
)

// ParseError is a fatal netlist error with the line it came from.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error on line %d: %s", e.Line, e.Msg)
}

func errf(line int, format string, args ...any) error {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Interpreter executes a netlist against a circuit, line by line.
type Interpreter struct {
	circuit        *circuit.Circuit
	parsingComment bool
}

func New(ckt *circuit.Circuit) *Interpreter {
	return &Interpreter{circuit: ckt}
}

// Execute reads and executes a whole netlist stream.
func (it *Interpreter) Execute(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		if err := it.executeLine(scanner.Text(), line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading netlist: %w", err)
	}
	return nil
}

// ExecuteString executes a netlist held in a string.
func (it *Interpreter) ExecuteString(script string) error {
	return it.Execute(strings.NewReader(script))
}

func isFirstWordLetter(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isWordLetter(c byte) bool {
	return isFirstWordLetter(c) || ('0' <= c && c <= '9')
}

func checkName(name string) bool {
	if name == "" || !isFirstWordLetter(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isWordLetter(name[i]) {
			return false
		}
	}
	return true
}

// tokenize splits a line on whitespace, keeping ':', '-' and ',' as
// self-contained tokens and stripping // and /* */ comments. Block
// comments may span lines; the open state lives on the interpreter.
func (it *Interpreter) tokenize(line string) []string {
	var tokens []string
	flush := func(lo, hi int) {
		if hi > lo {
			tokens = append(tokens, line[lo:hi])
		}
	}

	lo := 0
	i := 0
	for i < len(line) {
		if it.parsingComment {
			if strings.HasPrefix(line[i:], "*/") {
				it.parsingComment = false
				i += 2
				lo = i
				continue
			}
			i++
			lo = i
			continue
		}

		switch {
		case strings.HasPrefix(line[i:], "//"):
			flush(lo, i)
			return tokens
		case strings.HasPrefix(line[i:], "/*"):
			flush(lo, i)
			it.parsingComment = true
			i += 2
			lo = i
		case line[i] == ' ' || line[i] == '\t' || line[i] == '\r':
			flush(lo, i)
			i++
			lo = i
		case line[i] == ':' || line[i] == '-' || line[i] == ',':
			flush(lo, i)
			tokens = append(tokens, line[i:i+1])
			i++
			lo = i
		default:
			i++
		}
	}
	if !it.parsingComment {
		flush(lo, i)
	}
	return tokens
}

// paramInfo describes one constructor slot of a part declaration.
type paramInfo struct {
	quantity   Quantity
	hasDefault bool
	def        float64
}

func param(q Quantity) paramInfo { return paramInfo{quantity: q} }

func paramDefault(q Quantity, def float64) paramInfo {
	return paramInfo{quantity: q, hasDefault: true, def: def}
}

func (it *Interpreter) executeLine(line string, lineIdx int) error {
	tokens := it.tokenize(line)
	if len(tokens) == 0 {
		return nil
	}

	switch tokens[0] {
	case "resistor":
		return it.addBasicPart(tokens, lineIdx, "resistor",
			[]paramInfo{param(Resistance)},
			func(name string, p []float64) device.Device { return device.NewResistor(name, p[0]) })

	case "capacitor":
		return it.addBasicPart(tokens, lineIdx, "capacitor",
			[]paramInfo{param(Capacitance)},
			func(name string, p []float64) device.Device { return device.NewCapacitor(name, p[0]) })

	case "inductor":
		return it.addBasicPart(tokens, lineIdx, "inductor",
			[]paramInfo{param(Inductance)},
			func(name string, p []float64) device.Device { return device.NewInductor(name, p[0]) })

	case "current_source":
		return it.addBasicPart(tokens, lineIdx, "current_source",
			[]paramInfo{param(Current)},
			func(name string, p []float64) device.Device { return device.NewCurrentSource(name, p[0]) })

	case "voltage_source":
		return it.addBasicPart(tokens, lineIdx, "voltage_source",
			[]paramInfo{param(Voltage)},
			func(name string, p []float64) device.Device { return device.NewVoltageSource(name, p[0]) })

	case "voltage_source_2P":
		return it.addBasicPart(tokens, lineIdx, "voltage_source_2P",
			[]paramInfo{param(Voltage)},
			func(name string, p []float64) device.Device { return device.NewVoltageSource2P(name, p[0]) })

	case "ac_voltage_source":
		return it.addBasicPart(tokens, lineIdx, "ac_voltage_source",
			[]paramInfo{param(Frequency), param(Voltage), paramDefault(Angle, 0)},
			func(name string, p []float64) device.Device {
				return device.NewACVoltageSource(name, p[0], p[1], p[2])
			})

	case "ac_voltage_source_2P":
		return it.addBasicPart(tokens, lineIdx, "ac_voltage_source_2P",
			[]paramInfo{param(Frequency), param(Voltage), paramDefault(Angle, 0)},
			func(name string, p []float64) device.Device {
				return device.NewACVoltageSource2P(name, p[0], p[1], p[2])
			})

	case "switch":
		return it.addBasicPart(tokens, lineIdx, "switch",
			nil,
			func(name string, p []float64) device.Device { return device.NewSwitch(name) })

	case "op_amp":
		return it.addBasicPart(tokens, lineIdx, "op_amp",
			[]paramInfo{paramDefault(Voltage, -12.0), paramDefault(Voltage, 12.0), paramDefault(None, 1e5)},
			func(name string, p []float64) device.Device {
				return device.NewOpAmp(name, p[0], p[1], p[2])
			})

	case "scope":
		return it.executeScope(tokens, lineIdx)

	case "turn":
		return it.executeTurn(tokens, lineIdx)

	default:
		return it.parseConnections(tokens, lineIdx)
	}
}

// addBasicPart parses `<kind> <name> : <param> [, <param>]*` and registers
// the built device. Parameters bind to constructor slots by quantity, in
// slot order; slots left unbound fall back to their default or fail.
func (it *Interpreter) addBasicPart(tokens []string, lineIdx int, typeName string, signature []paramInfo, build func(string, []float64) device.Device) error {
	if len(tokens) < 2 {
		return errf(lineIdx, "expected part name after %q, got ''", typeName)
	}
	name := tokens[1]
	if !checkName(name) {
		return errf(lineIdx, "invalid part name %q", name)
	}
	if _, exists := it.circuit.Part(name); exists {
		return errf(lineIdx, "redefinition of part name %q", name)
	}

	var values []Value
	expectedSep := ":"
	for cur := 2; cur < len(tokens); cur += 2 {
		sep := tokens[cur]
		if cur+1 >= len(tokens) {
			return errf(lineIdx, "invalid number of parameters for %s %s", typeName, name)
		}
		if sep != expectedSep {
			return errf(lineIdx, "expected %q before %q, got %q", expectedSep, tokens[cur+1], sep)
		}
		expectedSep = ","

		if len(values) >= len(signature) {
			return errf(lineIdx, "invalid number of parameters for %s %s", typeName, name)
		}
		value, err := ParseValue(tokens[cur+1])
		if err != nil {
			return errf(lineIdx, "%v", err)
		}
		values = append(values, value)
	}

	params := make([]float64, len(signature))
	used := make([]bool, len(values))
	for slot, info := range signature {
		found := false
		for j, v := range values {
			if used[j] || v.Quantity != info.quantity {
				continue
			}
			params[slot] = v.Value
			used[j] = true
			found = true
			break
		}
		if found {
			continue
		}
		if info.hasDefault {
			params[slot] = info.def
			continue
		}
		return errf(lineIdx, "unable to find value for parameter %d (%s) of %s %s", slot, info.quantity, typeName, name)
	}
	for j, v := range values {
		if !used[j] {
			return errf(lineIdx, "no parameter of %s %s takes a %s value", typeName, name, v.Quantity)
		}
	}

	return it.circuit.AddPart(build(name, params))
}

func (it *Interpreter) parsePart(partname string, lineIdx int) (device.Device, error) {
	if !checkName(partname) {
		return nil, errf(lineIdx, "invalid part name %q", partname)
	}
	dev, ok := it.circuit.Part(partname)
	if !ok {
		return nil, errf(lineIdx, "unknown part name %q", partname)
	}
	return dev, nil
}

// parsePin resolves `partname` or `partname.pinname`, where pinname is a
// pin index or a named pin. In connection chains a bare two-pin part name
// is shorthand for one of its ends, selected by twoPinID.
func (it *Interpreter) parsePin(pinname string, lineIdx int, supportTwoPin bool, twoPinID int) (device.Pin, error) {
	dot := strings.LastIndexByte(pinname, '.')

	if dot == -1 {
		dev, err := it.parsePart(pinname, lineIdx)
		if err != nil {
			return device.Pin{}, err
		}
		switch {
		case dev.PinCount() == 1:
			return device.Pin{Owner: dev, Index: 0}, nil
		case dev.PinCount() == 2 && supportTwoPin:
			return device.Pin{Owner: dev, Index: twoPinID}, nil
		default:
			return device.Pin{}, errf(lineIdx, "invalid pin name %q", pinname)
		}
	}

	if dot == 0 || dot == len(pinname)-1 {
		return device.Pin{}, errf(lineIdx, "invalid pin name %q", pinname)
	}

	partname := pinname[:dot]
	pin := pinname[dot+1:]
	dev, err := it.parsePart(partname, lineIdx)
	if err != nil {
		return device.Pin{}, err
	}

	if idx, err := strconv.Atoi(pin); err == nil {
		if idx < 0 || idx >= dev.PinCount() {
			return device.Pin{}, errf(lineIdx, "%s doesn't have pin %s", partname, pin)
		}
		return device.Pin{Owner: dev, Index: idx}, nil
	}
	for i := 0; i < dev.PinCount(); i++ {
		if dev.PinName(i) == pin {
			return device.Pin{Owner: dev, Index: i}, nil
		}
	}
	return device.Pin{}, errf(lineIdx, "%s doesn't have pin %s", partname, pin)
}

// parseConnections executes a `pin - pin [- pin]*` chain. A two-pin part
// named bare enters the chain through pin 0 and continues out of pin 1,
// so `a - R1 - b` reads a - R1.0, R1.1 - b.
func (it *Interpreter) parseConnections(tokens []string, lineIdx int) error {
	for i := 0; i < len(tokens); i++ {
		pin0, err := it.parsePin(tokens[i], lineIdx, true, 1)
		if err != nil {
			return err
		}

		if i++; i >= len(tokens) {
			break
		}
		if tokens[i] != "-" {
			return errf(lineIdx, "expected '-' after %q, got %q", tokens[i-1], tokens[i])
		}
		if i++; i >= len(tokens) {
			return errf(lineIdx, "expected a pin name after %q -, got ''", tokens[i-2])
		}

		pin1, err := it.parsePin(tokens[i], lineIdx, true, 0)
		if err != nil {
			return err
		}

		it.circuit.Connect(pin0, pin1)
		i--
	}
	return nil
}

func (it *Interpreter) executeScope(tokens []string, lineIdx int) error {
	if len(tokens) < 2 {
		return errf(lineIdx, "expected 'current' or 'voltage' after 'scope', got ''")
	}
	quantity := tokens[1]
	if quantity != "current" && quantity != "voltage" {
		return errf(lineIdx, "expected 'current' or 'voltage' after 'scope', got %q", quantity)
	}
	isCurrent := quantity == "current"

	if len(tokens) < 3 {
		return errf(lineIdx, "expected 'of' or 'between' after 'scope %s', got ''", quantity)
	}

	switch tokens[2] {
	case "of":
		if len(tokens) < 4 {
			return errf(lineIdx, "expected part name after 'scope %s of', got ''", quantity)
		}
		dev, err := it.parsePart(tokens[3], lineIdx)
		if err != nil {
			return err
		}
		if dev.PinCount() != 2 {
			return errf(lineIdx, "expected a 2-pin part after 'scope %s of', got %q", quantity, tokens[3])
		}
		if len(tokens) > 4 {
			return errf(lineIdx, "unexpected token %q", tokens[4])
		}

		name := quantity + "_" + dev.Name()
		a := device.Pin{Owner: dev, Index: 0}
		b := device.Pin{Owner: dev, Index: 1}
		if isCurrent {
			it.circuit.ScopeCurrent(name, a, b)
		} else {
			it.circuit.ScopeVoltage(name, a, b)
		}
		return nil

	case "between":
		if len(tokens) < 4 {
			return errf(lineIdx, "expected pin name after 'scope %s between', got ''", quantity)
		}
		pin0, err := it.parsePin(tokens[3], lineIdx, false, 0)
		if err != nil {
			return err
		}
		if len(tokens) < 5 || tokens[4] != "and" {
			return errf(lineIdx, "expected 'and' after 'scope %s between %s'", quantity, tokens[3])
		}
		if len(tokens) < 6 {
			return errf(lineIdx, "expected pin name after 'scope %s between %s and', got ''", quantity, tokens[3])
		}
		pin1, err := it.parsePin(tokens[5], lineIdx, false, 0)
		if err != nil {
			return err
		}
		if len(tokens) > 6 {
			return errf(lineIdx, "unexpected token %q", tokens[6])
		}

		name := quantity + "_" + tokens[3] + "_" + tokens[5]
		if isCurrent {
			it.circuit.ScopeCurrent(name, pin0, pin1)
		} else {
			it.circuit.ScopeVoltage(name, pin0, pin1)
		}
		return nil

	default:
		return errf(lineIdx, "expected 'of' or 'between' after 'scope %s', got %q", quantity, tokens[2])
	}
}

func (it *Interpreter) executeTurn(tokens []string, lineIdx int) error {
	if len(tokens) < 2 {
		return errf(lineIdx, "expected 'on' or 'off' after 'turn', got ''")
	}
	turnTo := tokens[1]
	if turnTo != "on" && turnTo != "off" {
		return errf(lineIdx, "expected 'on' or 'off' after 'turn', got %q", turnTo)
	}

	if len(tokens) < 3 {
		return errf(lineIdx, "expected a switch name after 'turn %s', got ''", turnTo)
	}
	dev, err := it.parsePart(tokens[2], lineIdx)
	if err != nil {
		return err
	}
	sw, ok := dev.(*device.Switch)
	if !ok {
		return errf(lineIdx, "%s is not a switch", tokens[2])
	}

	if len(tokens) < 4 || tokens[3] != "at" {
		return errf(lineIdx, "expected 'at' after 'turn %s %s'", turnTo, tokens[2])
	}
	if len(tokens) < 5 {
		return errf(lineIdx, "expected a time value after 'turn %s %s at', got ''", turnTo, tokens[2])
	}
	value, err := ParseValue(tokens[4])
	if err != nil {
		return errf(lineIdx, "%v", err)
	}
	if value.Quantity != Time {
		return errf(lineIdx, "expected a time value after 'turn %s %s at', got %q", turnTo, tokens[2], tokens[4])
	}
	if len(tokens) > 5 {
		return errf(lineIdx, "unexpected token %q", tokens[5])
	}

	step := int(math.Round(value.Value / it.circuit.Timestep()))
	if turnTo == "on" {
		sw.ScheduleOn(step)
	} else {
		sw.ScheduleOff(step)
	}
	return nil
}
