// Package analysis runs a prepared circuit through its step loop.
package analysis

import (
	"github.com/Myshaak-Jr/SimLogue/pkg/circuit"
)

type Analysis interface {
	Setup(ckt *circuit.Circuit) error
	Execute() error
}
