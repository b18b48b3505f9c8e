package fpga

import (
	"fmt"

	"github.com/jbrzusto/surfmap/regmap"
)

// ModeError is returned when reading a write-only field or writing a
// read-only one.
type ModeError struct {
	Path string
	Mode regmap.Mode
	Op   string
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("cannot %s %s field %s", e.Op, e.Mode, e.Path)
}

// RangeError is returned when a value does not fit its field.
type RangeError struct {
	Path  string
	Value uint64
	Bits  uint
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: value %#x does not fit in %d bits", e.Path, e.Value, e.Bits)
}

// AddrError is returned by a Bus for an access it cannot perform.
type AddrError struct {
	Addr   uint64
	Bits   uint
	Reason string
}

func (e *AddrError) Error() string {
	return fmt.Sprintf("register %#x/%d: %s", e.Addr, e.Bits, e.Reason)
}

// StepError wraps the failure of one step of a command.
type StepError struct {
	Command string
	Index   int
	Field   string
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step %d (%s): %v", e.Command, e.Index, e.Field, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
