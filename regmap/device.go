// Package regmap models the register maps of FPGA and SPI-attached
// devices as static tables of named bit slices.
//
// A Device is built once from a declaration (see Extract) and is not
// modified afterwards; register values live outside of it, behind whatever
// transport the consumer uses. Fields of a device are kept in declaration
// order, which matters for listings and saved configurations.
//
// Devices nest: an ADC map holds one child device per channel, anchored at
// the child's Offset relative to the parent.
package regmap

import (
	"fmt"
	"strings"
)

// Alias records two fields that deliberately claim the same bits, e.g. the
// same bit documented under different names for different silicon
// revisions.
type Alias struct {
	Name string // the aliasing field
	Of   string // the field it overlaps
}

// Device is a named register map anchored at Offset within its parent.
type Device struct {
	Name        string
	Type        string
	Description string
	Offset      uint64
	Size        uint64
	Convention  Convention
	Fields      []*Field
	Aliases     []Alias
	Devices     []*Device
	Commands    []*Command
}

// Field returns the named field of d, not of its children.
func (d *Device) Field(name string) *Field {
	for _, f := range d.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Device returns the named child.
func (d *Device) Device(name string) *Device {
	for _, c := range d.Devices {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Command returns the named command.
func (d *Device) Command(name string) *Command {
	for _, c := range d.Commands {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Lookup resolves a dotted path such as "CH[0].DIGITAL_GAIN" and returns the
// field with its byte offset relative to d.
func (d *Device) Lookup(path string) (*Field, uint64, error) {
	_, f, off, err := d.Resolve(path)
	return f, off, err
}

// Resolve is like Lookup but also returns the device that declares the
// field, whose Convention gives the register width.
func (d *Device) Resolve(path string) (*Device, *Field, uint64, error) {
	var off uint64
	dev := d
	parts := strings.Split(path, ".")
	for _, p := range parts[:len(parts)-1] {
		c := dev.Device(p)
		if c == nil {
			return nil, nil, 0, &NotFoundError{Device: dev.Name, Name: p}
		}
		off += c.Offset
		dev = c
	}
	name := parts[len(parts)-1]
	f := dev.Field(name)
	if f == nil {
		return nil, nil, 0, &NotFoundError{Device: dev.Name, Name: name}
	}
	return dev, f, off + f.Offset, nil
}

// BusAddr maps a byte offset relative to d to the distance from the start
// of d on a bus, following the convention of each device on the way down.
func (d *Device) BusAddr(off uint64) uint64 {
	for _, c := range d.Devices {
		if off >= c.Offset && off < c.Offset+c.Size {
			return d.Convention.BusAddr(c.Offset) + c.BusAddr(off-c.Offset)
		}
	}
	return d.Convention.BusAddr(off)
}

// BusSize is the number of bus bytes d spans.
func (d *Device) BusSize() uint64 { return d.Convention.BusAddr(d.Size) }

// WithOffset returns a shallow copy of d anchored at off. The fields,
// children and commands are shared with d.
func (d *Device) WithOffset(off uint64) *Device {
	c := *d
	c.Offset = off
	return &c
}

// WithName returns a shallow copy of d called name.
func (d *Device) WithName(name string) *Device {
	c := *d
	c.Name = name
	return &c
}

// Walk calls fn for every field of d and its children, depth first in
// declaration order. path is the dotted path of the field relative to d and
// off its byte offset relative to d. Walk stops at the first error.
func (d *Device) Walk(fn func(path string, off uint64, f *Field) error) error {
	return d.walk("", 0, fn)
}

func (d *Device) walk(prefix string, base uint64, fn func(string, uint64, *Field) error) error {
	for _, f := range d.Fields {
		if err := fn(prefix+f.Name, base+f.Offset, f); err != nil {
			return err
		}
	}
	for _, c := range d.Devices {
		if err := c.walk(prefix+c.Name+".", base+c.Offset, fn); err != nil {
			return err
		}
	}
	return nil
}

// NumFields counts the fields of d and all its children.
func (d *Device) NumFields() int {
	n := len(d.Fields)
	for _, c := range d.Devices {
		n += c.NumFields()
	}
	return n
}

func (d *Device) String() string {
	return fmt.Sprintf("%s(%s) @%#x size %#x", d.Name, d.Type, d.Offset, d.Size)
}
