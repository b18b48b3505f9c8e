// Package export renders register maps as artifacts for other tools:
// Verilog snippets for the FPGA build, CMSIS-SVD descriptions, YAML
// descriptor tables and plain text listings.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jbrzusto/surfmap/regmap"
)

// register is one word of a device with the fields that live in it.
type register struct {
	prefix string // dotted path of the owning device, with trailing "."
	off    uint64 // byte offset from the root of the map
	bits   uint
	fields []*regmap.Field
}

// name identifies the register in generated code.
func (r *register) name() string {
	return fmt.Sprintf("%sREG_%05X", ident(r.prefix), r.off)
}

func (r *register) readable() bool {
	for _, f := range r.fields {
		if f.Mode.Readable() {
			return true
		}
	}
	return false
}

// deviceRegisters groups the fields of d, not of its children, by
// register, in offset order.  base is added to every offset.
func deviceRegisters(d *regmap.Device, prefix string, base uint64) []*register {
	byOff := make(map[uint64]*register)
	for _, f := range d.Fields {
		off := base + f.Offset
		r := byOff[off]
		if r == nil {
			r = &register{prefix: prefix, off: off, bits: d.Convention.WordBits}
			byOff[off] = r
		}
		r.fields = append(r.fields, f)
	}
	rs := make([]*register, 0, len(byOff))
	for _, r := range byOff {
		rs = append(rs, r)
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].off < rs[j].off })
	return rs
}

// allRegisters lists the registers of d and all its children.
func allRegisters(d *regmap.Device) []*register {
	var rs []*register
	var walk func(d *regmap.Device, prefix string, base uint64)
	walk = func(d *regmap.Device, prefix string, base uint64) {
		rs = append(rs, deviceRegisters(d, prefix, base)...)
		for _, c := range d.Devices {
			walk(c, prefix+c.Name+".", base+c.Offset)
		}
	}
	walk(d, "", 0)
	return rs
}

// ident turns a field path into an identifier usable in Verilog and C.
func ident(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, s)
}
