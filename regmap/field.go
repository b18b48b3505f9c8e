package regmap

import "fmt"

// Field is one named bit slice of a device's register space.
type Field struct {
	Name        string
	Offset      uint64 // byte offset from the owning device
	BitOffset   uint   // least significant bit within the register
	BitSize     uint
	Mode        Mode
	Base        Base
	Enum        Enum
	Description string
	Alias       string // field this one intentionally overlaps, if any
}

func (f *Field) valueMask() uint64 {
	if f.BitSize >= 64 {
		return ^uint64(0)
	}
	return 1<<f.BitSize - 1
}

// Mask returns the bits of the register occupied by the field.
func (f *Field) Mask() uint64 { return f.valueMask() << f.BitOffset }

// Fits reports whether v can be stored in the field.
func (f *Field) Fits(v uint64) bool { return v&^f.valueMask() == 0 }

// Extract returns the field's value from a whole register.
func (f *Field) Extract(word uint64) uint64 { return word >> f.BitOffset & f.valueMask() }

// Insert returns word with the field replaced by v. Bits of v beyond the
// field's size are dropped.
func (f *Field) Insert(word, v uint64) uint64 {
	return word&^f.Mask() | (v&f.valueMask())<<f.BitOffset
}

// Overlaps reports whether f and g claim a common bit of the same register.
func (f *Field) Overlaps(g *Field) bool {
	return f.Offset == g.Offset && f.Mask()&g.Mask() != 0
}

// Format renders v the way the field's base type displays it.
func (f *Field) Format(v uint64) string { return f.Base.Format(v, f.Enum) }

// Parse reads a display string for the field and checks that it fits.
func (f *Field) Parse(s string) (uint64, error) {
	v, err := f.Base.Parse(s, f.Enum)
	if err != nil {
		return 0, err
	}
	if !f.Fits(v) {
		return 0, fmt.Errorf("%s: value %#x does not fit in %d bits", f.Name, v, f.BitSize)
	}
	return v, nil
}

func (f *Field) String() string {
	return fmt.Sprintf("%s @%#x [%d:%d] %s", f.Name, f.Offset, f.BitOffset+f.BitSize-1, f.BitOffset, f.Mode)
}
