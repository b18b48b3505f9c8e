package regmap

import "fmt"

// Convention describes how a family of register maps turns declared
// register addresses into byte offsets, and how wide each register is.
//
// Two families in this module describe nominally the same GTHE3 transceiver
// with different conventions. They are not interchangeable.
type Convention struct {
	Name      string
	Shift     uint // declared address << Shift == byte offset
	Stride    uint // byte distance between consecutive registers
	WordBits  uint // width of one register
	BusStride uint // distance between consecutive registers on the bus, if not Stride
}

var (
	// AXI32 maps are declared in byte offsets of 32-bit AXI-Lite words.
	AXI32 = Convention{Name: "axi32", Shift: 0, Stride: 4, WordBits: 32}
	// DRPByte maps declare raw DRP addresses of 16-bit registers.  On the
	// bus each register takes two bytes, at twice its DRP address.
	DRPByte = Convention{Name: "drp", Shift: 0, Stride: 1, WordBits: 16, BusStride: 2}
	// DRPWord maps place each 16-bit DRP register in its own 32-bit word.
	DRPWord = Convention{Name: "drp32", Shift: 2, Stride: 4, WordBits: 16}
	// SPI8 maps place each 8-bit SPI register in its own 32-bit word.
	SPI8 = Convention{Name: "spi8", Shift: 2, Stride: 4, WordBits: 8}
)

var conventions = []Convention{AXI32, DRPByte, DRPWord, SPI8}

// ConventionByName returns one of the predefined conventions.
func ConventionByName(name string) (Convention, error) {
	for _, c := range conventions {
		if c.Name == name {
			return c, nil
		}
	}
	return Convention{}, fmt.Errorf("unknown offset convention %q", name)
}

// WordBytes is the number of bytes needed to hold one register.
func (c Convention) WordBytes() uint { return (c.WordBits + 7) / 8 }

// Offset converts a declared register address to a byte offset.
func (c Convention) Offset(addr uint64) uint64 { return addr << c.Shift }

// Aligned reports whether off starts a register.
func (c Convention) Aligned(off uint64) bool { return c.Stride != 0 && off%uint64(c.Stride) == 0 }

// ImageAddr maps a byte offset to its address in a packed register image,
// in which registers are stored back to back.
func (c Convention) ImageAddr(off uint64) uint64 {
	return off / uint64(c.Stride) * uint64(c.WordBytes())
}

// OffsetOf is the inverse of ImageAddr.
func (c Convention) OffsetOf(imageAddr uint64) uint64 {
	return imageAddr / uint64(c.WordBytes()) * uint64(c.Stride)
}

// BusAddr maps a byte offset to its distance from the start of the map on
// a bus.
func (c Convention) BusAddr(off uint64) uint64 {
	if c.BusStride == 0 || c.BusStride == c.Stride {
		return off
	}
	return off/uint64(c.Stride)*uint64(c.BusStride) + off%uint64(c.Stride)
}

func (c Convention) String() string { return c.Name }
