// Package fpga gives register-level access to devices described by
// regmap tables.
//
// On the target, FPGA registers are accessed via mmap()ing a segment of
// /dev/mem and reading and writing words of the returned []byte through
// unsafe.Pointer().  Off target, a sparse in-memory register file stands
// in for the hardware and records every access, so command scripts can be
// checked word by word.
//
// Register addresses on a Bus are byte offsets from the start of the bus.
// A Device binds one register map to a bus at a base address and
// reads and writes its fields by name.  Map offsets reach the bus through
// regmap.Device.BusAddr, so byte-addressed 16-bit DRP registers sit two
// bytes apart and stay aligned.
package fpga

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

const (
	DEV_MEM   = "/dev/mem" // default memory device
	BASE_ADDR = 0x80000000 // default physical address of the AXI-Lite register window
	BASE_SIZE = 0x01000000 // default size of the mapped window
	PAGE_SIZE = 4096       // mmap offsets must be a multiple of this
)

// Bus is a register address space.  bits is the register width; an
// implementation transfers the smallest natural word that holds it.
type Bus interface {
	Read(addr uint64, bits uint) (uint64, error)
	Write(addr uint64, bits uint, v uint64) error
}

// FPGA is a Bus over a window of physical memory.
type FPGA struct {
	regSlice []byte   // registers as a byte slice, from mmap()
	memfile  *os.File // pointer to open file for mmaping registers
	base     int64
}

// Open maps size bytes of path starting at base.  path is normally
// DEV_MEM, but any file of sufficient size can be mapped, which is
// handy for working on a copy of a register image.
func Open(path string, base, size int64) (fpga *FPGA, err error) {
	if base%PAGE_SIZE != 0 {
		return nil, fmt.Errorf("fpga: base %#x is not page aligned", base)
	}
	fpga = &FPGA{base: base}
	fpga.memfile, err = os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0744)
	if err != nil {
		return nil, err
	}
	fpga.regSlice, err = syscall.Mmap(int(fpga.memfile.Fd()), base, int(size), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		fpga.memfile.Close()
		return nil, fmt.Errorf("fpga: mmap %s at %#x: %w", path, base, err)
	}
	return fpga, nil
}

// Close frees FPGA resources.
func (fpga *FPGA) Close() error {
	if fpga.memfile == nil {
		return nil
	}
	err := syscall.Munmap(fpga.regSlice)
	fpga.regSlice = nil
	if cerr := fpga.memfile.Close(); err == nil {
		err = cerr
	}
	fpga.memfile = nil
	return err
}

// Size is the number of mapped bytes.
func (fpga *FPGA) Size() uint64 { return uint64(len(fpga.regSlice)) }

func (fpga *FPGA) word(addr uint64, bits uint) (unsafe.Pointer, error) {
	n := uint64(wordBytes(bits))
	if addr%n != 0 {
		return nil, &AddrError{Addr: addr, Bits: bits, Reason: "unaligned"}
	}
	if addr+n > uint64(len(fpga.regSlice)) {
		return nil, &AddrError{Addr: addr, Bits: bits, Reason: "outside the mapped window"}
	}
	return unsafe.Pointer(&fpga.regSlice[addr]), nil
}

// Read returns the register at addr.
func (fpga *FPGA) Read(addr uint64, bits uint) (uint64, error) {
	p, err := fpga.word(addr, bits)
	if err != nil {
		return 0, err
	}
	switch wordBytes(bits) {
	case 1:
		return uint64(*(*uint8)(p)), nil
	case 2:
		return uint64(*(*uint16)(p)), nil
	case 4:
		return uint64(*(*uint32)(p)), nil
	}
	return *(*uint64)(p), nil
}

// Write stores v in the register at addr.
func (fpga *FPGA) Write(addr uint64, bits uint, v uint64) error {
	p, err := fpga.word(addr, bits)
	if err != nil {
		return err
	}
	switch wordBytes(bits) {
	case 1:
		*(*uint8)(p) = uint8(v)
	case 2:
		*(*uint16)(p) = uint16(v)
	case 4:
		*(*uint32)(p) = uint32(v)
	default:
		*(*uint64)(p) = v
	}
	return nil
}

// wordBytes is the size of the natural word holding a bits-wide register.
func wordBytes(bits uint) int {
	switch {
	case bits <= 8:
		return 1
	case bits <= 16:
		return 2
	case bits <= 32:
		return 4
	}
	return 8
}

func wordMask(bits uint) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return 1<<bits - 1
}
