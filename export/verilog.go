package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jbrzusto/surfmap/regmap"
	"github.com/spf13/afero"
)

// Verilog generates the register snippets of a map: offset defines,
// register definitions, and the getter, setter and pulser clauses of the
// bus decoder.  Write-only fields are pulsed: they hold a written value
// for one clock cycle and then return to zero.
type Verilog struct {
	regs []*register
}

// NewVerilog collects the registers of d.
func NewVerilog(d *regmap.Device) *Verilog {
	return &Verilog{regs: allRegisters(d)}
}

// MMap returns the memory map offset definitions, plus one range define
// per field.
func (v *Verilog) MMap() string {
	var b strings.Builder
	for _, r := range v.regs {
		fmt.Fprintf(&b, "`define OFFSET_%-30s 20'h%05x\n", r.name(), r.off)
		for _, f := range r.fields {
			fmt.Fprintf(&b, "`define %-37s %d:%d // %s\n", ident(r.prefix+f.Name), f.BitOffset+f.BitSize-1, f.BitOffset, f.Description)
		}
	}
	return b.String()
}

// Defs returns the register definitions.
func (v *Verilog) Defs() string {
	var b strings.Builder
	for _, r := range v.regs {
		names := make([]string, len(r.fields))
		for i, f := range r.fields {
			names[i] = f.Name
		}
		fmt.Fprintf(&b, "   reg  [%d-1: 0] %-30s; // %s\n", r.bits, r.name(), strings.Join(names, " "))
	}
	return b.String()
}

// Getters returns the read clauses.  Uses 'ack' as the acknowledge
// signal, and 'rdata' as the data bus.  Write-only bits read as zero.
func (v *Verilog) Getters() string {
	const (
		ack  = "ack"
		dbus = "rdata"
	)
	var b strings.Builder
	for _, r := range v.regs {
		if !r.readable() {
			continue
		}
		var mask uint64
		for _, f := range r.fields {
			if f.Mode.Readable() {
				mask |= f.Mask()
			}
		}
		fmt.Fprintf(&b, "        `OFFSET_%-30s  : begin %s <= 1'b1;  %s <= %-30s & %d'h%x; end\n", r.name(), ack, dbus, r.name(), r.bits, mask)
	}
	return b.String()
}

// Setters returns the write clauses of the read-write fields.  Uses
// 'wdata' as the data bus.
func (v *Verilog) Setters() string {
	const dbus = "wdata"
	var b strings.Builder
	for _, r := range v.regs {
		var lines []string
		for _, f := range r.fields {
			if f.Mode != regmap.RW || f.Alias != "" {
				continue
			}
			rng := fmt.Sprintf("[%d:%d]", f.BitOffset+f.BitSize-1, f.BitOffset)
			lines = append(lines, fmt.Sprintf("%s%s <= %s%s;", r.name(), rng, dbus, rng))
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "        `OFFSET_%-30s  : begin %s end\n", r.name(), strings.Join(lines, " "))
	}
	return b.String()
}

// Pulsers returns the pulse logic of the write-only fields.  Uses 'wdata'
// as the data bus and 'addr' as the address bus.
func (v *Verilog) Pulsers() string {
	const (
		dbus = "wdata"
		addr = "addr"
	)
	var b strings.Builder
	for _, r := range v.regs {
		for _, f := range r.fields {
			if f.Mode != regmap.WO {
				continue
			}
			rng := fmt.Sprintf("[%d:%d]", f.BitOffset+f.BitSize-1, f.BitOffset)
			fmt.Fprintf(&b, "        %s%s <= {%d{%s[19:0] == `OFFSET_%-30s}} & %s%s;\n", r.name(), rng, f.BitSize, addr, r.name(), dbus, rng)
		}
	}
	return b.String()
}

// WriteFiles writes the snippets as generated_<part>.v files in dir.
func (v *Verilog) WriteFiles(fs afero.Fs, dir string) error {
	parts := []struct {
		name, title string
		text        func() string
	}{
		{"mmap", "memory map definitions", v.MMap},
		{"regdefs", "register definitions", v.Defs},
		{"getters", "getter logic", v.Getters},
		{"setters", "setter logic", v.Setters},
		{"pulsers", "pulser logic", v.Pulsers},
	}
	for _, p := range parts {
		if err := writeFile(fs, filepath.Join(dir, "generated_"+p.name+".v"), func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "// %s - generated by gen_verilog\n\n%s", p.title, p.text())
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(fs afero.Fs, name string, write func(io.Writer) error) error {
	f, err := fs.Create(name)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
