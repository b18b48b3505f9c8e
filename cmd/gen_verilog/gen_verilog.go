package main

// Generate verilog snippets for an FPGA build exposing a register map.
// The snippets create memory maps, register definitions, getters, setters, and pulsers
// for the registers of one device type.
//
// Usage:
//
//    gen_verilog [-d DIR] TYPE
//
// writes generated_mmap.v, generated_regdefs.v, generated_getters.v,
// generated_setters.v and generated_pulsers.v to DIR.

import (
	"fmt"
	"os"
	"strings"

	"github.com/jbrzusto/surfmap/export"
	"github.com/jbrzusto/surfmap/internal/cli"
	"github.com/jbrzusto/surfmap/surf"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

func main() {
	dir := pflag.StringP("dir", "d", ".", "directory for the generated files")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  gen_verilog [-d DIR] TYPE\n\nTYPE is one of %s\n\nOptions:\n", strings.Join(surf.Types(), ", "))
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(1)
	}
	d, err := surf.Build(pflag.Arg(0))
	cli.FatalErr("", err)
	fs := afero.NewOsFs()
	cli.FatalErr(*dir, fs.MkdirAll(*dir, 0755))
	cli.FatalErr("", export.NewVerilog(d).WriteFiles(fs, *dir))
}
