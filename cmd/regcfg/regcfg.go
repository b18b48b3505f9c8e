package main

// Save and restore device register contents.
//
// Usage:
//
//    regcfg save DEVICE FILE.yml      write the RW fields as YAML
//    regcfg load DEVICE FILE.yml      set the fields named in a YAML file
//    regcfg hexdump DEVICE FILE.hex   write the readable registers as Intel HEX
//    regcfg hexload DEVICE FILE.hex   write the registers covered by an Intel HEX image
//
// A FILE of "-" means stdout or stdin.

import (
	"fmt"
	"io"
	"os"

	"github.com/jbrzusto/surfmap/fpga"
	"github.com/jbrzusto/surfmap/internal/cli"
	"github.com/jbrzusto/surfmap/snapshot"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

func usage() {
	os.Stderr.WriteString(`Usage:
  regcfg save|load|hexdump|hexload DEVICE FILE

Options:
`)
	pflag.PrintDefaults()
}

var actions = map[string]func(fs afero.Fs, name string, d *fpga.Device) error{
	"save": func(fs afero.Fs, name string, d *fpga.Device) error {
		if name == "-" {
			return snapshot.SaveYAML(os.Stdout, d)
		}
		return snapshot.SaveFile(fs, name, d)
	},
	"load": func(fs afero.Fs, name string, d *fpga.Device) error {
		if name == "-" {
			return snapshot.LoadYAML(os.Stdin, d)
		}
		return snapshot.LoadFile(fs, name, d)
	},
	"hexdump": func(fs afero.Fs, name string, d *fpga.Device) error {
		if name == "-" {
			return snapshot.DumpHex(os.Stdout, d)
		}
		f, err := fs.Create(name)
		if err != nil {
			return err
		}
		if err := snapshot.DumpHex(f, d); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
	"hexload": func(fs afero.Fs, name string, d *fpga.Device) error {
		var r io.Reader = os.Stdin
		if name != "-" {
			f, err := fs.Open(name)
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		n, err := snapshot.LoadHex(r, d)
		if err == nil {
			fmt.Fprintf(os.Stderr, "wrote %d registers\n", n)
		}
		return err
	},
}

func main() {
	logLevel := cli.LogFlag(pflag.CommandLine)
	pflag.Usage = usage
	pflag.Parse()
	if pflag.NArg() != 3 {
		usage()
		os.Exit(1)
	}
	act, ok := actions[pflag.Arg(0)]
	if !ok {
		usage()
		os.Exit(1)
	}
	env, err := cli.Open(afero.NewOsFs(), *logLevel)
	cli.FatalErr("", err)
	defer env.Close()
	in, err := env.Instance(pflag.Arg(1))
	cli.FatalErr("", err)
	cli.FatalErr(pflag.Arg(2), act(env.Fs, pflag.Arg(2), in.Dev))
}
