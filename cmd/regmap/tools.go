package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jbrzusto/surfmap/export"
	"github.com/jbrzusto/surfmap/internal/cli"
	"github.com/jbrzusto/surfmap/regmap"
	"github.com/jbrzusto/surfmap/surf"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

// flagSet returns a flag set whose usage message starts with
// "Usage:\n  regmap <args[0]> <usage>".
func flagSet(args []string, usage, descr string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(args[0], pflag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  regmap %s %s\n\n%s\n", args[0], usage, descr)
		if fs.HasFlags() {
			os.Stderr.WriteString("\nOptions:\n")
			fs.PrintDefaults()
		}
	}
	return fs
}

// typeArg parses args and returns the single device type it names.
func typeArg(fs *pflag.FlagSet, args []string) *regmap.Device {
	fs.Parse(args[1:])
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	d, err := surf.Build(fs.Arg(0))
	cli.FatalErr("", err)
	return d
}

// output returns stdout, or the named file when name is not empty.
func output(name string) (io.Writer, func()) {
	if name == "" {
		return os.Stdout, func() {}
	}
	f, err := afero.NewOsFs().Create(name)
	cli.FatalErr("", err)
	return f, func() { cli.FatalErr(name, f.Close()) }
}

func listMain(args []string) {
	fs := flagSet(args, "", "List the device types with their conventions, field counts and commands.")
	fs.Parse(args[1:])
	var ds []*regmap.Device
	for _, t := range surf.Types() {
		d, err := surf.Build(t)
		cli.FatalErr(t, err)
		ds = append(ds, d)
	}
	cli.FatalErr("", export.Summary(os.Stdout, ds))
}

func showMain(args []string) {
	fs := flagSet(args, "TYPE", "List every field of TYPE and its child devices.")
	d := typeArg(fs, args)
	cli.FatalErr("", export.Listing(os.Stdout, d))
}

func lintMain(args []string) {
	fs := flagSet(args, "[TYPE|FILE.yml ...]",
		"Validate device types, or descriptor tables written by 'regmap table'.\nWithout arguments all built-in types are checked.")
	verbose := fs.BoolP("verbose", "v", false, "also list the aliases of each device")
	fs.Parse(args[1:])
	names := fs.Args()
	if len(names) == 0 {
		names = surf.Types()
	}
	failed := false
	for _, name := range names {
		d, err := lint(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			failed = true
			continue
		}
		fmt.Printf("%s: ok, %d fields\n", name, d.NumFields())
		if *verbose {
			printAliases(d, "")
		}
	}
	if failed {
		os.Exit(1)
	}
}

func lint(name string) (*regmap.Device, error) {
	if _, err := os.Stat(name); err != nil {
		return surf.Build(name)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return export.ReadDescriptors(f)
}

func printAliases(d *regmap.Device, prefix string) {
	for _, a := range d.Aliases {
		fmt.Printf("  %s%s aliases %s%s\n", prefix, a.Name, prefix, a.Of)
	}
	for _, c := range d.Devices {
		printAliases(c, prefix+c.Name+".")
	}
}

func tableMain(args []string) {
	fs := flagSet(args, "TYPE", "Write the descriptor table of TYPE as YAML.")
	out := fs.StringP("output", "o", "", "write to this file instead of stdout")
	d := typeArg(fs, args)
	w, done := output(*out)
	cli.FatalErr("", export.WriteDescriptors(w, d))
	done()
}

func svdMain(args []string) {
	fs := flagSet(args, "TYPE", "Write a CMSIS-SVD description of TYPE.")
	out := fs.StringP("output", "o", "", "write to this file instead of stdout")
	d := typeArg(fs, args)
	w, done := output(*out)
	cli.FatalErr("", export.WriteSVD(w, d))
	done()
}

func scriptsMain(args []string) {
	fs := flagSet(args, "TYPE", "List the command scripts of TYPE with their steps and delays.")
	d := typeArg(fs, args)
	cli.FatalErr("", export.Scripts(os.Stdout, d))
}
