package main

// Show one or more device fields at repeated intervals.
//
// Usage:
//
//    showreg [-c COUNT] N DEVICE.PATH1 M1 DEVICE.PATH2 M2 ...
//
// where
//  - N is the number of milliseconds to wait between burst reads of the
//    fields
//  - DEVICE.PATHi is a configured device name, or a device type, followed
//    by the path of a field within it, e.g. adc0.CH[1].NYQUIST_ZONE
//  - Mi is the number of reads to do in a burst from DEVICE.PATHi
//
// Each burst is printed on one line.

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jbrzusto/surfmap/fpga"
	"github.com/jbrzusto/surfmap/internal/cli"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

type watch struct {
	name string
	dev  *fpga.Device
	path string
	n    int
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage:\n  showreg [OPTIONS] N DEVICE.PATH1 M1 DEVICE.PATH2 M2 ...\n\nOptions:\n")
	pflag.PrintDefaults()
}

func main() {
	count := pflag.IntP("count", "c", 0, "number of bursts; 0 means forever")
	logLevel := cli.LogFlag(pflag.CommandLine)
	pflag.Usage = usage
	pflag.Parse()
	args := pflag.Args()
	if len(args) < 3 || len(args)%2 != 1 {
		usage()
		os.Exit(1)
	}
	ms, err := strconv.Atoi(args[0])
	cli.FatalErr("bad interval", err)

	env, err := cli.Open(afero.NewOsFs(), *logLevel)
	cli.FatalErr("", err)
	defer env.Close()

	var ws []watch
	for i := 1; i < len(args); i += 2 {
		in, path, err := env.Field(args[i])
		cli.FatalErr("", err)
		n, err := strconv.Atoi(args[i+1])
		if err != nil || n < 1 {
			cli.Fatal("%s: bad burst count %q", args[i], args[i+1])
		}
		ws = append(ws, watch{name: args[i], dev: in.Dev, path: path, n: n})
	}

	for k := 0; *count == 0 || k < *count; k++ {
		if k > 0 {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		}
		var b strings.Builder
		for _, w := range ws {
			fmt.Fprintf(&b, "%s:", w.name)
			for j := 0; j < w.n; j++ {
				v, err := w.dev.GetDisp(w.path)
				cli.FatalErr(w.name, err)
				b.WriteString(" " + v)
			}
			b.WriteString("  ")
		}
		fmt.Println(strings.TrimSpace(b.String()))
	}
}
