package main

// Peek/Poke device fields and run device commands.
//
// Usage:
//
//    pk2 [OPTIONS] ITEM ...
//
// where each ITEM is one of
//  - DEVICE.PATH        print the value of a field
//  - DEVICE.PATH=VALUE  set a field; VALUE is a number or an enum label
//  - DEVICE/COMMAND     run a command script
//
// Items are processed in order.  DEVICE is a device named in
// surfmap.toml, or a device type, which is then mapped at offset 0.

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/jbrzusto/surfmap/internal/cli"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

func usage() {
	os.Stderr.WriteString(`Usage:
  pk2 [OPTIONS] ITEM ...

ITEM is DEVICE.PATH to peek, DEVICE.PATH=VALUE to poke or DEVICE/COMMAND
to run a command script.

Options:
`)
	pflag.PrintDefaults()
}

func main() {
	apply := pflag.BoolP("apply", "a", false, "first apply the configured images and YAML files of every device")
	raw := pflag.BoolP("raw", "r", false, "print peeked values as numbers, not in their display base")
	txns := pflag.IntP("txns", "t", 0, "on the in-memory bus, print up to this many of the last bus transactions on exit")
	logLevel := cli.LogFlag(pflag.CommandLine)
	pflag.Usage = usage
	pflag.Parse()
	if pflag.NArg() == 0 && !*apply {
		usage()
		os.Exit(1)
	}

	env, err := cli.Open(afero.NewOsFs(), *logLevel)
	cli.FatalErr("", err)
	defer env.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if *apply {
		for _, in := range env.Instances {
			cli.FatalErr("", in.Apply(env.Fs))
		}
	}
	for _, item := range pflag.Args() {
		cli.FatalErr(item, do(ctx, env, item, *raw))
	}
	if m := env.Memory(); m != nil && *txns > 0 {
		for _, t := range m.Log.Last(*txns) {
			fmt.Println(t)
		}
	}
}

func do(ctx context.Context, env *cli.Env, item string, raw bool) error {
	if i := strings.Index(item, "/"); i >= 0 {
		in, err := env.Instance(item[:i])
		if err != nil {
			return err
		}
		return in.Dev.RunCommand(ctx, item[i+1:])
	}
	if i := strings.Index(item, "="); i >= 0 {
		in, path, err := env.Field(item[:i])
		if err != nil {
			return err
		}
		return in.Dev.SetDisp(path, item[i+1:])
	}
	in, path, err := env.Field(item)
	if err != nil {
		return err
	}
	if raw {
		v, err := in.Dev.Get(path)
		if err != nil {
			return err
		}
		fmt.Printf("%s %#x\n", item, v)
		return nil
	}
	s, err := in.Dev.GetDisp(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", item, s)
	return nil
}
