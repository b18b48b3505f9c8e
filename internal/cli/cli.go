// Package cli holds the start-up code shared by the command line tools:
// reading the configuration, opening the bus and binding devices.
package cli

import (
	"fmt"
	"os"

	"github.com/jbrzusto/surfmap/config"
	"github.com/jbrzusto/surfmap/fpga"
	"github.com/jbrzusto/surfmap/surf"
	"github.com/spf13/afero"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Fatal prints a formatted message to stderr and exits the program.
func Fatal(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

// FatalErr prints an error description and exits the program if
// err != nil.
func FatalErr(what string, err error) {
	if err == nil {
		return
	}
	s := err.Error() + "\n"
	if what != "" {
		s = what + ": " + s
	}
	os.Stderr.WriteString(s)
	os.Exit(1)
}

// Env is what a tool needs to talk to devices.
type Env struct {
	Fs        afero.Fs
	Viper     *viper.Viper
	Config    *config.Config
	Bus       fpga.Bus
	Instances []*config.Instance

	closeBus func() error
	opts     []fpga.Option
}

// LogFlag adds the --log flag, which overrides log.level.
func LogFlag(fs *pflag.FlagSet) *string {
	return fs.String("log", "", "log level: trace, debug, info, warn, error, critical or fatal")
}

// Open reads the configuration from fs, sets up logging, opens the bus
// and binds the configured devices.  A non-empty logLevel overrides the
// configured one.
func Open(fs afero.Fs, logLevel string, opts ...fpga.Option) (*Env, error) {
	v := config.New(fs)
	c, _, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		logLevel = c.Log.Level
	}
	if err := config.SetupLogging(logLevel); err != nil {
		return nil, err
	}
	bus, closeBus, err := config.OpenBus(c.Bus)
	if err != nil {
		return nil, err
	}
	ins, err := config.Instances(c, bus, opts...)
	if err != nil {
		closeBus()
		return nil, err
	}
	jww.DEBUG.Printf("bus %s with %d devices", c.Bus.Kind, len(ins))
	return &Env{
		Fs:        fs,
		Viper:     v,
		Config:    c,
		Bus:       bus,
		Instances: ins,
		closeBus:  closeBus,
		opts:      opts,
	}, nil
}

// Close releases the bus.
func (e *Env) Close() error { return e.closeBus() }

// Memory returns the bus when it is an in-memory register file.
func (e *Env) Memory() *fpga.Memory {
	m, _ := e.Bus.(*fpga.Memory)
	return m
}

// Instance returns the configured device called name.  When there is
// none and name is a device type, a map of that type is bound at offset
// 0, which lets the tools work on the in-memory bus without any
// configuration.
func (e *Env) Instance(name string) (*config.Instance, error) {
	for _, in := range e.Instances {
		if in.Name == name {
			return in, nil
		}
	}
	m, err := surf.Build(name)
	if err != nil {
		return nil, fmt.Errorf("no device %q in the configuration: %w", name, err)
	}
	in := &config.Instance{
		Device: config.Device{Name: name, Type: name},
		Dev:    fpga.NewDevice(m, e.Bus, 0, e.opts...),
	}
	e.Instances = append(e.Instances, in)
	return in, nil
}

// Field splits arg, written DEVICE.PATH, into a device and the path of a
// field within it.  Device type names may contain dots themselves, so
// every split point is tried from the left.
func (e *Env) Field(arg string) (*config.Instance, string, error) {
	var last error = fmt.Errorf("%s: expected DEVICE.PATH", arg)
	for i := 0; i < len(arg); i++ {
		if arg[i] != '.' {
			continue
		}
		in, err := e.Instance(arg[:i])
		if err != nil {
			last = err
			continue
		}
		path := arg[i+1:]
		if _, _, err := in.Dev.Map.Lookup(path); err != nil {
			last = err
			continue
		}
		return in, path, nil
	}
	return nil, "", last
}
