package config

import (
	"fmt"
	"sort"

	"github.com/jbrzusto/surfmap/fpga"
	"github.com/jbrzusto/surfmap/snapshot"
	"github.com/jbrzusto/surfmap/surf"
	"github.com/spf13/afero"
	jww "github.com/spf13/jwalterweatherman"
)

// OpenBus opens the bus described by c.  The returned function releases
// it.
func OpenBus(c Bus) (fpga.Bus, func() error, error) {
	switch c.Kind {
	case "devmem":
		f, err := fpga.Open(c.Memfile, int64(c.Base), int64(c.Size))
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	case "mem":
		return fpga.NewMemory(0), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("config: unknown bus kind %q", c.Kind)
}

// Instance is a configured device bound to the bus.
type Instance struct {
	Device
	Dev *fpga.Device
}

// Instances builds the register map of every configured device and binds
// it to bus.  Devices whose address ranges overlap are rejected.
func Instances(c *Config, bus fpga.Bus, opts ...fpga.Option) ([]*Instance, error) {
	ins := make([]*Instance, 0, len(c.Devices))
	for _, d := range c.Devices {
		m, err := surf.Build(d.Type)
		if err != nil {
			return nil, fmt.Errorf("config: device %s: %w", d.Name, err)
		}
		m = m.WithName(d.Name)
		ins = append(ins, &Instance{Device: d, Dev: fpga.NewDevice(m, bus, d.Offset, opts...)})
	}
	sorted := append([]*Instance(nil), ins...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })
	for i := 1; i < len(sorted); i++ {
		a, b := sorted[i-1], sorted[i]
		if a.Offset+a.Dev.Map.BusSize() > b.Offset {
			return nil, fmt.Errorf("config: devices %s and %s overlap at %#x", a.Name, b.Name, b.Offset)
		}
	}
	return ins, nil
}

// Apply loads the startup image and then the YAML configuration of in,
// when they are set.  File names are relative to fs.
func (in *Instance) Apply(fs afero.Fs) error {
	if in.Image != "" {
		f, err := fs.Open(in.Image)
		if err != nil {
			return err
		}
		n, err := snapshot.LoadHex(f, in.Dev)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %s: %w", in.Name, in.Image, err)
		}
		jww.INFO.Printf("%s: loaded %d registers from %s", in.Name, n, in.Image)
	}
	if in.Config != "" {
		if err := snapshot.LoadFile(fs, in.Config, in.Dev); err != nil {
			return fmt.Errorf("%s: %s: %w", in.Name, in.Config, err)
		}
		jww.INFO.Printf("%s: applied %s", in.Name, in.Config)
	}
	return nil
}
