package fpga

import (
	"context"
	"sync"
	"time"

	"github.com/jbrzusto/surfmap/regmap"
	jww "github.com/spf13/jwalterweatherman"
)

// Device is a register map bound to a Bus at a base address.  Fields are
// addressed by their dotted path in the map, e.g. "CH[1].NL_TRIM_3".
//
// Write-only registers cannot be read back, so the last word written to
// each register is kept as a shadow value.  Setting a write-only field
// starts from the shadow rather than from the bus.
type Device struct {
	Map  *regmap.Device
	Bus  Bus
	Base uint64

	sleep func(context.Context, time.Duration) error

	mu     sync.Mutex
	shadow map[uint64]uint64
}

// Option configures a Device.
type Option func(*Device)

// WithSleep replaces the function used to pause between command steps.
// Tests use it to run scripts without waiting.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(d *Device) { d.sleep = sleep }
}

// NewDevice binds m to bus at base.
func NewDevice(m *regmap.Device, bus Bus, base uint64, opts ...Option) *Device {
	d := &Device{
		Map:    m,
		Bus:    bus,
		Base:   base,
		sleep:  sleepContext,
		shadow: make(map[uint64]uint64),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func sleepContext(ctx context.Context, dt time.Duration) error {
	t := time.NewTimer(dt)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// resolve returns the field at path, its bus address and register width.
func (d *Device) resolve(path string) (*regmap.Field, uint64, uint, error) {
	owner, f, off, err := d.Map.Resolve(path)
	if err != nil {
		return nil, 0, 0, err
	}
	return f, d.Base + d.Map.BusAddr(off), owner.Convention.WordBits, nil
}

// Get reads the field at path.
func (d *Device) Get(path string) (uint64, error) {
	f, addr, bits, err := d.resolve(path)
	if err != nil {
		return 0, err
	}
	if !f.Mode.Readable() {
		return 0, &ModeError{Path: path, Mode: f.Mode, Op: "read"}
	}
	word, err := d.Bus.Read(addr, bits)
	if err != nil {
		return 0, err
	}
	return f.Extract(word), nil
}

// Set writes v to the field at path, leaving the other bits of the
// register unchanged.
func (d *Device) Set(path string, v uint64) error {
	f, addr, bits, err := d.resolve(path)
	if err != nil {
		return err
	}
	if !f.Mode.Writable() {
		return &ModeError{Path: path, Mode: f.Mode, Op: "write"}
	}
	if !f.Fits(v) {
		return &RangeError{Path: path, Value: v, Bits: f.BitSize}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var word uint64
	if f.Mode.Readable() {
		if word, err = d.Bus.Read(addr, bits); err != nil {
			return err
		}
	} else {
		word = d.shadow[addr]
	}
	word = f.Insert(word, v)
	if err := d.Bus.Write(addr, bits, word); err != nil {
		return err
	}
	d.shadow[addr] = word
	return nil
}

// Shadow returns the value of the field at path as of the last write
// through d, whether or not the field is readable.
func (d *Device) Shadow(path string) (uint64, bool) {
	f, addr, _, err := d.resolve(path)
	if err != nil {
		return 0, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	word, ok := d.shadow[addr]
	return f.Extract(word), ok
}

// GetDisp reads the field at path and formats it for display.
func (d *Device) GetDisp(path string) (string, error) {
	v, err := d.Get(path)
	if err != nil {
		return "", err
	}
	f, _, _ := d.Map.Lookup(path)
	return f.Format(v), nil
}

// SetDisp parses s as a display value of the field at path and writes it.
func (d *Device) SetDisp(path, s string) error {
	f, _, err := d.Map.Lookup(path)
	if err != nil {
		return err
	}
	v, err := f.Parse(s)
	if err != nil {
		return err
	}
	return d.Set(path, v)
}

// ReadReg reads the whole register at byte offset off from the map.
func (d *Device) ReadReg(off uint64, bits uint) (uint64, error) {
	return d.Bus.Read(d.Base+d.Map.BusAddr(off), bits)
}

// WriteReg writes the whole register at byte offset off from the map.
func (d *Device) WriteReg(off uint64, bits uint, v uint64) error {
	addr := d.Base + d.Map.BusAddr(off)
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.Bus.Write(addr, bits, v); err != nil {
		return err
	}
	d.shadow[addr] = v
	return nil
}

// Run performs the steps of cmd in order, pausing after each as required.
// It stops at the first failing step or when ctx is done.
func (d *Device) Run(ctx context.Context, cmd *regmap.Command) error {
	jww.INFO.Printf("%s: running %s (%d steps, %v)", d.Map.Name, cmd.Name, len(cmd.Steps), cmd.Duration())
	for i, s := range cmd.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.Pause() {
			jww.DEBUG.Printf("%s: %s = %#x", cmd.Name, s.Field, s.Value)
			if err := d.Set(s.Field, s.Value); err != nil {
				return &StepError{Command: cmd.Name, Index: i, Field: s.Field, Err: err}
			}
		}
		if s.Delay > 0 {
			if err := d.sleep(ctx, s.Delay); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunCommand runs the named command of the map.
func (d *Device) RunCommand(ctx context.Context, name string) error {
	cmd := d.Map.Command(name)
	if cmd == nil {
		return &regmap.NotFoundError{Device: d.Map.Name, Name: name}
	}
	return d.Run(ctx, cmd)
}
