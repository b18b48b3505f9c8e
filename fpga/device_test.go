package fpga

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/jbrzusto/surfmap/buffer"
	"github.com/jbrzusto/surfmap/regmap"
	"github.com/jbrzusto/surfmap/surf"
)

// noSleep records the pauses of a command instead of taking them.
type noSleep struct {
	delays []time.Duration
}

func (n *noSleep) sleep(ctx context.Context, d time.Duration) error {
	n.delays = append(n.delays, d)
	return ctx.Err()
}

func newDevice(t *testing.T, typ string, base uint64) (*Device, *Memory, *noSleep) {
	t.Helper()
	m, err := surf.Build(typ)
	if err != nil {
		t.Fatal(err)
	}
	mem := NewMemory(0)
	ns := &noSleep{}
	return NewDevice(m, mem, base, WithSleep(ns.sleep)), mem, ns
}

func TestGetSet(t *testing.T) {
	d, mem, _ := newDevice(t, "JesdRx", 0x1000)
	mem.Poke(0x1010, 0xFFFFFFC0)
	if err := d.Set("replaceEnable", 1); err != nil {
		t.Fatal(err)
	}
	if err := d.Set("scrambleEnable", 1); err != nil {
		t.Fatal(err)
	}
	if got := mem.Peek(0x1010); got != 0xFFFFFFE2 {
		t.Errorf("register = %#x, want 0xffffffe2", got)
	}
	if v, err := d.Get("replaceEnable"); err != nil || v != 1 {
		t.Errorf("Get = %d, %v", v, err)
	}
	if err := d.Set("replaceEnable", 0); err != nil {
		t.Fatal(err)
	}
	if got := mem.Peek(0x1010); got != 0xFFFFFFE0 {
		t.Errorf("register = %#x after clearing, want 0xffffffe0", got)
	}

	mem.Poke(0x104c, 1)
	if s, err := d.GetDisp("gTReady_3"); err != nil || s != "True" {
		t.Errorf("GetDisp(gTReady_3) = %q, %v", s, err)
	}
	if err := d.SetDisp("enable", "0x3"); err != nil {
		t.Fatal(err)
	}
	if s, _ := d.GetDisp("enable"); s != "0x3" {
		t.Errorf("GetDisp(enable) = %q", s)
	}
}

func TestAccessErrors(t *testing.T) {
	d, _, _ := newDevice(t, "Lmk04828", 0)
	var me *ModeError
	if err := d.Set("RB_HOLDOVER", 1); !errors.As(err, &me) || me.Op != "write" {
		t.Errorf("Set of RO field = %v", err)
	}
	if _, err := d.Get("RESET"); !errors.As(err, &me) || me.Op != "read" {
		t.Errorf("Get of WO field = %v", err)
	}
	var re *RangeError
	if err := d.Set("EnableSysRef", 4); !errors.As(err, &re) || re.Bits != 2 {
		t.Errorf("Set out of range = %v", err)
	}
	var nf *regmap.NotFoundError
	if _, err := d.Get("NOPE"); !errors.As(err, &nf) {
		t.Errorf("Get of missing field = %v", err)
	}
	if err := d.SetDisp("EnableSysRef", "SYSREF Sometimes"); err == nil {
		t.Error("SetDisp accepted an unknown label")
	}
}

func TestShadow(t *testing.T) {
	d, mem, _ := newDevice(t, "Lmk04828", 0)
	if err := d.Set("SPI_3WIRE_DIS", 1); err != nil {
		t.Fatal(err)
	}
	// RESET shares the register with SPI_3WIRE_DIS but cannot be read
	// back; the write must keep the bit already set through d.
	mem.Poke(0, 0)
	if err := d.Set("RESET", 1); err != nil {
		t.Fatal(err)
	}
	if got := mem.Peek(0); got != 0x90 {
		t.Errorf("register 0 = %#x, want 0x90", got)
	}
	if v, ok := d.Shadow("RESET"); !ok || v != 1 {
		t.Errorf("Shadow(RESET) = %d, %v", v, ok)
	}
	if _, ok := d.Shadow("POWERDOWN"); ok {
		t.Error("shadow of an unwritten register")
	}
}

func TestChildPaths(t *testing.T) {
	d, mem, _ := newDevice(t, "Adc32Rf45", 0x100000)
	if err := d.SetDisp("CH[1].NYQUIST_ZONE", "3rd Nyquist zone"); err != nil {
		t.Fatal(err)
	}
	addr := uint64(0x100000 + 0x20000 + 0xC000 + 0x0A2<<2)
	if got := mem.Peek(addr); got != 2 {
		t.Errorf("NYQUIST_ZONE register = %#x, want 2", got)
	}
	ws := mem.Log.Writes(10)
	if len(ws) != 1 || ws[0].Bits != 8 {
		t.Errorf("writes = %v, want one 8-bit write", ws)
	}
}

// Running a one-step script touches the bus exactly like setting the
// field directly.
func TestRunMatchesSet(t *testing.T) {
	var tests = []struct {
		typ   string
		cmd   string
		field string
		value uint64
	}{
		{"Lmk04828", "PwrDwnSysRef", "EnableSysRef", 0},
		{"Lmk04828", "PwrUpSysRef", "EnableSysRef", 3},
		{"Adc32Rf45", "PwrUpSysRef", "EnableSysRef", 1},
		{"Adc32Rf45", "PwrDwnSysRef", "EnableSysRef", 0},
	}
	for _, test := range tests {
		a, ma, _ := newDevice(t, test.typ, 0)
		b, mb, _ := newDevice(t, test.typ, 0)
		for _, m := range []*Memory{ma, mb} {
			_, off, _ := a.Map.Lookup(test.field)
			m.Poke(off, 0x55)
		}
		if err := a.RunCommand(context.Background(), test.cmd); err != nil {
			t.Fatalf("%s %s: %v", test.typ, test.cmd, err)
		}
		if err := b.Set(test.field, test.value); err != nil {
			t.Fatal(err)
		}
		la, lb := ma.Log.Last(100), mb.Log.Last(100)
		if !reflect.DeepEqual(la, lb) {
			t.Errorf("%s %s: bus log %v, want %v", test.typ, test.cmd, la, lb)
		}
	}
}

func TestRunDelays(t *testing.T) {
	d, _, ns := newDevice(t, "Lmk04828", 0)
	if err := d.RunCommand(context.Background(), "Init"); err != nil {
		t.Fatal(err)
	}
	var total time.Duration
	for _, dt := range ns.delays {
		total += dt
	}
	if want := d.Map.Command("Init").Duration(); total != want {
		t.Errorf("slept %v, want %v", total, want)
	}
	if v, err := d.Get("SYNC_POL"); err != nil || v != 0 {
		t.Errorf("SYNC_POL = %d, %v after Init", v, err)
	}
}

func TestRunLeadingPause(t *testing.T) {
	d, mem, ns := newDevice(t, "Lmk04828", 0)
	cmd := regmap.NewCommand("Settle", "").Sleep(5 * time.Millisecond).W("SYNC_POL", 1)
	if err := d.Run(context.Background(), cmd); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ns.delays, []time.Duration{5 * time.Millisecond}) {
		t.Errorf("delays = %v", ns.delays)
	}
	if v, err := d.Get("SYNC_POL"); err != nil || v != 1 {
		t.Errorf("SYNC_POL = %d, %v", v, err)
	}
	if ws := mem.Log.Writes(10); len(ws) != 1 {
		t.Errorf("writes = %v, want one", ws)
	}
}

func TestRunErrors(t *testing.T) {
	d, mem, _ := newDevice(t, "Lmk04828", 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.RunCommand(ctx, "Init"); err != context.Canceled {
		t.Errorf("Run with cancelled context = %v", err)
	}
	if mem.Log.Total() != 0 {
		t.Errorf("cancelled run touched the bus %d times", mem.Log.Total())
	}

	var nf *regmap.NotFoundError
	if err := d.RunCommand(context.Background(), "Launch"); !errors.As(err, &nf) {
		t.Errorf("RunCommand(Launch) = %v", err)
	}

	bad := regmap.NewCommand("Bad", "").W("SYNC_EN", 1).W("RB_HOLDOVER", 1).W("SYNC_POL", 1)
	err := d.Run(context.Background(), bad)
	var se *StepError
	if !errors.As(err, &se) || se.Index != 1 || se.Field != "RB_HOLDOVER" {
		t.Fatalf("Run(Bad) = %v", err)
	}
	var me *ModeError
	if !errors.As(err, &me) {
		t.Errorf("step error does not wrap the mode error: %v", err)
	}
	if v, _ := d.Get("SYNC_POL"); v != 0 {
		t.Error("Run continued after a failed step")
	}
}

func TestRunStopsDuringSleep(t *testing.T) {
	m := surf.MustBuild("Lmk04828")
	d := NewDevice(m, NewMemory(0), 0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	start := time.Now()
	if err := d.RunCommand(ctx, "Init"); err != context.DeadlineExceeded {
		t.Errorf("Run = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Run did not stop sleeping when the context ended")
	}
}

func TestRegisters(t *testing.T) {
	d, mem, _ := newDevice(t, "Gthe3Channel", 0x200)
	if err := d.WriteReg(0x61, 16, 0x8001); err != nil {
		t.Fatal(err)
	}
	if v, err := d.Get("DFE_D_X_REL_POS"); err != nil || v != 1 {
		t.Errorf("DFE_D_X_REL_POS = %d, %v", v, err)
	}
	if v, err := d.ReadReg(0x61, 16); err != nil || v != 0x8001 {
		t.Errorf("ReadReg = %#x, %v", v, err)
	}
	// DRP registers are two bytes apart on the bus
	if got := mem.Addrs(); !reflect.DeepEqual(got, []uint64{0x2C2}) {
		t.Errorf("Addrs = %v", got)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory(4)
	m.Write(0x10, 8, 0x1FF)
	if v, _ := m.Read(0x10, 8); v != 0xFF {
		t.Errorf("8-bit register holds %#x", v)
	}
	if v, _ := m.Read(0x20, 32); v != 0 {
		t.Errorf("unwritten register reads %#x", v)
	}
	want := []buffer.Txn{
		{Addr: 0x10, Bits: 8, Value: 0xFF, Write: true},
		{Addr: 0x10, Bits: 8, Value: 0xFF},
		{Addr: 0x20, Bits: 32},
	}
	if got := m.Log.Last(10); !reflect.DeepEqual(got, want) {
		t.Errorf("log = %v, want %v", got, want)
	}
	m.Poke(0x30, 5)
	if m.Log.Total() != 3 || m.Peek(0x30) != 5 {
		t.Error("Poke was logged or lost")
	}
}

func TestWordSizes(t *testing.T) {
	var tests = []struct {
		bits  uint
		bytes int
		mask  uint64
	}{
		{8, 1, 0xFF},
		{16, 2, 0xFFFF},
		{32, 4, 0xFFFFFFFF},
		{64, 8, ^uint64(0)},
	}
	for _, test := range tests {
		if b := wordBytes(test.bits); b != test.bytes {
			t.Errorf("wordBytes(%d) = %d", test.bits, b)
		}
		if m := wordMask(test.bits); m != test.mask {
			t.Errorf("wordMask(%d) = %#x", test.bits, m)
		}
	}
}

func TestFileBus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regs")
	if err := os.WriteFile(path, make([]byte, 0x1000), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := Open(path, 0, 0x1000)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	d := NewDevice(surf.MustBuild("Gthe3Channel"), f, 0)
	settings := []struct {
		path string
		v    uint64
		addr uint64 // bus address of the register
		word uint64
	}{
		{"RXBUFRESET_TIME", 3, 0x6, 0x1800},
		{"RXCDRFREQRESET_TIME", 0x1F, 0x6, 0x181F},
		{"RXDFELPMRESET_TIME", 0x7F, 0x8, 0xFE},
		{"DFE_D_X_REL_POS", 1, 0xC2, 0x8000},
	}
	for _, s := range settings {
		if err := d.Set(s.path, s.v); err != nil {
			t.Fatalf("Set(%s): %v", s.path, err)
		}
		if w, err := f.Read(s.addr, 16); err != nil || w != s.word {
			t.Errorf("after %s: register %#x = %#x, %v; want %#x", s.path, s.addr, w, err, s.word)
		}
	}
	for _, s := range settings {
		if v, err := d.Get(s.path); err != nil || v != s.v {
			t.Errorf("%s = %#x, %v; want %#x", s.path, v, err, s.v)
		}
	}

	var ae *AddrError
	if _, err := f.Read(0x3, 16); !errors.As(err, &ae) {
		t.Errorf("unaligned read = %v", err)
	}
	if _, err := f.Read(0x1000, 8); !errors.As(err, &ae) {
		t.Errorf("read past the window = %v", err)
	}
}

