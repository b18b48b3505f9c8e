package export

import (
	"bytes"
	"encoding/xml"
	"reflect"
	"strings"
	"testing"

	"github.com/embeddedgo/tools/svd"
	"github.com/jbrzusto/surfmap/regmap"
	"github.com/jbrzusto/surfmap/surf"
	"github.com/spf13/afero"
)

func TestVerilog(t *testing.T) {
	var tests = []struct {
		typ      string
		part     func(*Verilog) string
		contains []string
		lacks    []string
	}{
		{"JesdRx", (*Verilog).MMap, []string{"`define OFFSET_REG_0004C", "`define gTReady_3 ", " 0:0 // GT Ready"}, nil},
		{"JesdRx", (*Verilog).Defs, []string{"   reg  [32-1: 0] REG_00010 ", "subClass replaceEnable resetGTs"}, nil},
		{"JesdRx", (*Verilog).Getters, []string{"`OFFSET_REG_00000", "& 32'h3f; end"}, nil},
		{"JesdRx", (*Verilog).Setters, []string{"REG_00004[4:0] <= wdata[4:0];"}, []string{"REG_0004C"}},
		{"JesdRx", (*Verilog).Pulsers, nil, []string{"REG_"}},
		{"Lmk04828", (*Verilog).Pulsers, []string{"REG_00000[7:7] <= {1{addr[19:0] == `OFFSET_REG_00000"}, nil},
		{"Lmk04828", (*Verilog).Getters, []string{"& 8'h7f; end"}, nil},
		{"Adc32Rf45", (*Verilog).Getters, []string{"CH_1__REG_2C288"}, []string{"`OFFSET_REG_00000 "}},
		{"Adc32Rf45", (*Verilog).MMap, []string{"`define CH_0__NL_TRIM_7"}, nil},
	}
	for _, test := range tests {
		text := test.part(NewVerilog(surf.MustBuild(test.typ)))
		for _, s := range test.contains {
			if !strings.Contains(text, s) {
				t.Errorf("%s: output lacks %q:\n%s", test.typ, s, text)
			}
		}
		for _, s := range test.lacks {
			if strings.Contains(text, s) {
				t.Errorf("%s: output holds %q:\n%s", test.typ, s, text)
			}
		}
	}
}

func TestVerilogAlias(t *testing.T) {
	v := NewVerilog(surf.MustBuild("xilinx._Gthe3Channel"))
	if n := strings.Count(v.Setters(), "REG_00184[15:15]"); n != 1 {
		t.Errorf("aliased bit set %d times", n)
	}
	if !strings.Contains(v.MMap(), "`define DFE_VCM_COMP_EN") {
		t.Error("alias missing from the memory map")
	}
}

func TestWriteFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := NewVerilog(surf.MustBuild("Lmk04828")).WriteFiles(fs, "out"); err != nil {
		t.Fatal(err)
	}
	for _, part := range []string{"mmap", "regdefs", "getters", "setters", "pulsers"} {
		b, err := afero.ReadFile(fs, "out/generated_"+part+".v")
		if err != nil {
			t.Errorf("%s: %v", part, err)
			continue
		}
		if !bytes.HasPrefix(b, []byte("// ")) || !bytes.Contains(b, []byte("generated by gen_verilog")) {
			t.Errorf("%s: bad header %q", part, b[:40])
		}
	}
}

func TestSVD(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSVD(&buf, surf.MustBuild("Adc32Rf45")); err != nil {
		t.Fatal(err)
	}
	text := buf.String()
	if !strings.HasPrefix(text, xml.Header+"<device schemaVersion=\"1.3\">") {
		t.Errorf("bad document start %q", text[:80])
	}
	for _, s := range []string{"<baseAddress>0x20000</baseAddress>", "<addressOffset>0xC288</addressOffset>"} {
		if !strings.Contains(text, s) {
			t.Errorf("document lacks %s", s)
		}
	}
	if strings.Contains(text, "<dim>") || strings.Contains(text, "<dimIncrement>") {
		t.Error("registers are not arrays but carry dim elements")
	}
	var dev svd.Device
	if err := xml.Unmarshal(buf.Bytes(), &dev); err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	if dev.Name != "Adc32Rf45" || len(dev.Peripherals) != 3 {
		t.Fatalf("device %s with %d peripherals", dev.Name, len(dev.Peripherals))
	}
	ch1 := dev.Peripherals[2]
	if ch1.Name != "CH_1_" || ch1.BaseAddress != 0x20000 || ch1.GroupName == nil || *ch1.GroupName != "Adc32Rf45Channel" {
		t.Errorf("second channel = %s at %#x", ch1.Name, uint64(ch1.BaseAddress))
	}
	var nz *svd.Field
	for _, r := range ch1.Registers {
		for _, f := range r.Fields {
			if f.Name == "NYQUIST_ZONE" {
				nz = f
				if r.AddressOffset != 0xC000+0xA2<<2 || r.RegisterPropertiesGroup == nil || *r.Size != 8 {
					t.Errorf("NYQUIST_ZONE register at %#x", uint64(r.AddressOffset))
				}
			}
		}
	}
	if nz == nil || len(nz.EnumeratedValues) != 1 {
		t.Fatal("NYQUIST_ZONE or its values missing")
	}
	v := nz.EnumeratedValues[0].EnumeratedValue[1]
	if n, err := v.Val(); err != nil || n != 1 || *v.Name != "V_2nd_Nyquist_zone" {
		t.Errorf("enumerated value = %s, %d, %v", *v.Name, n, err)
	}
	reset := dev.Peripherals[0].Registers[0]
	if reset.RegisterPropertiesGroup == nil || *reset.Access != "write-only" {
		t.Error("RESET register is not write-only")
	}
}

func TestDescriptorsRoundTrip(t *testing.T) {
	for _, typ := range surf.Types() {
		d := surf.MustBuild(typ)
		var buf bytes.Buffer
		if err := WriteDescriptors(&buf, d); err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		d2, err := ReadDescriptors(&buf)
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if !reflect.DeepEqual(d2.Table(), d.Table()) {
			t.Errorf("%s: table changed in a round trip", typ)
		}
		if !reflect.DeepEqual(d2.Aliases, d.Aliases) {
			t.Errorf("%s: aliases = %v, want %v", typ, d2.Aliases, d.Aliases)
		}
	}
}

func TestReadDescriptorsErrors(t *testing.T) {
	var tests = []string{
		"name: X\ntype: X\nsize: 16\nconvention: axi32\nfields:\n- {name: A, offset: 0, bitOffset: 0, bitSize: 40}\n",
		"name: X\ntype: X\nsize: 16\nconvention: axi32\nfields:\n- {name: A, offset: 0, bitSize: 1, mode: XX}\n",
		"name: X\ntype: X\nconvention: axi32\ncolour: blue\n",
		"name: X\ntype: X\nconvention: uart\n",
	}
	for _, s := range tests {
		if _, err := ReadDescriptors(strings.NewReader(s)); err == nil {
			t.Errorf("ReadDescriptors(%q) succeeded", s)
		}
	}
	d, err := ReadDescriptors(strings.NewReader("name: X\ntype: X\nsize: 16\nconvention: drp32\nfields:\n- {name: A, offset: 4, bitOffset: 3, bitSize: 2, mode: RO, base: hex}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if f := d.Field("A"); f == nil || f.Mode != regmap.RO || f.Base != regmap.Hex || f.BitOffset != 3 {
		t.Errorf("field = %v", f)
	}
}

func TestListing(t *testing.T) {
	var buf bytes.Buffer
	if err := Listing(&buf, surf.MustBuild("xilinx._Gthe3Channel")); err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, line := range strings.Split(buf.String(), "\n") {
		fs := strings.Fields(line)
		if len(fs) < 5 || fs[0] != "DFE_VCM_COMP_EN" {
			continue
		}
		found = true
		if want := []string{"DFE_VCM_COMP_EN", "0x00184", "[15:15]", "RW", "bool", "alias", "of", "DFE_D_X_REL_POS."}; !reflect.DeepEqual(fs[:len(want)], want) {
			t.Errorf("listing line = %q", line)
		}
	}
	if !found {
		t.Errorf("alias missing from the listing:\n%s", buf.String())
	}
}

func TestScriptsAndSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := Scripts(&buf, surf.MustBuild("Lmk04828")); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"PwrDwnSysRef", "EnableSysRef", "sleep 1s"} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("scripts lack %q:\n%s", s, buf.String())
		}
	}

	buf.Reset()
	ds := []*regmap.Device{surf.MustBuild("AxiEmpty"), surf.MustBuild("Lmk04828")}
	if err := Summary(&buf, ds); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "AxiEmpty") || !strings.Contains(lines[1], "PwrDwnSysRef,PwrUpSysRef,Init") {
		t.Errorf("summary:\n%s", buf.String())
	}
}

func TestIdent(t *testing.T) {
	var tests = []struct {
		in, want string
	}{
		{"CH[1].NL_TRIM_3", "CH_1__NL_TRIM_3"},
		{"xilinx._Gthe3Channel", "xilinx__Gthe3Channel"},
		{"gTReady_3", "gTReady_3"},
	}
	for _, test := range tests {
		if got := ident(test.in); got != test.want {
			t.Errorf("ident(%q) = %q, want %q", test.in, got, test.want)
		}
	}
	if got := enumIdent("1st Nyquist zone"); got != "V_1st_Nyquist_zone" {
		t.Errorf("enumIdent = %q", got)
	}
}
