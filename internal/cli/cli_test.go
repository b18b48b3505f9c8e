package cli

import (
	"testing"

	"github.com/jbrzusto/surfmap/config"
	"github.com/jbrzusto/surfmap/fpga"
	"github.com/jbrzusto/surfmap/surf"
)

func TestField(t *testing.T) {
	mem := fpga.NewMemory(0)
	adc := &config.Instance{
		Device: config.Device{Name: "adc0", Type: "Adc32Rf45", Offset: 0x100000},
		Dev:    fpga.NewDevice(surf.MustBuild("Adc32Rf45").WithName("adc0"), mem, 0x100000),
	}
	e := &Env{Bus: mem, Instances: []*config.Instance{adc}}

	var tests = []struct {
		arg, dev, path string
	}{
		{"adc0.CH[1].NYQUIST_ZONE", "adc0", "CH[1].NYQUIST_ZONE"},
		{"xilinx._Gthe3Channel.DFE_VCM_COMP_EN", "xilinx._Gthe3Channel", "DFE_VCM_COMP_EN"},
		{"Lmk04828.EnableSysRef", "Lmk04828", "EnableSysRef"},
	}
	for _, test := range tests {
		in, path, err := e.Field(test.arg)
		if err != nil {
			t.Errorf("Field(%s): %v", test.arg, err)
			continue
		}
		if in.Name != test.dev || path != test.path {
			t.Errorf("Field(%s) = %s, %s", test.arg, in.Name, path)
		}
	}
	if len(e.Instances) != 3 {
		t.Errorf("%d instances after binding two types", len(e.Instances))
	}
	in, err := e.Instance("Lmk04828")
	if err != nil || in != e.Instances[2] {
		t.Errorf("type bound twice: %v", err)
	}

	for _, arg := range []string{"adc0", "adc0.NOPE", "dac0.EnableSysRef"} {
		if _, _, err := e.Field(arg); err == nil {
			t.Errorf("Field(%s) succeeded", arg)
		}
	}
	if e.Memory() != mem {
		t.Error("Memory did not return the in-memory bus")
	}
}
