package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/embeddedgo/tools/svd"
	"github.com/jbrzusto/surfmap/regmap"
)

func str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func svdAccess(m regmap.Mode) *string {
	switch m {
	case regmap.RO:
		return str("read-only")
	case regmap.WO:
		return str("write-only")
	}
	return str("read-write")
}

// registerAccess combines the access of the fields sharing a register.
func registerAccess(fs []*regmap.Field) *string {
	r, w := false, false
	for _, f := range fs {
		r = r || f.Mode.Readable()
		w = w || f.Mode.Writable()
	}
	switch {
	case r && !w:
		return svdAccess(regmap.RO)
	case w && !r:
		return svdAccess(regmap.WO)
	}
	return svdAccess(regmap.RW)
}

// SVD returns d as a CMSIS-SVD device.  Each device of the tree becomes
// one peripheral.  Enum labels that are not identifiers are rewritten,
// since SVD requires identifiers.
func SVD(d *regmap.Device) *svd.Device {
	dev := &svd.Device{
		Name:            ident(d.Name),
		Version:         "1.0",
		Description:     d.Description,
		AddressUnitBits: 8,
		Width:           32,
	}
	var walk func(d *regmap.Device, prefix string, base uint64)
	walk = func(d *regmap.Device, prefix string, base uint64) {
		dev.Peripherals = append(dev.Peripherals, svdPeripheral(d, prefix, base))
		for _, c := range d.Devices {
			walk(c, prefix+c.Name+".", base+c.Offset)
		}
	}
	walk(d, "", 0)
	return dev
}

func svdPeripheral(d *regmap.Device, prefix string, base uint64) *svd.Peripheral {
	name := d.Name
	if prefix != "" {
		name = prefix[:len(prefix)-1]
	}
	p := &svd.Peripheral{
		Name:         ident(name),
		Description:  str(d.Description),
		GroupName:    str(ident(d.Type)),
		BaseAddress:  svd.Uint64(base),
		AddressBlock: []*svd.AddressBlock{{Size: svd.Uint64(d.Size), Usage: "registers"}},
	}
	for _, r := range deviceRegisters(d, "", 0) {
		size := svd.Uint(r.bits)
		sr := &svd.Register{
			Name:          r.name(),
			AddressOffset: svd.Uint64(r.off),
			RegisterPropertiesGroup: &svd.RegisterPropertiesGroup{
				Size:   &size,
				Access: registerAccess(r.fields),
			},
		}
		for _, f := range r.fields {
			width := svd.Uint(f.BitSize)
			sf := &svd.Field{
				Name:                ident(f.Name),
				Description:         str(f.Description),
				BitRangeOffsetWidth: &svd.BitRangeOffsetWidth{BitOffset: svd.Uint(f.BitOffset), BitWidth: &width},
				Access:              svdAccess(f.Mode),
			}
			if len(f.Enum) > 0 {
				ev := &svd.EnumeratedValues{}
				for _, e := range f.Enum {
					ev.EnumeratedValue = append(ev.EnumeratedValue, &svd.EnumeratedValue{
						Name:  str(enumIdent(e.Label)),
						Value: str(strconv.FormatUint(e.Value, 10)),
					})
				}
				sf.EnumeratedValues = []*svd.EnumeratedValues{ev}
			}
			sr.Fields = append(sr.Fields, sf)
		}
		p.Registers = append(p.Registers, sr)
	}
	return p
}

// WriteSVD writes d as a CMSIS-SVD document.
func WriteSVD(w io.Writer, d *regmap.Device) error {
	var doc bytes.Buffer
	root := xml.StartElement{
		Name: xml.Name{Local: "device"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "schemaVersion"}, Value: "1.3"}},
	}
	if err := xml.NewEncoder(&doc).EncodeElement(SVD(d), root); err != nil {
		return err
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := copySVD(enc, xml.NewDecoder(&doc)); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// copySVD re-encodes a marshalled svd.Device, dropping the zero dim and
// dimIncrement elements that the svd types always emit and printing
// addresses in hex.
func copySVD(enc *xml.Encoder, dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return enc.Flush()
		}
		if err != nil {
			return err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			if err := enc.EncodeToken(xml.CopyToken(tok)); err != nil {
				return err
			}
			continue
		}
		switch start.Name.Local {
		case "dim", "dimIncrement", "baseAddress", "addressOffset":
		default:
			if err := enc.EncodeToken(start.Copy()); err != nil {
				return err
			}
			continue
		}
		var text string
		if err := dec.DecodeElement(&text, &start); err != nil {
			return err
		}
		switch start.Name.Local {
		case "dim", "dimIncrement":
			if text == "0" {
				continue
			}
		default:
			v, err := strconv.ParseUint(text, 0, 64)
			if err != nil {
				return err
			}
			text = fmt.Sprintf("0x%X", v)
		}
		if err := enc.EncodeElement(text, start.Copy()); err != nil {
			return err
		}
	}
}

func enumIdent(label string) string {
	s := ident(label)
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		s = fmt.Sprintf("V_%s", s)
	}
	return s
}
