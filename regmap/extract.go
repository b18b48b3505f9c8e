package regmap

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	jww "github.com/spf13/jwalterweatherman"
)

// Bits declares one register field, or a range of them, in a map
// declaration struct. Only the struct tags of a Bits field are read:
//
//	reg:    field name; must contain %d when dim is set
//	offset: register address, converted by the device's Convention
//	lsb:    bit offset of the field within the register (default 0)
//	size:   number of bits (default 1)
//	mode:   "RW", "RO" or "WO" (default RW)
//	base:   "uint", "hex", "bool" or "enum" (default uint, or enum when an
//	        enum is given)
//	enum:   "0=Label,1=Label,..."
//	desc:   human-readable description
//	dim:    number of copies of the field
//	stride: register address distance between copies
//	step:   multiplier applied to the copy index in the name (default 1)
//	first:  index used in the name of the first copy (default 0)
//	alias:  name of a field this one deliberately overlaps
type Bits struct{}

// Info holds device-level tags in a blank field of a declaration struct:
//
//	type: device type name
//	size: address space size in bytes
//	conv: offset convention name (see ConventionByName)
//	desc: description
type Info struct{}

// Struct-typed fields of a declaration are either child devices, tagged
//
//	dev:    child name (with %d when dim is set)
//	base:   byte offset of the child
//	dim, stride (bytes), step, first as for Bits
//
// or inline groups of registers sharing a page, tagged
//
//	base:   byte offset added to every register in the group
//	prefix: string prepended to every field name in the group

// commander is implemented by declarations that carry command scripts.
type commander interface {
	Commands() []*Command
}

var (
	bitsType = reflect.TypeOf(Bits{})
	infoType = reflect.TypeOf(Info{})
)

// Extract builds a Device from a declaration struct (or pointer to one).
// The result is not validated; see Validate.
func Extract(decl interface{}) (*Device, error) {
	t := reflect.TypeOf(decl)
	if t == nil {
		return nil, errors.New("regmap: nil declaration")
	}
	return extract(t)
}

func extract(t reflect.Type) (*Device, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("regmap: declaration %s is not a struct", t)
	}
	d, err := deviceInfo(t)
	if err != nil {
		return nil, err
	}
	if err := extractFields(d, t, "", 0); err != nil {
		return nil, err
	}
	for _, f := range d.Fields {
		if f.Alias != "" {
			jww.INFO.Printf("%s: %s aliases %s at %#x", d.Type, f.Name, f.Alias, f.Offset)
			d.Aliases = append(d.Aliases, Alias{Name: f.Name, Of: f.Alias})
		}
	}
	if c, ok := reflect.New(t).Interface().(commander); ok {
		d.Commands = c.Commands()
	}
	return d, nil
}

func deviceInfo(t reflect.Type) (*Device, error) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Type != infoType {
			continue
		}
		terr := func(tag string, err error) error {
			return &TagError{Type: t.Name(), Field: f.Name, Tag: tag, Err: err}
		}
		typ := f.Tag.Get("type")
		if typ == "" {
			return nil, terr("type", errors.New("missing device type"))
		}
		size, err := tagUint(f.Tag, "size", 0)
		if err != nil {
			return nil, terr("size", err)
		}
		conv, err := ConventionByName(f.Tag.Get("conv"))
		if err != nil {
			return nil, terr("conv", err)
		}
		return &Device{
			Name:        typ,
			Type:        typ,
			Description: f.Tag.Get("desc"),
			Size:        size,
			Convention:  conv,
		}, nil
	}
	return nil, fmt.Errorf("regmap: declaration %s has no regmap.Info field", t)
}

func extractFields(d *Device, t reflect.Type, prefix string, base uint64) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		switch {
		case sf.Type == infoType:
		case sf.Type == bitsType:
			fs, err := bits(d.Convention, t, sf, prefix, base)
			if err != nil {
				return err
			}
			d.Fields = append(d.Fields, fs...)
		case sf.Type.Kind() == reflect.Struct && sf.Tag.Get("dev") != "":
			cs, err := children(t, sf)
			if err != nil {
				return err
			}
			d.Devices = append(d.Devices, cs...)
		case sf.Type.Kind() == reflect.Struct:
			off, err := tagUint(sf.Tag, "base", 0)
			if err != nil {
				return &TagError{Type: t.Name(), Field: sf.Name, Tag: "base", Err: err}
			}
			if err := extractFields(d, sf.Type, prefix+sf.Tag.Get("prefix"), base+off); err != nil {
				return err
			}
		}
	}
	return nil
}

// span holds the range tags of a ranged declaration.
type span struct {
	dim, stride, step, first uint64
}

func copies(tag reflect.StructTag) (s span, err error) {
	if s.dim, err = tagUint(tag, "dim", 1); err != nil {
		return
	}
	if s.stride, err = tagUint(tag, "stride", 0); err != nil {
		return
	}
	if s.step, err = tagUint(tag, "step", 1); err != nil {
		return
	}
	s.first, err = tagUint(tag, "first", 0)
	return
}

func (s span) name(pattern string, i uint64) (string, error) {
	if s.dim == 1 && !strings.Contains(pattern, "%d") {
		return pattern, nil
	}
	if !strings.Contains(pattern, "%d") {
		return "", errors.New("ranged name needs %d")
	}
	return fmt.Sprintf(pattern, s.first+i*s.step), nil
}

func bits(conv Convention, t reflect.Type, sf reflect.StructField, prefix string, base uint64) ([]*Field, error) {
	tag := sf.Tag
	terr := func(name string, err error) error {
		return &TagError{Type: t.Name(), Field: sf.Name, Tag: name, Err: err}
	}
	name := tag.Get("reg")
	if name == "" {
		return nil, terr("reg", errors.New("missing field name"))
	}
	if _, ok := tag.Lookup("offset"); !ok {
		return nil, terr("offset", errors.New("missing register offset"))
	}
	addr, err := tagUint(tag, "offset", 0)
	if err != nil {
		return nil, terr("offset", err)
	}
	lsb, err := tagUint(tag, "lsb", 0)
	if err != nil {
		return nil, terr("lsb", err)
	}
	size, err := tagUint(tag, "size", 1)
	if err != nil {
		return nil, terr("size", err)
	}
	mode, err := ParseMode(tag.Get("mode"))
	if err != nil {
		return nil, terr("mode", err)
	}
	enum, err := ParseEnum(tag.Get("enum"))
	if err != nil {
		return nil, terr("enum", err)
	}
	b, err := ParseBase(tag.Get("base"))
	if err != nil {
		return nil, terr("base", err)
	}
	if enum != nil && tag.Get("base") == "" {
		b = EnumBase
	}
	sp, err := copies(tag)
	if err != nil {
		return nil, terr("dim", err)
	}
	alias := tag.Get("alias")
	if alias != "" {
		alias = prefix + alias
	}
	fs := make([]*Field, 0, sp.dim)
	for i := uint64(0); i < sp.dim; i++ {
		n, err := sp.name(name, i)
		if err != nil {
			return nil, terr("reg", err)
		}
		fs = append(fs, &Field{
			Name:        prefix + n,
			Offset:      base + conv.Offset(addr+i*sp.stride),
			BitOffset:   uint(lsb),
			BitSize:     uint(size),
			Mode:        mode,
			Base:        b,
			Enum:        enum,
			Description: tag.Get("desc"),
			Alias:       alias,
		})
	}
	return fs, nil
}

func children(t reflect.Type, sf reflect.StructField) ([]*Device, error) {
	terr := func(name string, err error) error {
		return &TagError{Type: t.Name(), Field: sf.Name, Tag: name, Err: err}
	}
	off, err := tagUint(sf.Tag, "base", 0)
	if err != nil {
		return nil, terr("base", err)
	}
	sp, err := copies(sf.Tag)
	if err != nil {
		return nil, terr("dim", err)
	}
	proto, err := extract(sf.Type)
	if err != nil {
		return nil, err
	}
	cs := make([]*Device, 0, sp.dim)
	for i := uint64(0); i < sp.dim; i++ {
		n, err := sp.name(sf.Tag.Get("dev"), i)
		if err != nil {
			return nil, terr("dev", err)
		}
		c := proto.WithOffset(off + i*sp.stride)
		c.Name = n
		if desc := sf.Tag.Get("desc"); desc != "" {
			c.Description = desc
		}
		cs = append(cs, c)
	}
	return cs, nil
}

func tagUint(tag reflect.StructTag, key string, def uint64) (uint64, error) {
	s, ok := tag.Lookup(key)
	if !ok || s == "" {
		return def, nil
	}
	return strconv.ParseUint(s, 0, 64)
}
