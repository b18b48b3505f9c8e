package regmap

// Descriptor is the serializable form of a Field.
type Descriptor struct {
	Name        string `yaml:"name"`
	Offset      uint64 `yaml:"offset"`
	BitOffset   uint   `yaml:"bitOffset"`
	BitSize     uint   `yaml:"bitSize"`
	Mode        Mode   `yaml:"mode"`
	Base        Base   `yaml:"base"`
	Enum        Enum   `yaml:"enum,omitempty"`
	Description string `yaml:"description,omitempty"`
	Alias       string `yaml:"alias,omitempty"`
}

// Table is the serializable form of a Device.
type Table struct {
	Name        string       `yaml:"name"`
	Type        string       `yaml:"type"`
	Description string       `yaml:"description,omitempty"`
	Offset      uint64       `yaml:"offset"`
	Size        uint64       `yaml:"size"`
	Convention  string       `yaml:"convention"`
	Fields      []Descriptor `yaml:"fields,omitempty"`
	Devices     []Table      `yaml:"devices,omitempty"`
	Commands    []*Command   `yaml:"commands,omitempty"`
}

// Descriptor returns the serializable form of f.
func (f *Field) Descriptor() Descriptor {
	return Descriptor{
		Name:        f.Name,
		Offset:      f.Offset,
		BitOffset:   f.BitOffset,
		BitSize:     f.BitSize,
		Mode:        f.Mode,
		Base:        f.Base,
		Enum:        f.Enum,
		Description: f.Description,
		Alias:       f.Alias,
	}
}

// Descriptors lists the fields of d, not of its children, in order.
func (d *Device) Descriptors() []Descriptor {
	if len(d.Fields) == 0 {
		return nil
	}
	ds := make([]Descriptor, len(d.Fields))
	for i, f := range d.Fields {
		ds[i] = f.Descriptor()
	}
	return ds
}

// Table returns the serializable form of the whole tree rooted at d.
func (d *Device) Table() Table {
	t := Table{
		Name:        d.Name,
		Type:        d.Type,
		Description: d.Description,
		Offset:      d.Offset,
		Size:        d.Size,
		Convention:  d.Convention.Name,
		Fields:      d.Descriptors(),
		Commands:    d.Commands,
	}
	for _, c := range d.Devices {
		t.Devices = append(t.Devices, c.Table())
	}
	return t
}

// FromTable rebuilds a device tree from its serialized form. The result is
// validated.
func FromTable(t Table) (*Device, error) {
	d, err := fromTable(t)
	if err != nil {
		return nil, err
	}
	if err := Validate(d); err != nil {
		return nil, err
	}
	return d, nil
}

func fromTable(t Table) (*Device, error) {
	conv, err := ConventionByName(t.Convention)
	if err != nil {
		return nil, err
	}
	d := &Device{
		Name:        t.Name,
		Type:        t.Type,
		Description: t.Description,
		Offset:      t.Offset,
		Size:        t.Size,
		Convention:  conv,
		Commands:    t.Commands,
	}
	for _, x := range t.Fields {
		d.Fields = append(d.Fields, &Field{
			Name:        x.Name,
			Offset:      x.Offset,
			BitOffset:   x.BitOffset,
			BitSize:     x.BitSize,
			Mode:        x.Mode,
			Base:        x.Base,
			Enum:        x.Enum,
			Description: x.Description,
			Alias:       x.Alias,
		})
		if x.Alias != "" {
			d.Aliases = append(d.Aliases, Alias{Name: x.Name, Of: x.Alias})
		}
	}
	for _, ct := range t.Devices {
		c, err := fromTable(ct)
		if err != nil {
			return nil, err
		}
		d.Devices = append(d.Devices, c)
	}
	return d, nil
}
