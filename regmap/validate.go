package regmap

import "sort"

// Validate checks the integrity of a device tree: unique names, no
// unannounced overlaps, every field inside its register and the map, every
// enum key representable, and every command step writable. All problems
// are returned together as a ValidationError.
func Validate(d *Device) error {
	var errs ValidationError
	validate(d, d.Name, &errs)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validate(d *Device, path string, errs *ValidationError) {
	add := func(err error) { *errs = append(*errs, err) }
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if seen[f.Name] {
			add(&DuplicateError{Device: path, Name: f.Name})
		}
		seen[f.Name] = true
		if f.BitSize == 0 || f.BitOffset+f.BitSize > d.Convention.WordBits {
			add(&WidthError{Device: path, Field: f, WordBits: d.Convention.WordBits})
		}
		if !d.Convention.Aligned(f.Offset) || (d.Size != 0 && f.Offset >= d.Size) {
			add(&BoundsError{Device: path, Name: f.Name, Offset: f.Offset, Size: d.Size})
		}
		for _, e := range f.Enum {
			if !f.Fits(e.Value) {
				add(&EnumRangeError{Device: path, Field: f, Value: e.Value})
			}
		}
	}

	aliased := make(map[[2]string]bool, len(d.Aliases))
	for _, a := range d.Aliases {
		f, g := d.Field(a.Name), d.Field(a.Of)
		if f == nil || g == nil || !f.Overlaps(g) {
			add(&AliasError{Device: path, Alias: a})
			continue
		}
		aliased[[2]string{a.Name, a.Of}] = true
		aliased[[2]string{a.Of, a.Name}] = true
	}

	byOffset := make(map[uint64][]*Field)
	for _, f := range d.Fields {
		byOffset[f.Offset] = append(byOffset[f.Offset], f)
	}
	offsets := make([]uint64, 0, len(byOffset))
	for off := range byOffset {
		offsets = append(offsets, off)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	for _, off := range offsets {
		fs := byOffset[off]
		for i, f := range fs {
			for _, g := range fs[i+1:] {
				if f.Overlaps(g) && !aliased[[2]string{f.Name, g.Name}] {
					add(&OverlapError{Device: path, A: f, B: g})
				}
			}
		}
	}

	for _, c := range d.Devices {
		if d.Size != 0 && c.Offset+c.Size > d.Size {
			add(&BoundsError{Device: path, Name: c.Name, Offset: c.Offset, Size: d.Size})
		}
		validate(c, path+"."+c.Name, errs)
	}

	for _, cmd := range d.Commands {
		for i, s := range cmd.Steps {
			if s.Pause() {
				if s.Value != 0 {
					add(&StepError{Device: path, Command: cmd.Name, Index: i, Reason: "pause with a value"})
				}
				continue
			}
			f, _, err := d.Lookup(s.Field)
			switch {
			case err != nil:
				add(&StepError{Device: path, Command: cmd.Name, Index: i, Reason: err.Error()})
			case !f.Mode.Writable():
				add(&StepError{Device: path, Command: cmd.Name, Index: i, Reason: f.Name + " is read-only"})
			case !f.Fits(s.Value):
				add(&StepError{Device: path, Command: cmd.Name, Index: i, Reason: f.Name + " cannot hold the value"})
			}
		}
	}
}
