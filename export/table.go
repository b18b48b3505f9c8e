package export

import (
	"fmt"
	"io"
	"io/ioutil"
	"strings"
	"text/tabwriter"

	"github.com/jbrzusto/surfmap/regmap"
	"gopkg.in/yaml.v2"
)

// WriteDescriptors writes the descriptor table of d as YAML.
func WriteDescriptors(w io.Writer, d *regmap.Device) error {
	b, err := yaml.Marshal(d.Table())
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ReadDescriptors rebuilds and validates a device from a table written by
// WriteDescriptors.
func ReadDescriptors(r io.Reader) (*regmap.Device, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var t regmap.Table
	if err := yaml.UnmarshalStrict(b, &t); err != nil {
		return nil, err
	}
	return regmap.FromTable(t)
}

// Listing writes one line per field of d and its children: path, byte
// offset, bit range, access mode, display base and description.
func Listing(w io.Writer, d *regmap.Device) error {
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, d.Type, d.Convention)
	err := d.Walk(func(path string, off uint64, f *regmap.Field) error {
		desc := f.Description
		if f.Alias != "" {
			desc = "alias of " + f.Alias + ". " + desc
		}
		_, err := fmt.Fprintf(tw, "%s\t%#07x\t[%d:%d]\t%s\t%s\t%s\n", path, off, f.BitOffset+f.BitSize-1, f.BitOffset, f.Mode, f.Base, desc)
		return err
	})
	if err != nil {
		return err
	}
	return tw.Flush()
}

// Scripts writes the commands of d, one step per line.
func Scripts(w io.Writer, d *regmap.Device) error {
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	for _, c := range d.Commands {
		fmt.Fprintf(tw, "%s\t%d steps\t%v\t%s\n", c.Name, len(c.Steps), c.Duration(), c.Description)
		for _, s := range c.Steps {
			delay := ""
			if s.Delay > 0 {
				delay = "sleep " + s.Delay.String()
			}
			if s.Pause() {
				fmt.Fprintf(tw, "  -\t\t%s\t\n", delay)
				continue
			}
			fmt.Fprintf(tw, "  %s\t%#x\t%s\t\n", s.Field, s.Value, delay)
		}
	}
	return tw.Flush()
}

// Summary writes one line per device type: name, field count, child
// count and command names.
func Summary(w io.Writer, ds []*regmap.Device) error {
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	for _, d := range ds {
		cmds := make([]string, len(d.Commands))
		for i, c := range d.Commands {
			cmds[i] = c.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%d fields\t%d devices\t%s\n", d.Type, d.Convention, d.NumFields(), len(d.Devices), strings.Join(cmds, ","))
	}
	return tw.Flush()
}
