package regmap

import "time"

// Step is one write of a command script. Delay is a pause taken after the
// write. A step without a field only pauses.
type Step struct {
	Field string        `yaml:"field,omitempty"`
	Value uint64        `yaml:"value"`
	Delay time.Duration `yaml:"delay,omitempty"`
}

// Pause reports whether s writes nothing.
func (s Step) Pause() bool { return s.Field == "" }

// Command is a straight-line initialization recipe: an ordered list of
// field writes with fixed pauses.
type Command struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// NewCommand starts a command. Steps are added with W and Sleep.
func NewCommand(name, desc string) *Command {
	return &Command{Name: name, Description: desc}
}

// W appends a write of v to the named field.
func (c *Command) W(field string, v uint64) *Command {
	c.Steps = append(c.Steps, Step{Field: field, Value: v})
	return c
}

// Sleep adds a pause after the last write, or a pause step when there is
// no write yet.
func (c *Command) Sleep(d time.Duration) *Command {
	if n := len(c.Steps); n > 0 {
		c.Steps[n-1].Delay += d
	} else {
		c.Steps = append(c.Steps, Step{Delay: d})
	}
	return c
}

// Then appends the steps of o to c.
func (c *Command) Then(o *Command) *Command {
	c.Steps = append(c.Steps, o.Steps...)
	return c
}

// Duration is the total time spent pausing while running c.
func (c *Command) Duration() (d time.Duration) {
	for _, s := range c.Steps {
		d += s.Delay
	}
	return
}
