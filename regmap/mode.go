package regmap

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode is the access mode of a register field.
type Mode uint8

const (
	RW Mode = iota // read-write
	RO             // read-only
	WO             // write-only
)

func (m Mode) String() string {
	switch m {
	case RW:
		return "RW"
	case RO:
		return "RO"
	case WO:
		return "WO"
	}
	return "Mode(" + strconv.Itoa(int(m)) + ")"
}

// Readable reports whether the field can be read back from hardware.
func (m Mode) Readable() bool { return m != WO }

// Writable reports whether the field can be written.
func (m Mode) Writable() bool { return m != RO }

// ParseMode accepts "RW", "RO" and "WO" in any case, and the short forms
// "r" and "w".
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "RW":
		return RW, nil
	case "RO", "R":
		return RO, nil
	case "WO", "W":
		return WO, nil
	}
	return RW, fmt.Errorf("unknown access mode %q", s)
}

// MarshalYAML writes the mode as its short name.
func (m Mode) MarshalYAML() (interface{}, error) { return m.String(), nil }

// UnmarshalYAML reads a mode written by MarshalYAML.
func (m *Mode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseMode(s)
	*m = v
	return err
}

// Base selects how the raw bits of a field are displayed.
type Base uint8

const (
	UInt Base = iota // unsigned decimal
	Hex              // unsigned hexadecimal
	Bool             // single bit, True/False
	EnumBase         // label from the field's value enum
)

var baseNames = [...]string{"uint", "hex", "bool", "enum"}

func (b Base) String() string {
	if int(b) < len(baseNames) {
		return baseNames[b]
	}
	return "Base(" + strconv.Itoa(int(b)) + ")"
}

// ParseBase is the inverse of Base.String. An empty string is UInt.
func ParseBase(s string) (Base, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return UInt, nil
	}
	for i, n := range baseNames {
		if s == n {
			return Base(i), nil
		}
	}
	return UInt, fmt.Errorf("unknown base type %q", s)
}

// MarshalYAML writes the base type by name.
func (b Base) MarshalYAML() (interface{}, error) { return b.String(), nil }

// UnmarshalYAML reads a base type written by MarshalYAML.
func (b *Base) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseBase(s)
	*b = v
	return err
}

// Format renders v for display. Enum values without a label fall back to
// hexadecimal.
func (b Base) Format(v uint64, e Enum) string {
	switch b {
	case Hex:
		return "0x" + strconv.FormatUint(v, 16)
	case Bool:
		if v != 0 {
			return "True"
		}
		return "False"
	case EnumBase:
		if l, ok := e.Label(v); ok {
			return l
		}
		return "0x" + strconv.FormatUint(v, 16)
	}
	return strconv.FormatUint(v, 10)
}

// Parse converts a display string back into a raw value. Enum labels are
// tried first, then boolean words, then any Go integer literal.
func (b Base) Parse(s string, e Enum) (uint64, error) {
	s = strings.TrimSpace(s)
	if v, ok := e.Value(s); ok {
		return v, nil
	}
	switch strings.ToLower(s) {
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s value %q", b, s)
	}
	return v, nil
}
