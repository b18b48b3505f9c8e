package regmap

import (
	"fmt"
	"strconv"
	"strings"
)

// EnumEntry names one raw value of a field.
type EnumEntry struct {
	Value uint64 `yaml:"value"`
	Label string `yaml:"label"`
}

// Enum maps raw values to labels, in declaration order.
type Enum []EnumEntry

// Label returns the label for v.
func (e Enum) Label(v uint64) (string, bool) {
	for _, x := range e {
		if x.Value == v {
			return x.Label, true
		}
	}
	return "", false
}

// Value returns the raw value labelled l.
func (e Enum) Value(l string) (uint64, bool) {
	for _, x := range e {
		if x.Label == l {
			return x.Value, true
		}
	}
	return 0, false
}

// ParseEnum reads the "value=Label,value=Label" form used in map
// declarations. Values are Go integer literals.
func ParseEnum(s string) (Enum, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var e Enum
	for _, kv := range strings.Split(s, ",") {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			return nil, fmt.Errorf("bad enum entry %q", kv)
		}
		v, err := strconv.ParseUint(strings.TrimSpace(kv[:i]), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("bad enum value in %q: %v", kv, err)
		}
		e = append(e, EnumEntry{Value: v, Label: strings.TrimSpace(kv[i+1:])})
	}
	return e, nil
}

func (e Enum) String() string {
	a := make([]string, len(e))
	for i, x := range e {
		a[i] = strconv.FormatUint(x.Value, 10) + "=" + x.Label
	}
	return strings.Join(a, ",")
}
