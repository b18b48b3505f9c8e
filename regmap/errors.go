package regmap

import (
	"fmt"
	"strings"
)

// NotFoundError reports a field, child device or command missing from a map.
type NotFoundError struct {
	Device string
	Name   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no field, device or command named %q", e.Device, e.Name)
}

// TagError reports a malformed map declaration.
type TagError struct {
	Type  string
	Field string
	Tag   string
	Err   error
}

func (e *TagError) Error() string {
	return fmt.Sprintf("%s.%s: tag %s: %v", e.Type, e.Field, e.Tag, e.Err)
}

func (e *TagError) Unwrap() error { return e.Err }

// DuplicateError reports two fields with the same name in one device.
type DuplicateError struct {
	Device string
	Name   string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s: duplicate field %s", e.Device, e.Name)
}

// OverlapError reports two fields claiming the same bits without being
// declared aliases of each other.
type OverlapError struct {
	Device string
	A, B   *Field
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s: %s overlaps %s", e.Device, e.A, e.B)
}

// WidthError reports a field running past the end of its register.
type WidthError struct {
	Device   string
	Field    *Field
	WordBits uint
}

func (e *WidthError) Error() string {
	return fmt.Sprintf("%s: %s exceeds %d-bit register", e.Device, e.Field, e.WordBits)
}

// EnumRangeError reports an enum key that cannot be stored in its field.
type EnumRangeError struct {
	Device string
	Field  *Field
	Value  uint64
}

func (e *EnumRangeError) Error() string {
	return fmt.Sprintf("%s: %s: enum value %#x does not fit in %d bits", e.Device, e.Field.Name, e.Value, e.Field.BitSize)
}

// BoundsError reports a field or child device outside the device's address
// space, or a field not starting on a register boundary.
type BoundsError struct {
	Device string
	Name   string
	Offset uint64
	Size   uint64
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s: %s at %#x is outside a %#x byte map or misaligned", e.Device, e.Name, e.Offset, e.Size)
}

// AliasError reports an alias naming a missing field, or one that does not
// actually overlap the field it claims to alias.
type AliasError struct {
	Device string
	Alias  Alias
}

func (e *AliasError) Error() string {
	return fmt.Sprintf("%s: %s is not an overlapping alias of %s", e.Device, e.Alias.Name, e.Alias.Of)
}

// StepError reports a command step that cannot be executed against the map.
type StepError struct {
	Device  string
	Command string
	Index   int
	Reason  string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: command %s step %d: %s", e.Device, e.Command, e.Index, e.Reason)
}

// ValidationError collects every integrity problem found in a device tree.
type ValidationError []error

func (e ValidationError) Error() string {
	a := make([]string, len(e))
	for i, err := range e {
		a[i] = err.Error()
	}
	return strings.Join(a, "\n")
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e ValidationError) Unwrap() []error { return e }
