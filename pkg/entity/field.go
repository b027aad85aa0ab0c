package entity

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/mesh-intelligence/hrentities/pkg/types"
)

// Field is a typed value bound to its metadata. The value is nil or passes
// the kind's validation; every assignment is validated.
type Field struct {
	meta        types.FieldMetadata
	kind        Kind
	value       any
	searchLabel string

	// Enum lookups: option value to label and label to value.
	labelsByValue map[string]string
	valuesByLabel map[string]string
}

// NewField builds a Field of the kind selected by meta.TypeName. The value
// starts as nil.
func NewField(meta types.FieldMetadata) *Field {
	f := &Field{
		meta:        meta,
		kind:        KindFor(meta.TypeName),
		searchLabel: SearchLabel(meta.Label),
	}
	if f.kind.IsEnum() {
		f.labelsByValue = make(map[string]string, len(meta.Options))
		f.valuesByLabel = make(map[string]string, len(meta.Options))
		for _, o := range meta.Options {
			f.labelsByValue[o.Value] = o.Text
			f.valuesByLabel[o.Text] = o.Value
		}
	}
	return f
}

// SearchLabel removes whitespace from label and upper-cases the first letter
// and each letter that followed a whitespace run: "First Name" becomes
// "FirstName".
func SearchLabel(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	upper := true
	for _, r := range label {
		if unicode.IsSpace(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (f *Field) Name() string { return f.meta.Name }
func (f *Field) Label() string { return f.meta.Label }
func (f *Field) SearchLabel() string { return f.searchLabel }
func (f *Field) Type() int { return f.meta.Type }
func (f *Field) TypeName() string { return f.meta.TypeName }
func (f *Field) Kind() Kind { return f.kind }
func (f *Field) Metadata() types.FieldMetadata { return f.meta.Clone() }

// Groups returns the field's security group list for action. See
// types.FieldMetadata.Groups.
func (f *Field) Groups(action types.Action, ess bool) types.SecurityGroups {
	return slices.Clone(f.meta.Groups(action, ess))
}

// Value returns the current value: nil, string, bool, int64, float64,
// time.Time, or the raw option code for enum kinds.
func (f *Field) Value() any { return f.value }

// IsNull reports whether the field has no value.
func (f *Field) IsNull() bool { return f.value == nil }

// Set validates v and assigns it. Integer values are stored as int64 and
// numeric values as float64. On failure Set returns a
// *types.ValidationError and the previous value is kept.
func (f *Field) Set(v any) error {
	normalized, err := f.normalize(v)
	if err != nil {
		return err
	}
	f.value = normalized
	return nil
}

func (f *Field) normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.kind {
	case KindString, KindEmail, KindKey, KindAttachment:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return nil, f.invalid("a string")
	case KindBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, f.invalid("a boolean")
	case KindInteger:
		if i, ok := toInt64(v); ok {
			return i, nil
		}
		return nil, f.invalid("an integer")
	case KindNumeric:
		if n, ok := toFloat64(v); ok {
			return n, nil
		}
		return nil, f.invalid("a number")
	case KindDate, KindDateTime:
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case *time.Time:
			if t == nil {
				return nil, nil
			}
			return *t, nil
		}
		return nil, f.invalid("a date")
	}
	// Enum kinds hold the raw option code.
	return v, nil
}

func (f *Field) invalid(what string) *types.ValidationError {
	return types.NewValidationError(
		f.meta.Name,
		fmt.Sprintf("Field %s must be %s.", f.meta.Name, what),
		"Must be "+what,
	)
}

// StringValue returns the value in string form. ok is false when the value
// is nil. Date fields render as YYYY-MM-DD, date-time fields as an ISO-8601
// UTC timestamp with milliseconds.
func (f *Field) StringValue() (s string, ok bool) {
	if f.value == nil {
		return "", false
	}
	if t, isTime := f.value.(time.Time); isTime {
		switch f.kind {
		case KindDate:
			return t.Format(DateLayout), true
		case KindDateTime:
			return t.UTC().Format(DateTimeLayout), true
		}
	}
	return formatValue(f.value), true
}

// SetFromString assigns a value given in wire form. Date kinds parse s; an
// empty string clears the value. Other kinds assign s through Set.
func (f *Field) SetFromString(s string) error {
	if !f.kind.IsDate() {
		return f.Set(s)
	}
	if s == "" {
		f.value = nil
		return nil
	}
	t, ok := parseDate(s)
	if !ok {
		return f.invalid("a date")
	}
	f.value = t
	return nil
}

// Options returns the enum options in metadata order.
func (f *Field) Options() []types.Option {
	return slices.Clone(f.meta.Options)
}

// HasOption reports whether value is an option code of this field.
func (f *Field) HasOption(value string) bool {
	_, ok := f.labelsByValue[value]
	return ok
}

// HasOptionLabel reports whether label is an option label of this field.
func (f *Field) HasOptionLabel(label string) bool {
	_, ok := f.valuesByLabel[label]
	return ok
}

// OptionValue returns the option code for label.
func (f *Field) OptionValue(label string) (string, bool) {
	v, ok := f.valuesByLabel[label]
	return v, ok
}

// OptionLabel returns the label for the option code value.
func (f *Field) OptionLabel(value string) (string, bool) {
	l, ok := f.labelsByValue[value]
	return l, ok
}

// ValueLabel returns the option label of the current value.
func (f *Field) ValueLabel() (string, bool) {
	if f.value == nil {
		return "", false
	}
	return f.OptionLabel(formatValue(f.value))
}

// AllOptionLabels returns every option label in metadata order.
func (f *Field) AllOptionLabels() []string {
	labels := make([]string, 0, len(f.meta.Options))
	for _, o := range f.meta.Options {
		labels = append(labels, o.Text)
	}
	return labels
}
