package entity

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mesh-intelligence/hrentities/pkg/types"
)

// Entity is one record of a metadata-described entity type. Fields are
// built once at construction, one per metadata field, and are never shared
// with another Entity.
type Entity struct {
	meta          *types.EntityMetadata
	fields        []*Field
	byName        map[string]*Field
	byLabel       map[string]*Field
	bySearchLabel map[string]*Field
}

// New builds an Entity with a fresh, nil-valued Field for every field in
// meta. When a name repeats, the later field replaces the earlier one in
// place. When labels repeat, the later field wins the label lookups.
func New(meta *types.EntityMetadata) *Entity {
	e := &Entity{
		meta:          meta,
		fields:        make([]*Field, 0, len(meta.Fields)),
		byName:        make(map[string]*Field, len(meta.Fields)),
		byLabel:       make(map[string]*Field, len(meta.Fields)),
		bySearchLabel: make(map[string]*Field, len(meta.Fields)),
	}
	for _, fm := range meta.Fields {
		f := NewField(fm)
		if prev, dup := e.byName[f.Name()]; dup {
			e.fields[slices.Index(e.fields, prev)] = f
			if e.byLabel[prev.Label()] == prev {
				delete(e.byLabel, prev.Label())
			}
			if e.bySearchLabel[prev.SearchLabel()] == prev {
				delete(e.bySearchLabel, prev.SearchLabel())
			}
		} else {
			e.fields = append(e.fields, f)
		}
		e.byName[f.Name()] = f
		e.byLabel[f.Label()] = f
		e.bySearchLabel[f.SearchLabel()] = f
	}
	return e
}

func (e *Entity) Name() string { return e.meta.Name }
func (e *Entity) Label() string { return e.meta.Label }
func (e *Entity) ParentEntityName() string { return e.meta.ParentEntityName }
func (e *Entity) ChildEntityNames() []string { return slices.Clone(e.meta.ChildEntityNames) }

// Metadata returns a copy of the entity's metadata.
func (e *Entity) Metadata() *types.EntityMetadata { return e.meta.Clone() }

// Fields returns the fields in metadata order.
func (e *Entity) Fields() []*Field {
	return e.fields
}

// FieldNames returns the field names in metadata order.
func (e *Entity) FieldNames() []string {
	names := make([]string, len(e.fields))
	for i, f := range e.fields {
		names[i] = f.Name()
	}
	return names
}

// Field returns the field called name.
func (e *Entity) Field(name string) (*Field, bool) {
	f, ok := e.byName[name]
	return f, ok
}

// FieldByLabel returns the field whose display label is label.
func (e *Entity) FieldByLabel(label string) (*Field, bool) {
	f, ok := e.byLabel[label]
	return f, ok
}

// FieldBySearchLabel returns the field whose search label is label.
func (e *Entity) FieldBySearchLabel(label string) (*Field, bool) {
	f, ok := e.bySearchLabel[label]
	return f, ok
}

// Get returns the value of the named field.
// Returns types.ErrFieldNotFound if the entity has no such field.
func (e *Entity) Get(name string) (any, error) {
	f, ok := e.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", types.ErrFieldNotFound, e.meta.Name, name)
	}
	return f.Value(), nil
}

// Set assigns v to the named field.
// Returns types.ErrFieldNotFound if the entity has no such field, or the
// field's *types.ValidationError.
func (e *Entity) Set(name string, v any) error {
	f, ok := e.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", types.ErrFieldNotFound, e.meta.Name, name)
	}
	return f.Set(v)
}

// ID returns the value of the Id field. ok is false when the entity has no
// Id field or it is nil.
func (e *Entity) ID() (id any, ok bool) {
	f, found := e.byName[types.FieldID]
	if !found || f.IsNull() {
		return nil, false
	}
	return f.Value(), true
}

// Value returns every field's current value keyed by field name.
func (e *Entity) Value() map[string]any {
	out := make(map[string]any, len(e.fields))
	for _, f := range e.fields {
		out[f.Name()] = f.Value()
	}
	return out
}

// DataSourceValue is Value in wire form: date fields carry their string
// form, or nil.
func (e *Entity) DataSourceValue() map[string]any {
	out := make(map[string]any, len(e.fields))
	for _, f := range e.fields {
		if !f.Kind().IsDate() {
			out[f.Name()] = f.Value()
			continue
		}
		if s, ok := f.StringValue(); ok {
			out[f.Name()] = s
		} else {
			out[f.Name()] = nil
		}
	}
	return out
}

// Load assigns every field whose name is a key of data. Date fields parse
// strings; other fields go through Set. Fields missing from data keep their
// values. All failures are returned as one *types.ValidationError keyed by
// field name; fields that loaded cleanly stay assigned.
func (e *Entity) Load(data map[string]any) error {
	var verr *types.ValidationError
	for _, f := range e.fields {
		raw, present := data[f.Name()]
		if !present {
			continue
		}
		if err := loadField(f, raw); err != nil {
			if verr == nil {
				verr = &types.ValidationError{}
			}
			verr.Merge(err)
		}
	}
	if verr != nil {
		return verr
	}
	return nil
}

func loadField(f *Field, raw any) *types.ValidationError {
	var err error
	if s, ok := raw.(string); ok && f.Kind().IsDate() {
		err = f.SetFromString(s)
	} else {
		err = f.Set(raw)
	}
	if err == nil {
		return nil
	}
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	return types.NewValidationError(f.Name(), err.Error(), err.Error())
}
