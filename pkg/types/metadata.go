package types

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// Well-known entity and field names used by permission resolution.
const (
	EntityEmployee = "Employee"

	FieldID               = "Id"
	FieldParentID         = "__ParentId"
	FieldCreatedBy        = "CreatedBy"
	FieldCreatedDate      = "CreatedDate"
	FieldLastModifiedBy   = "LastModifiedBy"
	FieldLastModifiedDate = "LastModifiedDate"
)

// SystemFieldNames lists the fields maintained by the platform. They are
// always viewable and never editable.
var SystemFieldNames = []string{
	FieldID,
	FieldCreatedBy,
	FieldCreatedDate,
	FieldLastModifiedBy,
	FieldLastModifiedDate,
}

var systemFields = map[string]bool{
	FieldID:               true,
	FieldCreatedBy:        true,
	FieldCreatedDate:      true,
	FieldLastModifiedBy:   true,
	FieldLastModifiedDate: true,
}

// IsSystemField reports whether name is one of SystemFieldNames.
func IsSystemField(name string) bool {
	return systemFields[name]
}

// SecurityGroups is a list of security group ids permitted to perform an
// action.
type SecurityGroups []int

// Contains reports whether id is a member of the list.
func (g SecurityGroups) Contains(id int) bool {
	for _, v := range g {
		if v == id {
			return true
		}
	}
	return false
}

// EntityMetadata describes an entity type as delivered by
// GET /entities/{name}/meta.
type EntityMetadata struct {
	Name             string   `json:"Name"`
	Label            string   `json:"Label"`
	ParentEntityName string   `json:"ParentEntityName,omitempty"`
	ChildEntityNames []string `json:"ChildEntityNames,omitempty"`

	AllowViewSecurityGroups   SecurityGroups `json:"AllowViewSecurityGroups"`
	AllowCreateSecurityGroups SecurityGroups `json:"AllowCreateSecurityGroups"`
	AllowEditSecurityGroups   SecurityGroups `json:"AllowEditSecurityGroups"`
	AllowDeleteSecurityGroups SecurityGroups `json:"AllowDeleteSecurityGroups"`

	EssAllowViewSecurityGroups   SecurityGroups `json:"EssAllowViewSecurityGroups"`
	EssAllowCreateSecurityGroups SecurityGroups `json:"EssAllowCreateSecurityGroups"`
	EssAllowEditSecurityGroups   SecurityGroups `json:"EssAllowEditSecurityGroups"`
	EssAllowDeleteSecurityGroups SecurityGroups `json:"EssAllowDeleteSecurityGroups"`

	Fields []FieldMetadata `json:"Fields"`
}

// Groups returns the entity-level list for action. ess selects the
// self-service list. Unknown actions return nil.
func (m *EntityMetadata) Groups(action Action, ess bool) SecurityGroups {
	switch action {
	case ActionView:
		if ess {
			return m.EssAllowViewSecurityGroups
		}
		return m.AllowViewSecurityGroups
	case ActionCreate:
		if ess {
			return m.EssAllowCreateSecurityGroups
		}
		return m.AllowCreateSecurityGroups
	case ActionEdit:
		if ess {
			return m.EssAllowEditSecurityGroups
		}
		return m.AllowEditSecurityGroups
	case ActionDelete:
		if ess {
			return m.EssAllowDeleteSecurityGroups
		}
		return m.AllowDeleteSecurityGroups
	default:
		return nil
	}
}

// Clone returns a deep copy of m. Cached metadata is shared between
// entities, so callers that want to modify it work on a clone.
func (m *EntityMetadata) Clone() *EntityMetadata {
	if m == nil {
		return nil
	}
	c := *m
	c.ChildEntityNames = slices.Clone(m.ChildEntityNames)
	c.AllowViewSecurityGroups = slices.Clone(m.AllowViewSecurityGroups)
	c.AllowCreateSecurityGroups = slices.Clone(m.AllowCreateSecurityGroups)
	c.AllowEditSecurityGroups = slices.Clone(m.AllowEditSecurityGroups)
	c.AllowDeleteSecurityGroups = slices.Clone(m.AllowDeleteSecurityGroups)
	c.EssAllowViewSecurityGroups = slices.Clone(m.EssAllowViewSecurityGroups)
	c.EssAllowCreateSecurityGroups = slices.Clone(m.EssAllowCreateSecurityGroups)
	c.EssAllowEditSecurityGroups = slices.Clone(m.EssAllowEditSecurityGroups)
	c.EssAllowDeleteSecurityGroups = slices.Clone(m.EssAllowDeleteSecurityGroups)
	if m.Fields != nil {
		c.Fields = make([]FieldMetadata, len(m.Fields))
		for i, f := range m.Fields {
			c.Fields[i] = f.Clone()
		}
	}
	return &c
}

// FieldMetadata describes a single field of an entity.
type FieldMetadata struct {
	Name     string `json:"Name"`
	Label    string `json:"Label"`
	Type     int    `json:"Type"`
	TypeName string `json:"TypeName"`

	AllowViewSecurityGroups    SecurityGroups `json:"AllowViewSecurityGroups"`
	AllowEditSecurityGroups    SecurityGroups `json:"AllowEditSecurityGroups"`
	EssAllowViewSecurityGroups SecurityGroups `json:"EssAllowViewSecurityGroups"`
	EssAllowEditSecurityGroups SecurityGroups `json:"EssAllowEditSecurityGroups"`

	// Options is only populated for enum and enumMulti fields.
	Options []Option `json:"Options,omitempty"`
}

// Groups returns the field-level list for action. Only View and Edit are
// defined for fields; other actions return nil.
func (m *FieldMetadata) Groups(action Action, ess bool) SecurityGroups {
	switch action {
	case ActionView:
		if ess {
			return m.EssAllowViewSecurityGroups
		}
		return m.AllowViewSecurityGroups
	case ActionEdit:
		if ess {
			return m.EssAllowEditSecurityGroups
		}
		return m.AllowEditSecurityGroups
	default:
		return nil
	}
}

// Clone returns a copy of m that shares no slices with it.
func (m FieldMetadata) Clone() FieldMetadata {
	m.AllowViewSecurityGroups = slices.Clone(m.AllowViewSecurityGroups)
	m.AllowEditSecurityGroups = slices.Clone(m.AllowEditSecurityGroups)
	m.EssAllowViewSecurityGroups = slices.Clone(m.EssAllowViewSecurityGroups)
	m.EssAllowEditSecurityGroups = slices.Clone(m.EssAllowEditSecurityGroups)
	m.Options = slices.Clone(m.Options)
	return m
}

// Option is a single enum choice. Value is the code stored on the record,
// Text the label shown to users.
type Option struct {
	Value string `json:"Value"`
	Text  string `json:"Text"`
}

// UnmarshalJSON accepts numeric option codes and keeps them in decimal form.
func (o *Option) UnmarshalJSON(data []byte) error {
	var raw struct {
		Value json.RawMessage `json:"Value"`
		Text  string          `json:"Text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.Text = raw.Text
	o.Value = ""
	if len(raw.Value) == 0 || string(raw.Value) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Value, &s); err == nil {
		o.Value = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.Value, &n); err == nil {
		o.Value = n.String()
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw.Value, &b); err == nil {
		o.Value = strconv.FormatBool(b)
		return nil
	}
	return fmt.Errorf("option %q: unsupported value %s", raw.Text, raw.Value)
}

// ParseEntityMetadata decodes a metadata document.
// Returns ErrNoMetadata if data is empty or JSON null.
func ParseEntityMetadata(data []byte) (*EntityMetadata, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, ErrNoMetadata
	}
	var m EntityMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if m.Name == "" {
		return nil, ErrNoMetadata
	}
	return &m, nil
}
