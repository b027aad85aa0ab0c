package entity

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/hrentities/pkg/types"
)

// Decision records how a permission check was resolved.
type Decision struct {
	Action  types.Action
	Field   string // Empty for entity-level checks.
	Owner   any    // Owning employee id, nil when the record has none.
	UsedEss bool   // The self-service list was selected.
	Groups  types.SecurityGroups
	Allowed bool
	Reason  string
}

// EssEmployeeID returns the id of the employee that owns the record: the Id
// of an Employee, or the __ParentId of a record whose parent entity is
// Employee. ok is false for any other entity and when the value is nil.
func (e *Entity) EssEmployeeID() (owner any, ok bool) {
	var name string
	switch {
	case e.meta.Name == types.EntityEmployee:
		name = types.FieldID
	case e.meta.ParentEntityName == types.EntityEmployee:
		name = types.FieldParentID
	default:
		return nil, false
	}
	f, found := e.byName[name]
	if !found || f.IsNull() {
		return nil, false
	}
	return f.Value(), true
}

// foreignRecord reports whether the record has an owning employee other than
// user. Owners that are not integers never match.
func (e *Entity) foreignRecord(user *types.User) (owner any, foreign bool) {
	owner, ok := e.EssEmployeeID()
	if !ok {
		return nil, false
	}
	empID, hasEmp := user.EmployeeID()
	id, isInt := ownerID(owner)
	return owner, !(hasEmp && isInt && id == empID)
}

// useEss decides whether a check selects the self-service list. Entity-level
// checks never redirect on the Employee entity itself; field-level checks do.
func (e *Entity) useEss(user *types.User, fieldLevel bool) (owner any, ess bool) {
	if user == nil || !user.Group().IsEss() {
		return nil, false
	}
	if !fieldLevel && e.meta.Name == types.EntityEmployee {
		return nil, false
	}
	return e.foreignRecord(user)
}

// GroupsFor returns the entity-level security groups that govern action for
// user.
func (e *Entity) GroupsFor(user *types.User, action types.Action) types.SecurityGroups {
	_, ess := e.useEss(user, false)
	return slices.Clone(e.meta.Groups(action, ess))
}

// FieldGroupsFor returns the security groups of field that govern action for
// user. Only View and Edit are defined for fields.
func (e *Entity) FieldGroupsFor(field *Field, user *types.User, action types.Action) types.SecurityGroups {
	_, ess := e.useEss(user, true)
	return field.Groups(action, ess)
}

// Explain resolves an entity-level action for user. A nil user is
// unrestricted.
func (e *Entity) Explain(user *types.User, action types.Action) Decision {
	d := Decision{Action: action}
	if user == nil {
		d.Allowed = true
		d.Reason = "no user context"
		return d
	}
	d.Owner, d.UsedEss = e.useEss(user, false)
	d.Groups = slices.Clone(e.meta.Groups(action, d.UsedEss))
	d.Allowed = d.Groups.Contains(user.Group().ID())
	d.Reason = membershipReason(user, d)
	return d
}

// ExplainField resolves a field-level action for user.
func (e *Entity) ExplainField(name string, user *types.User, action types.Action) Decision {
	d := Decision{Action: action, Field: name}
	f, ok := e.byName[name]
	if !ok {
		d.Reason = "unknown field"
		return d
	}
	if user == nil {
		d.Allowed = true
		d.Reason = "no user context"
		return d
	}
	if types.IsSystemField(name) {
		switch action {
		case types.ActionView:
			d.Allowed = true
			d.Reason = "system field is always viewable"
			return d
		case types.ActionEdit:
			d.Reason = "system field is never editable"
			return d
		}
	}
	d.Owner, d.UsedEss = e.useEss(user, true)
	d.Groups = f.Groups(action, d.UsedEss)
	d.Allowed = d.Groups.Contains(user.Group().ID())
	d.Reason = membershipReason(user, d)
	return d
}

func membershipReason(user *types.User, d Decision) string {
	list := "normal"
	if d.UsedEss {
		list = fmt.Sprintf("self-service (record owned by employee %v)", d.Owner)
	}
	verb := "not in"
	if d.Allowed {
		verb = "in"
	}
	return fmt.Sprintf("group %d %s %s list %v", user.Group().ID(), verb, list, []int(d.Groups))
}

// CanView reports whether user may view the record.
func (e *Entity) CanView(user *types.User) bool {
	return e.Explain(user, types.ActionView).Allowed
}

// CanCreate reports whether user may create records of this entity.
func (e *Entity) CanCreate(user *types.User) bool {
	return e.Explain(user, types.ActionCreate).Allowed
}

// CanEdit reports whether user may edit the record.
func (e *Entity) CanEdit(user *types.User) bool {
	return e.Explain(user, types.ActionEdit).Allowed
}

// CanDelete reports whether user may delete the record.
func (e *Entity) CanDelete(user *types.User) bool {
	return e.Explain(user, types.ActionDelete).Allowed
}

// CanViewField reports whether user may view the named field. Unknown fields
// are never viewable; system fields always are.
func (e *Entity) CanViewField(name string, user *types.User) bool {
	return e.ExplainField(name, user, types.ActionView).Allowed
}

// CanEditField reports whether user may edit the named field. Unknown and
// system fields are never editable.
func (e *Entity) CanEditField(name string, user *types.User) bool {
	return e.ExplainField(name, user, types.ActionEdit).Allowed
}
