package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/hrentities/pkg/types"
)

func leaveMetadata() *types.EntityMetadata {
	return &types.EntityMetadata{
		Name:                         "LeaveRequest",
		ParentEntityName:             "Employee",
		AllowViewSecurityGroups:      types.SecurityGroups{1},
		AllowEditSecurityGroups:      types.SecurityGroups{1},
		AllowCreateSecurityGroups:    types.SecurityGroups{1},
		AllowDeleteSecurityGroups:    types.SecurityGroups{1},
		EssAllowViewSecurityGroups:   types.SecurityGroups{5},
		EssAllowCreateSecurityGroups: types.SecurityGroups{},
		Fields: []types.FieldMetadata{
			{Name: "Id", TypeName: "integer"},
			{Name: "__ParentId", TypeName: "integer"},
			{Name: "Reason", TypeName: "string",
				AllowViewSecurityGroups: types.SecurityGroups{1}, EssAllowViewSecurityGroups: types.SecurityGroups{5}},
		},
	}
}

func essUser(groupID int, employeeID int64) *types.User {
	return types.NewEmployeeUser("ess", employeeID, types.NewGroup(groupID, true))
}

func TestEssEmployeeID(t *testing.T) {
	emp := New(employeeMetadata())
	_, ok := emp.EssEmployeeID()
	assert.False(t, ok, "null Id is undefined")
	require.NoError(t, emp.Set("Id", 42))
	owner, ok := emp.EssEmployeeID()
	assert.True(t, ok)
	assert.Equal(t, int64(42), owner)

	leave := New(leaveMetadata())
	require.NoError(t, leave.Set("Id", 500))
	_, ok = leave.EssEmployeeID()
	assert.False(t, ok, "null __ParentId is undefined")
	require.NoError(t, leave.Set("__ParentId", 42))
	owner, ok = leave.EssEmployeeID()
	assert.True(t, ok)
	assert.Equal(t, int64(42), owner)

	other := New(&types.EntityMetadata{Name: "Department", Fields: []types.FieldMetadata{{Name: "Id", TypeName: "integer"}}})
	require.NoError(t, other.Set("Id", 3))
	_, ok = other.EssEmployeeID()
	assert.False(t, ok)

	missing := New(&types.EntityMetadata{Name: "Note", ParentEntityName: "Employee"})
	_, ok = missing.EssEmployeeID()
	assert.False(t, ok, "missing __ParentId field is undefined")
}

func TestCanViewFieldEssOwnRecord(t *testing.T) {
	e := New(employeeMetadata())
	require.NoError(t, e.Set("Id", 42))

	assert.True(t, e.CanViewField("Salary", essUser(1, 42)))
}

func TestCanViewFieldEssForeignRecord(t *testing.T) {
	e := New(employeeMetadata())
	require.NoError(t, e.Set("Id", 99))

	user := essUser(1, 42)
	assert.False(t, e.CanViewField("Salary", user))
	assert.True(t, e.CanViewField("FirstName", user))

	d := e.ExplainField("Salary", user, types.ActionView)
	assert.True(t, d.UsedEss)
	assert.Equal(t, int64(99), d.Owner)
	assert.Empty(t, d.Groups)
}

func TestEntityLevelEmployeeIgnoresEss(t *testing.T) {
	e := New(employeeMetadata())
	require.NoError(t, e.Set("Id", 99))

	user := essUser(1, 42)
	assert.True(t, e.CanView(user), "entity-level checks on Employee use the normal list")
	assert.Equal(t, types.SecurityGroups{1, 2}, e.GroupsFor(user, types.ActionView))
	assert.False(t, e.Explain(user, types.ActionView).UsedEss)

	f, _ := e.Field("Salary")
	assert.Equal(t, types.SecurityGroups{}, e.FieldGroupsFor(f, user, types.ActionView),
		"field-level checks on Employee still redirect")
}

func TestEntityLevelChildRecord(t *testing.T) {
	tests := []struct {
		name      string
		user      *types.User
		parentID  any
		wantView  bool
		wantEss   bool
		wantGroup types.SecurityGroups
	}{
		{"ess user on own record uses normal list", essUser(5, 42), 42, false, false, types.SecurityGroups{1}},
		{"ess user on foreign record uses ess list", essUser(5, 42), 7, true, true, types.SecurityGroups{5}},
		{"ess user with no owner uses normal list", essUser(5, 42), nil, false, false, types.SecurityGroups{1}},
		{"non-ess user always uses normal list", types.NewUser("hr", types.NewGroup(1, false)), 7, true, false, types.SecurityGroups{1}},
		{"ess user without employee id sees every owner as foreign",
			types.NewUser("svc", types.NewGroup(5, true)), 42, true, true, types.SecurityGroups{5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(leaveMetadata())
			require.NoError(t, e.Set("__ParentId", tt.parentID))

			assert.Equal(t, tt.wantGroup, e.GroupsFor(tt.user, types.ActionView))
			assert.Equal(t, tt.wantView, e.CanView(tt.user))
			assert.Equal(t, tt.wantEss, e.Explain(tt.user, types.ActionView).UsedEss)
		})
	}
}

func TestOwnerComparisonNormalizes(t *testing.T) {
	tests := []struct {
		name    string
		owner   any
		wantEss bool
	}{
		{"json number equal", json.Number("42"), false},
		{"integral float equal", 42.0, false},
		{"json number different", json.Number("43"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(leaveMetadata())
			require.NoError(t, e.Set("__ParentId", tt.owner))
			assert.Equal(t, tt.wantEss, e.Explain(essUser(5, 42), types.ActionView).UsedEss)
		})
	}
}

func TestOwnerStringValues(t *testing.T) {
	meta := leaveMetadata()
	meta.Fields[1].TypeName = "key"

	e := New(meta)
	require.NoError(t, e.Set("__ParentId", "42"))
	assert.False(t, e.Explain(essUser(5, 42), types.ActionView).UsedEss, "decimal string owner matches")

	require.NoError(t, e.Set("__ParentId", "emp-42"))
	assert.True(t, e.Explain(essUser(5, 42), types.ActionView).UsedEss, "non-numeric owner never matches")
}

func TestSystemFields(t *testing.T) {
	e := New(employeeMetadata())
	require.NoError(t, e.Set("Id", 99))
	outsider := types.NewUser("x", types.NewGroup(77, false))

	assert.True(t, e.CanViewField("CreatedDate", outsider))
	assert.True(t, e.CanViewField("Id", outsider))
	assert.True(t, e.CanViewField("CreatedDate", essUser(1, 42)))
	assert.False(t, e.CanEditField("Id", outsider))
	assert.False(t, e.CanEditField("CreatedDate", types.NewUser("admin", types.NewGroup(1, false))))
}

func TestNilUserIsUnrestricted(t *testing.T) {
	e := New(employeeMetadata())
	assert.True(t, e.CanView(nil))
	assert.True(t, e.CanCreate(nil))
	assert.True(t, e.CanEdit(nil))
	assert.True(t, e.CanDelete(nil))
	assert.True(t, e.CanViewField("Salary", nil))
	assert.True(t, e.CanEditField("Id", nil))
	assert.Equal(t, types.SecurityGroups{1, 2}, e.GroupsFor(nil, types.ActionView))
}

func TestUnknownFieldIsDenied(t *testing.T) {
	e := New(employeeMetadata())
	assert.False(t, e.CanViewField("Nope", nil))
	assert.False(t, e.CanEditField("Nope", nil))
	assert.Equal(t, "unknown field", e.ExplainField("Nope", nil, types.ActionView).Reason)
}

func TestEntityActionsNonEss(t *testing.T) {
	e := New(employeeMetadata())
	hr := types.NewUser("hr", types.NewGroup(1, false))
	viewer := types.NewUser("viewer", types.NewGroup(2, false))

	assert.True(t, e.CanCreate(hr))
	assert.True(t, e.CanEdit(hr))
	assert.True(t, e.CanDelete(hr))

	assert.True(t, e.CanView(viewer))
	assert.False(t, e.CanCreate(viewer))
	assert.False(t, e.CanEdit(viewer))
	assert.False(t, e.CanDelete(viewer))

	assert.True(t, e.CanEditField("FirstName", hr))
	assert.False(t, e.CanEditField("FirstName", viewer))
	assert.False(t, e.CanEditField("Active", hr), "empty edit list denies everyone")
}

func TestExplainReason(t *testing.T) {
	e := New(leaveMetadata())
	require.NoError(t, e.Set("__ParentId", 7))

	d := e.Explain(essUser(5, 42), types.ActionView)
	assert.True(t, d.Allowed)
	assert.Equal(t, "group 5 in self-service (record owned by employee 7) list [5]", d.Reason)

	d = e.Explain(types.NewUser("x", types.NewGroup(3, false)), types.ActionEdit)
	assert.False(t, d.Allowed)
	assert.Equal(t, "group 3 not in normal list [1]", d.Reason)
}
