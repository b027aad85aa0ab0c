package types

import (
	"fmt"
	"strings"
)

// Action is an operation governed by a security group list.
type Action string

// Entity-level actions. Fields only define ActionView and ActionEdit.
const (
	ActionView   Action = "View"
	ActionCreate Action = "Create"
	ActionEdit   Action = "Edit"
	ActionDelete Action = "Delete"
)

// EntityActions lists the actions checked on a whole record.
var EntityActions = []Action{ActionView, ActionCreate, ActionEdit, ActionDelete}

// FieldActions lists the actions checked on a single field.
var FieldActions = []Action{ActionView, ActionEdit}

// ParseAction maps a case-insensitive action name to an Action.
// Returns ErrUnknownAction for anything else.
func ParseAction(s string) (Action, error) {
	for _, a := range EntityActions {
		if strings.EqualFold(string(a), s) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Group is the security group assigned to a user. Ess marks the employee
// self-service mode, where access depends on whether a record belongs to the
// user.
type Group struct {
	id    int
	isEss bool
}

// NewGroup returns a Group with the given id and self-service flag.
func NewGroup(id int, isEss bool) Group {
	return Group{id: id, isEss: isEss}
}

// ID returns the security group id.
func (g Group) ID() int { return g.id }

// IsEss reports whether the group is an employee self-service group.
func (g Group) IsEss() bool { return g.isEss }

// User is the identity permission checks are evaluated for. EmployeeID is
// undefined for users that are not employees.
type User struct {
	userName   string
	employeeID int64
	hasEmpID   bool
	group      Group
}

// NewUser returns a user without an employee id.
func NewUser(userName string, group Group) *User {
	return &User{userName: userName, group: group}
}

// NewEmployeeUser returns a user linked to the employee record employeeID.
func NewEmployeeUser(userName string, employeeID int64, group Group) *User {
	return &User{userName: userName, employeeID: employeeID, hasEmpID: true, group: group}
}

// UserName returns the login name.
func (u *User) UserName() string { return u.userName }

// EmployeeID returns the linked employee id. ok is false when the user has
// no employee record.
func (u *User) EmployeeID() (id int64, ok bool) { return u.employeeID, u.hasEmpID }

// Group returns the user's security group.
func (u *User) Group() Group { return u.group }
