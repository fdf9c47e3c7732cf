// Package domain defines the persistent entities, value types, and rule
// evaluation primitives used by clinicboard.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityEmployee identifies an employee record.
	EntityEmployee EntityType = "employee"
	// EntityGroup identifies a group record.
	EntityGroup EntityType = "group"
	// EntityStatus identifies a workflow status record.
	EntityStatus EntityType = "status"
	// EntityTask identifies a task record.
	EntityTask EntityType = "task"
)

// Theme selects the display palette persisted alongside the snapshot.
type Theme string

// Recognized theme values. Anything else is rejected at the service boundary.
const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Valid reports whether the theme is one of the recognized values.
func (t Theme) Valid() bool { return t == ThemeDark || t == ThemeLight }

// Direction selects which neighbour a status swaps order values with.
type Direction string

// Reorder directions. Out-of-bounds moves are no-ops.
const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Employee represents a staff record. The ID is caller-assigned and immutable
// once created. Protected employees can never be deleted nor removed from the
// default-admin group.
type Employee struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Salary      float64 `json:"salary"`
	DateOfHire  string  `json:"date_of_hire"`
	DateOfBirth string  `json:"date_of_birth"`
	Department  string  `json:"department"`
	Role        string  `json:"role"`
	Protected   bool    `json:"protected,omitempty"`
}

// Group collects employees by ID. Membership is authoritative here; employees
// carry no mirrored list. Exactly one group carries the DefaultAdmin flag.
type Group struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	DefaultAdmin bool     `json:"default_admin,omitempty"`
	MemberIDs    []string `json:"member_ids"`
}

// Status is a kanban column. Order defines the display and workflow sequence;
// it is a total order with no contiguity requirement, so gaps and ties survive
// reordering. Default statuses always exist and cannot be deleted.
type Status struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	Order   int    `json:"order"`
	Default bool   `json:"default,omitempty"`
}

// Task is a board item. AssigneeID, GroupID and StatusID are weak references
// resolved by lookup; deleting the referenced entity nulls or reassigns them
// rather than failing.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AssigneeID  string    `json:"assignee_id"`
	GroupID     string    `json:"group_id,omitempty"`
	StatusID    string    `json:"status_id"`
	DueDate     string    `json:"due_date,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ActivityEntry records one mutation or rejection. The log keeps the most
// recent entries only, newest first.
type ActivityEntry struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Session identifies the acting employee. Admin is derived once at login from
// default-admin group membership and stays fixed for the session lifetime.
type Session struct {
	EmployeeID string `json:"employee_id"`
	Admin      bool   `json:"admin"`
}

// EmployeePatch merges caller-supplied fields onto an employee. Nil fields are
// left untouched. The ID and Protected flag are not patchable.
type EmployeePatch struct {
	Name        *string  `json:"name,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Salary      *float64 `json:"salary,omitempty"`
	DateOfHire  *string  `json:"date_of_hire,omitempty"`
	DateOfBirth *string  `json:"date_of_birth,omitempty"`
	Department  *string  `json:"department,omitempty"`
	Role        *string  `json:"role,omitempty"`
}

// Apply copies the non-nil patch fields onto the employee.
func (p EmployeePatch) Apply(e *Employee) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Address != nil {
		e.Address = *p.Address
	}
	if p.Salary != nil {
		e.Salary = *p.Salary
	}
	if p.DateOfHire != nil {
		e.DateOfHire = *p.DateOfHire
	}
	if p.DateOfBirth != nil {
		e.DateOfBirth = *p.DateOfBirth
	}
	if p.Department != nil {
		e.Department = *p.Department
	}
	if p.Role != nil {
		e.Role = *p.Role
	}
}

// GroupPatch merges caller-supplied fields onto a group. Membership changes go
// through the dedicated member operations and the DefaultAdmin flag is never
// patchable, so only the descriptive fields appear here.
type GroupPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Apply copies the non-nil patch fields onto the group.
func (p GroupPatch) Apply(g *Group) {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
}

// TaskPatch merges caller-supplied fields onto a task. CreatedAt is stamped at
// creation and never patched.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
	GroupID     *string `json:"group_id,omitempty"`
	StatusID    *string `json:"status_id,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

// Apply copies the non-nil patch fields onto the task.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.AssigneeID != nil {
		t.AssigneeID = *p.AssigneeID
	}
	if p.GroupID != nil {
		t.GroupID = *p.GroupID
	}
	if p.StatusID != nil {
		t.StatusID = *p.StatusID
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
