package core

import (
	"clinicboard/internal/infra/persistence/memory"
	"clinicboard/pkg/domain"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Sentinel results for mutations that were refused rather than failed. Both
// commit an activity entry describing the refusal before returning, so the
// board state is untouched but the audit trail records the attempt.
var (
	// ErrUnauthorized indicates the current session may not perform the
	// requested mutation.
	ErrUnauthorized = errors.New("operation requires an admin session")
	// ErrBlocked indicates the mutation targeted a protected record.
	ErrBlocked = errors.New("operation blocked by protection rules")
)

// Service exposes the board operations on top of a persistent store. Every
// mutation runs inside a store transaction, passes the rules engine, and
// appends to the activity log on commit.
type Service struct {
	store   PersistentStore
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	now     func() time.Time
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service over a seeded in-memory store with the
// given rules engine. Intended for tests and ephemeral deployments.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(memory.NewSeededStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// run wraps a store transaction with tracing, metrics and failure logging.
func (s *Service) run(ctx context.Context, operation string, fn func(domain.Transaction) error) (Result, error) {
	ctx, span := s.tracer.Start(ctx, operation)
	start := s.now()
	res, err := s.store.RunInTransaction(ctx, fn)
	s.metrics.Observe(ctx, operation, err == nil, s.now().Sub(start))
	span.End(err)
	if err != nil {
		s.logger.Errorf("%s failed: %v", operation, err)
	}
	return res, err
}

// requireAdmin reports whether the transaction runs under an admin session.
// A refused check appends the rejection message so the attempt is auditable.
func (s *Service) requireAdmin(tx domain.Transaction, message string) bool {
	if sess, ok := tx.Snapshot().CurrentSession(); ok && sess.Admin {
		return true
	}
	tx.AppendActivity(message)
	return false
}

// Login establishes a session for the given employee. Admin standing is
// decided once here, from the override flag or default-admin group
// membership, and stays fixed until logout.
func (s *Service) Login(ctx context.Context, employeeID string, overrideAdmin bool) (Session, Result, error) {
	var session Session
	found := true
	res, err := s.run(ctx, "login", func(tx domain.Transaction) error {
		emp, ok := tx.FindEmployee(employeeID)
		if !ok {
			found = false
			tx.AppendActivity(fmt.Sprintf("Login attempt for unknown employee %s.", employeeID))
			return nil
		}
		admin := overrideAdmin
		if !admin {
			for _, group := range tx.Snapshot().ListGroups() {
				if !group.DefaultAdmin {
					continue
				}
				for _, id := range group.MemberIDs {
					if id == emp.ID {
						admin = true
						break
					}
				}
			}
		}
		session = Session{EmployeeID: emp.ID, Admin: admin}
		tx.SetSession(session)
		role := "User"
		if admin {
			role = "Admin"
		}
		tx.AppendActivity(fmt.Sprintf("Logged in as %s (%s)", emp.Name, role))
		return nil
	})
	if err != nil {
		return Session{}, res, err
	}
	if !found {
		return Session{}, res, NotFoundError{Entity: domain.EntityEmployee, ID: employeeID}
	}
	return session, res, nil
}

// Logout clears the current session. Logging out without a session is a no-op.
func (s *Service) Logout(ctx context.Context) (Result, error) {
	return s.run(ctx, "logout", func(tx domain.Transaction) error {
		tx.ClearSession()
		return nil
	})
}

// CurrentSession returns the active session, if any.
func (s *Service) CurrentSession() (Session, bool) {
	return s.store.CurrentSession()
}

// ValidateNewEmployeeID checks whether an employee identifier is usable for a
// new record without opening a write transaction.
func (s *Service) ValidateNewEmployeeID(id string) error {
	if id == "" {
		return fmt.Errorf("employee id is required")
	}
	if _, ok := s.store.GetEmployee(id); ok {
		return DuplicateIDError{Entity: domain.EntityEmployee, ID: id}
	}
	return nil
}

// AddEmployee creates an employee record. Admin only.
func (s *Service) AddEmployee(ctx context.Context, employee Employee) (Employee, Result, error) {
	var created Employee
	authorized := true
	res, err := s.run(ctx, "add_employee", func(tx domain.Transaction) error {
		if !s.requireAdmin(tx, "Unauthorized attempt to add employee.") {
			authorized = false
			return nil
		}
		if _, ok := tx.FindEmployee(employee.ID); ok {
			return DuplicateIDError{Entity: domain.EntityEmployee, ID: employee.ID}
		}
		employee.Protected = false
		var err error
		created, err = tx.CreateEmployee(employee)
		if err != nil {
			return err
		}
		tx.AppendActivity(fmt.Sprintf("Employee %s added.", created.Name))
		return nil
	})
	if err != nil {
		return Employee{}, res, err
	}
	if !authorized {
		return Employee{}, res, ErrUnauthorized
	}
	return created, res, nil
}

// UpdateEmployee merges a patch onto an existing employee. Admin only.
func (s *Service) UpdateEmployee(ctx context.Context, id string, patch EmployeePatch) (Employee, Result, error) {
	var updated Employee
	authorized := true
	res, err := s.run(ctx, "update_employee", func(tx domain.Transaction) error {
		if !s.requireAdmin(tx, "Unauthorized attempt to update employee.") {
			authorized = false
			return nil
		}
		if _, ok := tx.FindEmployee(id); !ok {
			return NotFoundError{Entity: domain.EntityEmployee, ID: id}
		}
		var err error
		updated, err = tx.UpdateEmployee(id, func(e *Employee) error {
			patch.Apply(e)
			return nil
		})
		if err != nil {
			return err
		}
		tx.AppendActivity(fmt.Sprintf("Employee %s updated.", id))
		return nil
	})
	if err != nil {
		return Employee{}, res, err
	}
	if !authorized {
		return Employee{}, res, ErrUnauthorized
	}
	return updated, res, nil
}

// RemoveEmployee deletes an employee and cascades the reference cleanup:
// group memberships drop the ID and assigned tasks become unassigned.
// Admin only; protected employees are refused with an audit entry.
func (s *Service) RemoveEmployee(ctx context.Context, id string) (Result, error) {
	authorized := true
	blocked := false
	res, err := s.run(ctx, "remove_employee", func(tx domain.Transaction) error {
		if !s.requireAdmin(tx, "Unauthorized attempt to remove employee.") {
			authorized = false
			return nil
		}
		emp, ok := tx.FindEmployee(id)
		if !ok {
			return NotFoundError{Entity: domain.EntityEmployee, ID: id}
		}
		if emp.Protected {
			blocked = true
			tx.AppendActivity(fmt.Sprintf("Attempted to delete protected admin %s - blocked.", emp.Name))
			return nil
		}
		if err := tx.DeleteEmployee(id); err != nil {
			return err
		}
		tx.AppendActivity(fmt.Sprintf("Employee %s removed.", id))
		return nil
	})
	if err != nil {
		return res, err
	}
	if !authorized {
		return res, ErrUnauthorized
	}
	if blocked {
		return res, ErrBlocked
	}
	return res, nil
}

// AddGroup creates a group. Membership starts empty and the default-admin
// flag can never be set through this path. Admin only.
func (s *Service) AddGroup(ctx context.Context, group Group) (Group, Result, error) {
	var created Group
	authorized := true
	res, err := s.run(ctx, "add_group", func(tx domain.Transaction) error {
		if !s.requireAdmin(tx, "Unauthorized attempt to create group.") {
			authorized = false
			return nil
		}
		if _, ok := tx.FindGroup(group.ID); ok {
			return DuplicateIDError{Entity: domain.EntityGroup, ID: group.ID}
		}
		group.DefaultAdmin = false
		group.MemberIDs = nil
		var err error
		created, err = tx.CreateGroup(group)
		if err != nil {
			return err
		}
		tx.AppendActivity(fmt.Sprintf("Group %s created.", created.Name))
		return nil
	})
	if err != nil {
		return Group{}, res, err
	}
	if !authorized {
		return Group{}, res, ErrUnauthorized
	}
	return created, res, nil
}

// UpdateGroup merges a patch onto a group's descriptive fields. Admin only.
func (s *Service) UpdateGroup(ctx context.Context, id string, patch GroupPatch) (Group, Result, error) {
	var updated Group
	authorized := true
	res, err := s.run(ctx, "update_group", func(tx domain.Transaction) error {
		if !s.requireAdmin(tx, "Unauthorized attempt to update group.") {
			authorized = false
			return nil
		}
		if _, ok := tx.FindGroup(id); !ok {
			return NotFoundError{Entity: domain.EntityGroup, ID: id}
		}
		var err error
		updated, err = tx.UpdateGroup(id, func(g *Group) error {
			patch.Apply(g)
			return nil
		})
		if err != nil {
			return err
		}
		tx.AppendActivity(fmt.Sprintf("Group %s updated.", id))
		return nil
	})
	if err != nil {
		return Group{}, res, err
	}
	if !authorized {
		return Group{}, res, ErrUnauthorized
	}
	return updated, res, nil
}

// AddGroupMember adds an employee to a group. Adding an existing member is
// idempotent for state but still recorded. Admin only.
func (s *Service) AddGroupMember(ctx context.Context, groupID, employeeID string) (Result, error) {
	authorized := true
	res, err := s.run(ctx, "add_group_member", func(tx domain.Transaction) error {
		if !s.requireAdmin(tx, "Unauthorized attempt to add member to group.") {
			authorized = false
			return nil
		}
		if _, ok := tx.FindEmployee(employeeID); !ok {
			return NotFoundError{Entity: domain.EntityEmployee, ID: employeeID}
		}
		if _, ok := tx.FindGroup(groupID); !ok {
			return NotFoundError{Entity: domain.EntityGroup, ID: groupID}
		}
		if _, err := tx.UpdateGroup(groupID, func(g *Group) error {
			for _, id := range g.MemberIDs {
				if id == employeeID {
					return nil
				}
			}
			g.MemberIDs = append(g.MemberIDs, employeeID)
			return nil
		}); err != nil {
			return err
		}
		tx.AppendActivity(fmt.Sprintf("Employee %s added to group %s.", employeeID, groupID))
		return nil
	})
	if err != nil {
		return res, err
	}
	if !authorized {
		return res, ErrUnauthorized
	}
	return res, nil
}

// RemoveGroupMember drops an employee from a group. Protected employees stay
// in the default-admin group; such attempts are refused with an audit entry.
// Admin only.
func (s *Service) RemoveGroupMember(ctx context.Context, groupID, employeeID string) (Result, error) {
	authorized := true
	blocked := false
	res, err := s.run(ctx, "remove_group_member", func(tx domain.Transaction) error {
		if !s.requireAdmin(tx, "Unauthorized attempt to remove member from group.") {
			authorized = false
			return nil
		}
		group, ok := tx.FindGroup(groupID)
		if !ok {
			return NotFoundError{Entity: domain.EntityGroup, ID: groupID}
		}
		if emp, ok := tx.FindEmployee(employeeID); ok && emp.Protected && group.DefaultAdmin {
			blocked = true
			tx.AppendActivity(fmt.Sprintf("Attempted to remove protected admin %s from Admin group - blocked.", emp.Name))
			return nil
		}
		if _, err := tx.UpdateGroup(groupID, func(g *Group) error {
			kept := g.MemberIDs[:0]
			for _, id := range g.MemberIDs {
				if id != employeeID {
					kept = append(kept, id)
				}
			}
			g.MemberIDs = kept
			return nil
		}); err != nil {
			return err
		}
		tx.AppendActivity(fmt.Sprintf("Employee %s removed from group %s.", employeeID, groupID))
		return nil
	})
	if err != nil {
		return res, err
	}
	if !authorized {
		return res, ErrUnauthorized
	}
	if blocked {
		return res, ErrBlocked
	}
	return res, nil
}

// AddStatus appends a workflow status at the end of the order. Caller-supplied
// order values and default flags are ignored so created statuses are always
// deletable and sort last. Admin only.
func (s *Service) AddStatus(ctx context.Context, status Status) (Status, Result, error) {
	var created Status
	authorized := true
	res, err := s.run(ctx, "add_status", func(tx domain.Transaction) error {
		if !s.requireAdmin(tx, "Unauthorized attempt to add status.") {
			authorized = false
			return nil
		}
		if _, ok := tx.FindStatus(status.ID); ok {
			return DuplicateIDError{Entity: domain.EntityStatus, ID: status.ID}
		}
		next := 0
		for _, existing := range tx.Snapshot().ListStatuses() {
			if existing.Order >= next {
				next = existing.Order + 1
			}
		}
		status.Order = next
		status.Default = false
		var err error
		created, err = tx.CreateStatus(status)
		if err != nil {
			return err
		}
		tx.AppendActivity(fmt.Sprintf("Status %q added.", created.Name))
		return nil
	})
	if err != nil {
		return Status{}, res, err
	}
	if !authorized {
		return Status{}, res, ErrUnauthorized
	}
	return created, res, nil
}

// ReorderStatus swaps a status's order value with its neighbour in the given
// direction. Moves past either end, and moves of unknown statuses, change
// nothing but are still recorded. Admin only.
func (s *Service) ReorderStatus(ctx context.Context, id string, direction Direction) (Result, error) {
	if direction != domain.DirectionUp && direction != domain.DirectionDown {
		return Result{}, fmt.Errorf("unknown direction %q", direction)
	}
	authorized := true
	res, err := s.run(ctx, "reorder_status", func(tx domain.Transaction) error {
		if !s.requireAdmin(tx, "Unauthorized attempt to reorder statuses.") {
			authorized = false
			return nil
		}
		ordered := sortStatuses(tx.Snapshot().ListStatuses())
		idx := -1
		for i, status := range ordered {
			if status.ID == id {
				idx = i
				break
			}
		}
		swap := -1
		switch {
		case idx < 0:
		case direction == domain.DirectionUp && idx > 0:
			swap = idx - 1
		case direction == domain.DirectionDown && idx < len(ordered)-1:
			swap = idx + 1
		}
		if swap >= 0 {
			a, b := ordered[idx], ordered[swap]
			if _, err := tx.UpdateStatus(a.ID, func(st *Status) error {
				st.Order = b.Order
				return nil
			}); err != nil {
				return err
			}
			if _, err := tx.UpdateStatus(b.ID, func(st *Status) error {
				st.Order = a.Order
				return nil
			}); err != nil {
				return err
			}
		}
		tx.AppendActivity("Status order updated.")
		return nil
	})
	if err != nil {
		return res, err
	}
	if !authorized {
		return res, ErrUnauthorized
	}
	return res, nil
}

// RemoveStatus deletes a status and moves its tasks to a fallback column:
// the lowest-ordered default status, or the lowest-ordered survivor when no
// default remains. Default statuses are refused with an audit entry. Removing
// an unknown status is a no-op. Admin only.
func (s *Service) RemoveStatus(ctx context.Context, id string) (Result, error) {
	authorized := true
	blocked := false
	res, err := s.run(ctx, "remove_status", func(tx domain.Transaction) error {
		if !s.requireAdmin(tx, "Unauthorized attempt to remove status.") {
			authorized = false
			return nil
		}
		status, ok := tx.FindStatus(id)
		if !ok {
			return nil
		}
		if status.Default {
			blocked = true
			tx.AppendActivity(fmt.Sprintf("Attempted to delete default status %s - blocked.", status.Name))
			return nil
		}
		var fallback string
		remaining := sortStatuses(tx.Snapshot().ListStatuses())
		for _, candidate := range remaining {
			if candidate.ID == id {
				continue
			}
			if candidate.Default {
				fallback = candidate.ID
				break
			}
			if fallback == "" {
				fallback = candidate.ID
			}
		}
		for _, task := range tx.Snapshot().ListTasks() {
			if task.StatusID != id {
				continue
			}
			if _, err := tx.UpdateTask(task.ID, func(t *Task) error {
				t.StatusID = fallback
				return nil
			}); err != nil {
				return err
			}
		}
		if err := tx.DeleteStatus(id); err != nil {
			return err
		}
		tx.AppendActivity(fmt.Sprintf("Status %s removed.", id))
		return nil
	})
	if err != nil {
		return res, err
	}
	if !authorized {
		return res, ErrUnauthorized
	}
	if blocked {
		return res, ErrBlocked
	}
	return res, nil
}

// AddTask creates a task. A blank ID draws the next generated identifier from
// the task sequence. Admin only.
func (s *Service) AddTask(ctx context.Context, task Task) (Task, Result, error) {
	var created Task
	authorized := true
	res, err := s.run(ctx, "add_task", func(tx domain.Transaction) error {
		if !s.requireAdmin(tx, "Unauthorized attempt to create task.") {
			authorized = false
			return nil
		}
		if task.ID != "" {
			if _, ok := tx.FindTask(task.ID); ok {
				return DuplicateIDError{Entity: domain.EntityTask, ID: task.ID}
			}
		}
		var err error
		created, err = tx.CreateTask(task)
		if err != nil {
			return err
		}
		tx.AppendActivity(fmt.Sprintf("Task %q created.", created.Title))
		return nil
	})
	if err != nil {
		return Task{}, res, err
	}
	if !authorized {
		return Task{}, res, ErrUnauthorized
	}
	return created, res, nil
}

// UpdateTask merges a patch onto a task. Any signed-in employee may update
// tasks; this is the one mutation that is not admin-gated, so board columns
// stay usable for regular staff.
func (s *Service) UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, Result, error) {
	var updated Task
	signedIn := true
	res, err := s.run(ctx, "update_task", func(tx domain.Transaction) error {
		if _, ok := tx.Snapshot().CurrentSession(); !ok {
			signedIn = false
			return nil
		}
		before, ok := tx.FindTask(id)
		if !ok {
			return NotFoundError{Entity: domain.EntityTask, ID: id}
		}
		var err error
		updated, err = tx.UpdateTask(id, func(t *Task) error {
			patch.Apply(t)
			return nil
		})
		if err != nil {
			return err
		}
		if patch.StatusID != nil && updated.StatusID != before.StatusID {
			statusName := updated.StatusID
			if st, ok := tx.FindStatus(updated.StatusID); ok {
				statusName = st.Name
			}
			tx.AppendActivity(fmt.Sprintf("Task %q updated (status: %s).", updated.Title, statusName))
		} else {
			tx.AppendActivity(fmt.Sprintf("Task %q updated.", updated.Title))
		}
		return nil
	})
	if err != nil {
		return Task{}, res, err
	}
	if !signedIn {
		return Task{}, res, ErrUnauthorized
	}
	return updated, res, nil
}

// MarkTaskComplete moves a task to the terminal column: the status named
// complete in the seed data when present, otherwise the highest-ordered one.
func (s *Service) MarkTaskComplete(ctx context.Context, id string) (Task, Result, error) {
	target := ""
	if _, ok := s.store.GetStatus("S_COMPLETE"); ok {
		target = "S_COMPLETE"
	} else {
		ordered := sortStatuses(s.store.ListStatuses())
		if len(ordered) > 0 {
			target = ordered[len(ordered)-1].ID
		}
	}
	if target == "" {
		return Task{}, Result{}, fmt.Errorf("no status available to complete task %s", id)
	}
	return s.UpdateTask(ctx, id, TaskPatch{StatusID: &target})
}

// SetTheme switches the display palette. Theme is a display preference, so no
// session is required; unrecognized values are recorded and dropped.
func (s *Service) SetTheme(ctx context.Context, theme Theme) (Result, error) {
	return s.run(ctx, "set_theme", func(tx domain.Transaction) error {
		if !theme.Valid() {
			tx.AppendActivity(fmt.Sprintf("Ignored invalid theme %s.", theme))
			return nil
		}
		tx.SetTheme(theme)
		return nil
	})
}

// ToggleTheme flips between the two palettes.
func (s *Service) ToggleTheme(ctx context.Context) (Theme, Result, error) {
	next := domain.ThemeDark
	if s.store.CurrentTheme() == domain.ThemeDark {
		next = domain.ThemeLight
	}
	res, err := s.SetTheme(ctx, next)
	return next, res, err
}

// Theme returns the current display palette.
func (s *Service) Theme() Theme {
	return s.store.CurrentTheme()
}

// Employees lists all employees sorted by ID.
func (s *Service) Employees() []Employee {
	out := s.store.ListEmployees()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Groups lists all groups sorted by ID.
func (s *Service) Groups() []Group {
	out := s.store.ListGroups()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Statuses lists all statuses sorted by ID.
func (s *Service) Statuses() []Status {
	out := s.store.ListStatuses()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// StatusesByOrder lists statuses in workflow order, ID as tie-break.
func (s *Service) StatusesByOrder() []Status {
	return sortStatuses(s.store.ListStatuses())
}

// Tasks lists all tasks sorted by ID.
func (s *Service) Tasks() []Task {
	out := s.store.ListTasks()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Activity returns the recent activity log, newest first.
func (s *Service) Activity() []ActivityEntry {
	return s.store.ListActivity()
}

// MembersOf resolves a group's member IDs to employee records, skipping any
// that no longer exist.
func (s *Service) MembersOf(groupID string) ([]Employee, error) {
	group, ok := s.store.GetGroup(groupID)
	if !ok {
		return nil, NotFoundError{Entity: domain.EntityGroup, ID: groupID}
	}
	members := make([]Employee, 0, len(group.MemberIDs))
	for _, id := range group.MemberIDs {
		if emp, ok := s.store.GetEmployee(id); ok {
			members = append(members, emp)
		}
	}
	return members, nil
}

// TasksFor lists the tasks assigned to an employee, sorted by ID.
func (s *Service) TasksFor(employeeID string) []Task {
	var assigned []Task
	for _, task := range s.Tasks() {
		if task.AssigneeID == employeeID {
			assigned = append(assigned, task)
		}
	}
	return assigned
}

// VisibleTasks lists the tasks the current session may see: everything for
// admins, assigned plus group-scoped tasks for regular staff, nothing when
// signed out.
func (s *Service) VisibleTasks() []Task {
	session, ok := s.store.CurrentSession()
	if !ok {
		return nil
	}
	if session.Admin {
		return s.Tasks()
	}
	memberships := make(map[string]struct{})
	for _, group := range s.store.ListGroups() {
		for _, id := range group.MemberIDs {
			if id == session.EmployeeID {
				memberships[group.ID] = struct{}{}
				break
			}
		}
	}
	var visible []Task
	for _, task := range s.Tasks() {
		if task.AssigneeID == session.EmployeeID {
			visible = append(visible, task)
			continue
		}
		if task.GroupID != "" {
			if _, ok := memberships[task.GroupID]; ok {
				visible = append(visible, task)
			}
		}
	}
	return visible
}

// sortStatuses returns a copy sorted by order value, ID as tie-break.
func sortStatuses(statuses []Status) []Status {
	out := append([]Status(nil), statuses...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}
