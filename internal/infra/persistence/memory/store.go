// Package memory provides the in-memory transactional store backing every
// durable driver and used directly for tests and ephemeral environments.
package memory

import (
	"clinicboard/pkg/domain"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Employee aliases domain.Employee for in-memory persistence operations.
	Employee = domain.Employee
	// Group aliases domain.Group.
	Group = domain.Group
	// Status aliases domain.Status.
	Status = domain.Status
	// Task aliases domain.Task.
	Task = domain.Task
	// ActivityEntry aliases domain.ActivityEntry.
	ActivityEntry = domain.ActivityEntry
	// Session aliases domain.Session.
	Session = domain.Session
	// Snapshot aliases domain.Snapshot captured by Export/Import.
	Snapshot = domain.Snapshot
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	employees   map[string]Employee
	groups      map[string]Group
	statuses    map[string]Status
	tasks       map[string]Task
	activity    []ActivityEntry
	session     *Session
	theme       domain.Theme
	taskSeq     int
	activitySeq int
}

func newMemoryState() memoryState {
	return memoryState{
		employees: make(map[string]Employee),
		groups:    make(map[string]Group),
		statuses:  make(map[string]Status),
		tasks:     make(map[string]Task),
		theme:     domain.ThemeDark,
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		SchemaVersion: domain.SnapshotSchemaVersion,
		Employees:     make(map[string]Employee, len(state.employees)),
		Groups:        make(map[string]Group, len(state.groups)),
		Statuses:      make(map[string]Status, len(state.statuses)),
		Tasks:         make(map[string]Task, len(state.tasks)),
		Activity:      make([]ActivityEntry, len(state.activity)),
		Theme:         state.theme,
		TaskSeq:       state.taskSeq,
		ActivitySeq:   state.activitySeq,
	}
	for k, v := range state.employees {
		s.Employees[k] = v
	}
	for k, v := range state.groups {
		s.Groups[k] = cloneGroup(v)
	}
	for k, v := range state.statuses {
		s.Statuses[k] = v
	}
	for k, v := range state.tasks {
		s.Tasks[k] = v
	}
	copy(s.Activity, state.activity)
	if state.session != nil {
		sess := *state.session
		s.Session = &sess
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Employees {
		state.employees[k] = v
	}
	for k, v := range s.Groups {
		state.groups[k] = cloneGroup(v)
	}
	for k, v := range s.Statuses {
		state.statuses[k] = v
	}
	for k, v := range s.Tasks {
		state.tasks[k] = v
	}
	state.activity = append(state.activity, s.Activity...)
	if s.Session != nil {
		sess := *s.Session
		state.session = &sess
	}
	state.theme = s.Theme
	state.taskSeq = s.TaskSeq
	state.activitySeq = s.ActivitySeq
	return state
}

// migrateSnapshot repairs snapshots written by older or buggy producers so
// imported state always satisfies the structural assumptions of the store.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Employees == nil {
		snapshot.Employees = map[string]Employee{}
	}
	if snapshot.Groups == nil {
		snapshot.Groups = map[string]Group{}
	}
	if snapshot.Statuses == nil {
		snapshot.Statuses = map[string]Status{}
	}
	if snapshot.Tasks == nil {
		snapshot.Tasks = map[string]Task{}
	}

	employeeExists := func(id string) bool {
		_, ok := snapshot.Employees[id]
		return ok
	}

	for id, group := range snapshot.Groups {
		if filtered, changed := filterIDs(group.MemberIDs, employeeExists); changed {
			group.MemberIDs = filtered
			snapshot.Groups[id] = group
		}
	}

	if snapshot.Session != nil && !employeeExists(snapshot.Session.EmployeeID) {
		snapshot.Session = nil
	}
	if !snapshot.Theme.Valid() {
		snapshot.Theme = domain.ThemeDark
	}
	if len(snapshot.Activity) > domain.ActivityLogLimit {
		snapshot.Activity = snapshot.Activity[:domain.ActivityLogLimit]
	}

	// Counters never run behind existing generated identifiers.
	for id := range snapshot.Tasks {
		if n, ok := numericSuffix(id, "T"); ok && n > snapshot.TaskSeq {
			snapshot.TaskSeq = n
		}
	}
	for _, entry := range snapshot.Activity {
		if n, ok := numericSuffix(entry.ID, "A"); ok && n > snapshot.ActivitySeq {
			snapshot.ActivitySeq = n
		}
	}

	snapshot.SchemaVersion = domain.SnapshotSchemaVersion
	return snapshot
}

func numericSuffix(id, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.employees {
		cloned.employees[k] = v
	}
	for k, v := range s.groups {
		cloned.groups[k] = cloneGroup(v)
	}
	for k, v := range s.statuses {
		cloned.statuses[k] = v
	}
	for k, v := range s.tasks {
		cloned.tasks[k] = v
	}
	cloned.activity = append([]ActivityEntry(nil), s.activity...)
	if s.session != nil {
		sess := *s.session
		cloned.session = &sess
	}
	cloned.theme = s.theme
	cloned.taskSeq = s.taskSeq
	cloned.activitySeq = s.activitySeq
	return cloned
}

func cloneGroup(g Group) Group {
	cp := g
	cp.MemberIDs = append([]string(nil), g.MemberIDs...)
	return cp
}

func containsString(values []string, id string) bool {
	for _, existing := range values {
		if existing == id {
			return true
		}
	}
	return false
}

func filterIDs(values []string, exists func(string) bool) ([]string, bool) {
	if len(values) == 0 {
		return nil, false
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	changed := false
	for _, v := range values {
		if _, ok := seen[v]; ok {
			changed = true
			continue
		}
		seen[v] = struct{}{}
		if !exists(v) {
			changed = true
			continue
		}
		out = append(out, v)
	}
	if !changed && len(out) == len(values) {
		return values, false
	}
	return out, true
}

// Store provides an in-memory transactional store for the board domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an empty in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// NewSeededStore constructs a store preloaded with the default seed snapshot.
func NewSeededStore(engine *RulesEngine) *Store {
	s := NewStore(engine)
	s.ImportState(domain.DefaultSnapshot())
	return s
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc overrides the time provider. Intended for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListEmployees returns all employees within the transaction snapshot.
func (v transactionView) ListEmployees() []Employee {
	out := make([]Employee, 0, len(v.state.employees))
	for _, e := range v.state.employees {
		out = append(out, e)
	}
	return out
}

// ListGroups returns all groups within the transaction snapshot.
func (v transactionView) ListGroups() []Group {
	out := make([]Group, 0, len(v.state.groups))
	for _, g := range v.state.groups {
		out = append(out, cloneGroup(g))
	}
	return out
}

// ListStatuses returns all statuses within the transaction snapshot.
func (v transactionView) ListStatuses() []Status {
	out := make([]Status, 0, len(v.state.statuses))
	for _, st := range v.state.statuses {
		out = append(out, st)
	}
	return out
}

// ListTasks returns all tasks within the transaction snapshot.
func (v transactionView) ListTasks() []Task {
	out := make([]Task, 0, len(v.state.tasks))
	for _, t := range v.state.tasks {
		out = append(out, t)
	}
	return out
}

// ListActivity returns the activity log, newest first.
func (v transactionView) ListActivity() []ActivityEntry {
	return append([]ActivityEntry(nil), v.state.activity...)
}

// FindEmployee retrieves an employee by ID from the snapshot.
func (v transactionView) FindEmployee(id string) (Employee, bool) {
	e, ok := v.state.employees[id]
	return e, ok
}

// FindGroup retrieves a group by ID from the snapshot.
func (v transactionView) FindGroup(id string) (Group, bool) {
	g, ok := v.state.groups[id]
	if !ok {
		return Group{}, false
	}
	return cloneGroup(g), true
}

// FindStatus retrieves a status by ID from the snapshot.
func (v transactionView) FindStatus(id string) (Status, bool) {
	st, ok := v.state.statuses[id]
	return st, ok
}

// FindTask retrieves a task by ID from the snapshot.
func (v transactionView) FindTask(id string) (Task, bool) {
	t, ok := v.state.tasks[id]
	return t, ok
}

// CurrentSession returns the active session, if any.
func (v transactionView) CurrentSession() (Session, bool) {
	if v.state.session == nil {
		return Session{}, false
	}
	return *v.state.session, true
}

// CurrentTheme returns the persisted theme.
func (v transactionView) CurrentTheme() domain.Theme {
	return v.state.theme
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindEmployee exposes employee lookup within the transaction scope.
func (tx *transaction) FindEmployee(id string) (Employee, bool) {
	e, ok := tx.state.employees[id]
	return e, ok
}

// FindGroup exposes group lookup within the transaction scope.
func (tx *transaction) FindGroup(id string) (Group, bool) {
	g, ok := tx.state.groups[id]
	if !ok {
		return Group{}, false
	}
	return cloneGroup(g), true
}

// FindStatus exposes status lookup within the transaction scope.
func (tx *transaction) FindStatus(id string) (Status, bool) {
	st, ok := tx.state.statuses[id]
	return st, ok
}

// FindTask exposes task lookup within the transaction scope.
func (tx *transaction) FindTask(id string) (Task, bool) {
	t, ok := tx.state.tasks[id]
	return t, ok
}

// CreateEmployee stores a new employee within the transaction. The ID is
// caller-assigned and must be unique.
func (tx *transaction) CreateEmployee(e Employee) (Employee, error) {
	if e.ID == "" {
		return Employee{}, fmt.Errorf("employee requires an id")
	}
	if _, exists := tx.state.employees[e.ID]; exists {
		return Employee{}, fmt.Errorf("employee %q already exists", e.ID)
	}
	tx.state.employees[e.ID] = e
	tx.recordChange(Change{Entity: domain.EntityEmployee, Action: domain.ActionCreate, After: e})
	return e, nil
}

// UpdateEmployee mutates an employee using the provided mutator function.
func (tx *transaction) UpdateEmployee(id string, mutator func(*Employee) error) (Employee, error) {
	current, ok := tx.state.employees[id]
	if !ok {
		return Employee{}, fmt.Errorf("employee %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Employee{}, err
	}
	current.ID = id
	tx.state.employees[id] = current
	tx.recordChange(Change{Entity: domain.EntityEmployee, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteEmployee removes an employee and cascades: the ID is dropped from
// every group's member list and cleared from every task assignment. One
// atomic transition, so a blocked delete leaves memberships intact.
func (tx *transaction) DeleteEmployee(id string) error {
	current, ok := tx.state.employees[id]
	if !ok {
		return fmt.Errorf("employee %q not found", id)
	}
	delete(tx.state.employees, id)
	for gid, group := range tx.state.groups {
		if !containsString(group.MemberIDs, id) {
			continue
		}
		members := make([]string, 0, len(group.MemberIDs)-1)
		for _, m := range group.MemberIDs {
			if m != id {
				members = append(members, m)
			}
		}
		group.MemberIDs = members
		tx.state.groups[gid] = group
	}
	for tid, task := range tx.state.tasks {
		if task.AssigneeID == id {
			task.AssigneeID = ""
			tx.state.tasks[tid] = task
		}
	}
	tx.recordChange(Change{Entity: domain.EntityEmployee, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateGroup stores a new group.
func (tx *transaction) CreateGroup(g Group) (Group, error) {
	if g.ID == "" {
		return Group{}, fmt.Errorf("group requires an id")
	}
	if _, exists := tx.state.groups[g.ID]; exists {
		return Group{}, fmt.Errorf("group %q already exists", g.ID)
	}
	tx.state.groups[g.ID] = cloneGroup(g)
	tx.recordChange(Change{Entity: domain.EntityGroup, Action: domain.ActionCreate, After: cloneGroup(g)})
	return cloneGroup(g), nil
}

// UpdateGroup mutates an existing group.
func (tx *transaction) UpdateGroup(id string, mutator func(*Group) error) (Group, error) {
	current, ok := tx.state.groups[id]
	if !ok {
		return Group{}, fmt.Errorf("group %q not found", id)
	}
	before := cloneGroup(current)
	working := cloneGroup(current)
	if err := mutator(&working); err != nil {
		return Group{}, err
	}
	working.ID = id
	tx.state.groups[id] = cloneGroup(working)
	tx.recordChange(Change{Entity: domain.EntityGroup, Action: domain.ActionUpdate, Before: before, After: cloneGroup(working)})
	return cloneGroup(working), nil
}

// DeleteGroup removes a group; task group references are cleared.
func (tx *transaction) DeleteGroup(id string) error {
	current, ok := tx.state.groups[id]
	if !ok {
		return fmt.Errorf("group %q not found", id)
	}
	delete(tx.state.groups, id)
	for tid, task := range tx.state.tasks {
		if task.GroupID == id {
			task.GroupID = ""
			tx.state.tasks[tid] = task
		}
	}
	tx.recordChange(Change{Entity: domain.EntityGroup, Action: domain.ActionDelete, Before: cloneGroup(current)})
	return nil
}

// CreateStatus stores a new status.
func (tx *transaction) CreateStatus(st Status) (Status, error) {
	if st.ID == "" {
		return Status{}, fmt.Errorf("status requires an id")
	}
	if _, exists := tx.state.statuses[st.ID]; exists {
		return Status{}, fmt.Errorf("status %q already exists", st.ID)
	}
	tx.state.statuses[st.ID] = st
	tx.recordChange(Change{Entity: domain.EntityStatus, Action: domain.ActionCreate, After: st})
	return st, nil
}

// UpdateStatus mutates an existing status.
func (tx *transaction) UpdateStatus(id string, mutator func(*Status) error) (Status, error) {
	current, ok := tx.state.statuses[id]
	if !ok {
		return Status{}, fmt.Errorf("status %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Status{}, err
	}
	current.ID = id
	tx.state.statuses[id] = current
	tx.recordChange(Change{Entity: domain.EntityStatus, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteStatus removes a status. Task reassignment is the caller's concern;
// the status_reference rule flags anything left dangling.
func (tx *transaction) DeleteStatus(id string) error {
	current, ok := tx.state.statuses[id]
	if !ok {
		return fmt.Errorf("status %q not found", id)
	}
	delete(tx.state.statuses, id)
	tx.recordChange(Change{Entity: domain.EntityStatus, Action: domain.ActionDelete, Before: current})
	return nil
}

// CreateTask stores a new task, stamping CreatedAt with the transaction time.
func (tx *transaction) CreateTask(t Task) (Task, error) {
	if t.ID == "" {
		t.ID = tx.NextTaskID()
	}
	if _, exists := tx.state.tasks[t.ID]; exists {
		return Task{}, fmt.Errorf("task %q already exists", t.ID)
	}
	t.CreatedAt = tx.now
	tx.state.tasks[t.ID] = t
	tx.recordChange(Change{Entity: domain.EntityTask, Action: domain.ActionCreate, After: t})
	return t, nil
}

// UpdateTask mutates an existing task.
func (tx *transaction) UpdateTask(id string, mutator func(*Task) error) (Task, error) {
	current, ok := tx.state.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("task %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Task{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	tx.state.tasks[id] = current
	tx.recordChange(Change{Entity: domain.EntityTask, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteTask removes a task.
func (tx *transaction) DeleteTask(id string) error {
	current, ok := tx.state.tasks[id]
	if !ok {
		return fmt.Errorf("task %q not found", id)
	}
	delete(tx.state.tasks, id)
	tx.recordChange(Change{Entity: domain.EntityTask, Action: domain.ActionDelete, Before: current})
	return nil
}

// NextTaskID consumes the task sequence counter. Identifiers stay unique for
// the lifetime of the snapshot regardless of deletions.
func (tx *transaction) NextTaskID() string {
	tx.state.taskSeq++
	return fmt.Sprintf("T%03d", tx.state.taskSeq)
}

// AppendActivity prepends a log entry and truncates the log to its limit.
func (tx *transaction) AppendActivity(message string) ActivityEntry {
	tx.state.activitySeq++
	entry := ActivityEntry{
		ID:        fmt.Sprintf("A%d", tx.state.activitySeq),
		Message:   message,
		Timestamp: tx.now,
	}
	tx.state.activity = append([]ActivityEntry{entry}, tx.state.activity...)
	if len(tx.state.activity) > domain.ActivityLogLimit {
		tx.state.activity = tx.state.activity[:domain.ActivityLogLimit]
	}
	return entry
}

// SetSession installs the active session.
func (tx *transaction) SetSession(sess Session) {
	tx.state.session = &sess
}

// ClearSession removes the active session.
func (tx *transaction) ClearSession() {
	tx.state.session = nil
}

// SetTheme updates the persisted theme.
func (tx *transaction) SetTheme(theme domain.Theme) {
	tx.state.theme = theme
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(id string) (Employee, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.state.employees[id]
	return e, ok
}

// ListEmployees returns all employees.
func (s *Store) ListEmployees() []Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Employee, 0, len(s.state.employees))
	for _, e := range s.state.employees {
		out = append(out, e)
	}
	return out
}

// GetGroup retrieves a group by ID.
func (s *Store) GetGroup(id string) (Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.state.groups[id]
	if !ok {
		return Group{}, false
	}
	return cloneGroup(g), true
}

// ListGroups returns all groups.
func (s *Store) ListGroups() []Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Group, 0, len(s.state.groups))
	for _, g := range s.state.groups {
		out = append(out, cloneGroup(g))
	}
	return out
}

// GetStatus retrieves a status by ID.
func (s *Store) GetStatus(id string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.state.statuses[id]
	return st, ok
}

// ListStatuses returns all statuses.
func (s *Store) ListStatuses() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Status, 0, len(s.state.statuses))
	for _, st := range s.state.statuses {
		out = append(out, st)
	}
	return out
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.tasks[id]
	return t, ok
}

// ListTasks returns all tasks.
func (s *Store) ListTasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, 0, len(s.state.tasks))
	for _, t := range s.state.tasks {
		out = append(out, t)
	}
	return out
}

// ListActivity returns the activity log, newest first.
func (s *Store) ListActivity() []ActivityEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ActivityEntry(nil), s.state.activity...)
}

// CurrentSession returns the active session, if any.
func (s *Store) CurrentSession() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.session == nil {
		return Session{}, false
	}
	return *s.state.session, true
}

// CurrentTheme returns the persisted theme.
func (s *Store) CurrentTheme() domain.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.theme
}
