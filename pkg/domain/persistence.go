package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateEmployee(Employee) (Employee, error)
	UpdateEmployee(id string, mutator func(*Employee) error) (Employee, error)
	DeleteEmployee(id string) error
	CreateGroup(Group) (Group, error)
	UpdateGroup(id string, mutator func(*Group) error) (Group, error)
	DeleteGroup(id string) error
	CreateStatus(Status) (Status, error)
	UpdateStatus(id string, mutator func(*Status) error) (Status, error)
	DeleteStatus(id string) error
	CreateTask(Task) (Task, error)
	UpdateTask(id string, mutator func(*Task) error) (Task, error)
	DeleteTask(id string) error
	// NextTaskID consumes the task sequence counter and returns the next
	// generated identifier.
	NextTaskID() string
	AppendActivity(message string) ActivityEntry
	SetSession(Session)
	ClearSession()
	SetTheme(Theme)
	FindEmployee(id string) (Employee, bool)
	FindGroup(id string) (Group, bool)
	FindStatus(id string) (Status, bool)
	FindTask(id string) (Task, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// queries.
type TransactionView interface {
	RuleView
	ListActivity() []ActivityEntry
	CurrentSession() (Session, bool)
	CurrentTheme() Theme
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetEmployee(id string) (Employee, bool)
	ListEmployees() []Employee
	GetGroup(id string) (Group, bool)
	ListGroups() []Group
	GetStatus(id string) (Status, bool)
	ListStatuses() []Status
	GetTask(id string) (Task, bool)
	ListTasks() []Task
	ListActivity() []ActivityEntry
	CurrentSession() (Session, bool)
	CurrentTheme() Theme
}
