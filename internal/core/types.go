package core

import "clinicboard/pkg/domain"

type (
	// Employee aliases domain.Employee for service-level operations.
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
	// Theme aliases domain.Theme.
	Theme = domain.Theme
	// Direction aliases domain.Direction for status reordering.
	Direction = domain.Direction
	// EmployeePatch aliases domain.EmployeePatch.
	EmployeePatch = domain.EmployeePatch
	// GroupPatch aliases domain.GroupPatch.
	GroupPatch = domain.GroupPatch
	// TaskPatch aliases domain.TaskPatch.
	TaskPatch = domain.TaskPatch
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore.
	PersistentStore = domain.PersistentStore
)
