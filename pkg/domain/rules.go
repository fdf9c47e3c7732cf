package domain

import "context"

// RuleView provides read-only access to staged state during rule evaluation.
type RuleView interface {
	ListEmployees() []Employee
	ListGroups() []Group
	ListStatuses() []Status
	ListTasks() []Task
	FindEmployee(id string) (Employee, bool)
	FindGroup(id string) (Group, bool)
	FindStatus(id string) (Status, bool)
	FindTask(id string) (Task, bool)
}

// Rule evaluates staged changes against domain invariants.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine evaluates registered rules sequentially.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine creates an engine with the provided rules.
func NewRulesEngine(rules ...Rule) *RulesEngine {
	return &RulesEngine{rules: append([]Rule(nil), rules...)}
}

// Register appends a rule to the evaluation chain.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules returns the registered rules in evaluation order.
func (e *RulesEngine) Rules() []Rule {
	if e == nil {
		return nil
	}
	return append([]Rule(nil), e.rules...)
}

// Evaluate runs all rules, merging their results. A rule error aborts
// evaluation immediately.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	if e == nil {
		return combined, nil
	}
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return combined, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
