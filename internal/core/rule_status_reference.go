package core

import (
	"clinicboard/pkg/domain"
	"context"
	"fmt"
)

// NewStatusReferenceRule returns the rule watching task status references.
// A task pointing at a missing status is reported as a warning so the board
// can still render it; the service repairs references on status removal.
func NewStatusReferenceRule() domain.Rule {
	return statusReferenceRule{}
}

type statusReferenceRule struct{}

func (statusReferenceRule) Name() string { return "status_reference" }

func (statusReferenceRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, task := range view.ListTasks() {
		if task.StatusID == "" {
			continue
		}
		if _, ok := view.FindStatus(task.StatusID); !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "status_reference",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("task %s references missing status %s", task.ID, task.StatusID),
				Entity:   domain.EntityTask,
				EntityID: task.ID,
			})
		}
	}
	return res, nil
}
