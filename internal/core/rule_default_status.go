package core

import (
	"clinicboard/pkg/domain"
	"context"
	"fmt"
)

// NewDefaultStatusRule returns the rule blocking deletion of default statuses.
func NewDefaultStatusRule() domain.Rule {
	return defaultStatusRule{}
}

type defaultStatusRule struct{}

func (defaultStatusRule) Name() string { return "default_status" }

func (defaultStatusRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityStatus || change.Action != domain.ActionDelete {
			continue
		}
		if before, ok := change.Before.(domain.Status); ok && before.Default {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "default_status",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("default status %s (%s) cannot be deleted", before.Name, before.ID),
				Entity:   domain.EntityStatus,
				EntityID: before.ID,
			})
		}
	}
	return res, nil
}
