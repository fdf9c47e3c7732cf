package core

import (
	"clinicboard/pkg/domain"
	"context"
	"fmt"
)

// NewAdminGroupRule returns the rule keeping the default-admin flag unique.
// Two flagged groups block the transaction; zero is only a warning because a
// legacy snapshot may predate the flag entirely.
func NewAdminGroupRule() domain.Rule {
	return adminGroupRule{}
}

type adminGroupRule struct{}

func (adminGroupRule) Name() string { return "admin_group" }

func (adminGroupRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	var flagged []domain.Group
	for _, group := range view.ListGroups() {
		if group.DefaultAdmin {
			flagged = append(flagged, group)
		}
	}
	res := domain.Result{}
	switch {
	case len(flagged) > 1:
		for _, group := range flagged {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "admin_group",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("multiple default-admin groups: %s is one of %d", group.ID, len(flagged)),
				Entity:   domain.EntityGroup,
				EntityID: group.ID,
			})
		}
	case len(flagged) == 0:
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "admin_group",
			Severity: domain.SeverityWarn,
			Message:  "no default-admin group present",
			Entity:   domain.EntityGroup,
		})
	}
	return res, nil
}
