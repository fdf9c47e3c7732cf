package core

import (
	"clinicboard/pkg/domain"
	"context"
	"fmt"
)

// NewProtectedMemberRule returns the in-transaction rule keeping protected
// employees alive and inside the default-admin group. It is the store-level
// backstop behind the service guards: any transaction that deletes a
// protected employee or strips one from the default-admin group is blocked.
func NewProtectedMemberRule() domain.Rule {
	return protectedMemberRule{}
}

type protectedMemberRule struct{}

func (protectedMemberRule) Name() string { return "protected_member" }

func (protectedMemberRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}

	// A delete change whose Before is a protected employee is always a block.
	for _, change := range changes {
		if change.Entity != domain.EntityEmployee || change.Action != domain.ActionDelete {
			continue
		}
		if before, ok := change.Before.(domain.Employee); ok && before.Protected {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "protected_member",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("protected employee %s (%s) cannot be deleted", before.Name, before.ID),
				Entity:   domain.EntityEmployee,
				EntityID: before.ID,
			})
		}
	}

	var adminGroup *domain.Group
	for _, group := range view.ListGroups() {
		if group.DefaultAdmin {
			g := group
			adminGroup = &g
			break
		}
	}
	if adminGroup == nil {
		return res, nil
	}
	members := make(map[string]struct{}, len(adminGroup.MemberIDs))
	for _, id := range adminGroup.MemberIDs {
		members[id] = struct{}{}
	}
	for _, emp := range view.ListEmployees() {
		if !emp.Protected {
			continue
		}
		if _, ok := members[emp.ID]; !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "protected_member",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("protected employee %s (%s) must remain in group %s", emp.Name, emp.ID, adminGroup.ID),
				Entity:   domain.EntityGroup,
				EntityID: adminGroup.ID,
			})
		}
	}
	return res, nil
}
