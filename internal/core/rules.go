package core

import "clinicboard/pkg/domain"

// NewDefaultRulesEngine returns the rules engine enforcing the board
// invariants: protected admins stay, default statuses stay, the default-admin
// group is unique, and task status references are watched.
func NewDefaultRulesEngine() *RulesEngine {
	return domain.NewRulesEngine(
		NewProtectedMemberRule(),
		NewDefaultStatusRule(),
		NewAdminGroupRule(),
		NewStatusReferenceRule(),
	)
}
