package core

import (
	"clinicboard/internal/infra/persistence/memory"
	"clinicboard/pkg/domain"
	"context"
	"errors"
	"testing"
)

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	return memory.NewSeededStore(NewDefaultRulesEngine())
}

func TestProtectedMemberRuleBlocksDeletion(t *testing.T) {
	store := seededStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.DeleteEmployee("E003")
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if _, ok := store.GetEmployee("E003"); !ok {
		t.Fatalf("protected employee deleted despite block")
	}
}

func TestProtectedMemberRuleBlocksGroupRemoval(t *testing.T) {
	store := seededStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateGroup("G_ADMIN", func(g *domain.Group) error {
			g.MemberIDs = []string{"E001"}
			return nil
		})
		return err
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	group, _ := store.GetGroup("G_ADMIN")
	if len(group.MemberIDs) != 2 {
		t.Fatalf("membership mutated despite block: %v", group.MemberIDs)
	}
}

func TestDefaultStatusRuleBlocksDeletion(t *testing.T) {
	store := seededStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.DeleteStatus("S_COMPLETE")
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
}

func TestAdminGroupRuleBlocksSecondDefaultAdmin(t *testing.T) {
	store := seededStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateGroup(domain.Group{ID: "G_SHADOW", Name: "Shadow", DefaultAdmin: true})
		return err
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if _, ok := store.GetGroup("G_SHADOW"); ok {
		t.Fatalf("second default-admin group committed")
	}
}

func TestAdminGroupRuleWarnsWhenFlagMissing(t *testing.T) {
	store := seededStore(t)
	res, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateGroup("G_ADMIN", func(g *domain.Group) error {
			g.DefaultAdmin = false
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("warn severity must not block: %v", err)
	}
	found := false
	for _, v := range res.Violations {
		if v.Rule == "admin_group" && v.Severity == domain.SeverityWarn {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected admin_group warning, got %+v", res.Violations)
	}
}

func TestStatusReferenceRuleWarnsOnDanglingStatus(t *testing.T) {
	store := seededStore(t)
	res, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateTask(domain.Task{Title: "Orphaned", StatusID: "S_GONE"})
		return err
	})
	if err != nil {
		t.Fatalf("dangling status must warn, not block: %v", err)
	}
	found := false
	for _, v := range res.Violations {
		if v.Rule == "status_reference" && v.Severity == domain.SeverityWarn {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected status_reference warning, got %+v", res.Violations)
	}
}
