package memory

import (
	"clinicboard/pkg/domain"
	"context"
	"fmt"
	"testing"
)

func TestStoreRunInTransactionAndSnapshots(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindEmployee("missing"); ok {
			t.Fatalf("expected missing employee lookup")
		}
		created, err := tx.CreateEmployee(domain.Employee{ID: "E100", Name: "Test"})
		if err != nil {
			return err
		}
		if created.ID != "E100" {
			t.Fatalf("unexpected id %q", created.ID)
		}
		view := tx.Snapshot()
		if len(view.ListEmployees()) != 1 {
			t.Fatalf("snapshot mismatch")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run transaction: %v", err)
	}
	if len(store.ListEmployees()) != 1 {
		t.Fatalf("expected persisted employee")
	}
	snapshot := store.ExportState()
	store.ImportState(Snapshot{})
	if len(store.ListEmployees()) != 0 {
		t.Fatalf("expected cleared state")
	}
	store.ImportState(snapshot)
	if len(store.ListEmployees()) != 1 {
		t.Fatalf("expected restored state")
	}
	if store.RulesEngine() == nil {
		t.Fatalf("expected rules engine")
	}
	if store.NowFunc() == nil {
		t.Fatalf("expected now func")
	}
}

type blockingRule struct{}

func (blockingRule) Name() string { return "block" }

func (blockingRule) Evaluate(ctx context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	return domain.Result{Violations: []domain.Violation{{Rule: "block", Severity: domain.SeverityBlock}}}, nil
}

func TestStoreRuleViolationDiscardsTransaction(t *testing.T) {
	store := NewStore(nil)
	store.RulesEngine().Register(blockingRule{})
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateEmployee(domain.Employee{ID: "E100", Name: "Fail"})
		return e
	})
	if err == nil {
		t.Fatalf("expected rule violation error")
	}
	if len(store.ListEmployees()) != 0 {
		t.Fatalf("blocked transaction must not commit")
	}
}

func TestCreateEmployeeDuplicate(t *testing.T) {
	store := NewSeededStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, e := tx.CreateEmployee(domain.Employee{ID: "E001", Name: "Dup"})
		return e
	})
	if err == nil {
		t.Fatalf("expected duplicate employee error")
	}
}

func TestDeleteEmployeeCascades(t *testing.T) {
	store := NewSeededStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.DeleteEmployee("E002")
	})
	if err != nil {
		t.Fatalf("delete employee: %v", err)
	}
	if _, ok := store.GetEmployee("E002"); ok {
		t.Fatalf("employee not removed")
	}
	for _, g := range store.ListGroups() {
		for _, m := range g.MemberIDs {
			if m == "E002" {
				t.Fatalf("group %s still references deleted employee", g.ID)
			}
		}
	}
	for _, task := range store.ListTasks() {
		if task.AssigneeID == "E002" {
			t.Fatalf("task %s still assigned to deleted employee", task.ID)
		}
	}
}

func TestNextTaskIDMonotonic(t *testing.T) {
	store := NewSeededStore(nil)
	var first, second string
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		t1, err := tx.CreateTask(domain.Task{Title: "one"})
		if err != nil {
			return err
		}
		first = t1.ID
		return tx.DeleteTask(t1.ID)
	})
	if err != nil {
		t.Fatalf("first transaction: %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		t2, err := tx.CreateTask(domain.Task{Title: "two"})
		if err != nil {
			return err
		}
		second = t2.ID
		return nil
	})
	if err != nil {
		t.Fatalf("second transaction: %v", err)
	}
	if first != "T003" || second != "T004" {
		t.Fatalf("counter must survive deletion: got %s then %s", first, second)
	}
}

func TestAppendActivityBounded(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		for i := 0; i < domain.ActivityLogLimit+10; i++ {
			tx.AppendActivity(fmt.Sprintf("entry %d", i))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("append activity: %v", err)
	}
	activity := store.ListActivity()
	if len(activity) != domain.ActivityLogLimit {
		t.Fatalf("activity length = %d, want %d", len(activity), domain.ActivityLogLimit)
	}
	if activity[0].Message != fmt.Sprintf("entry %d", domain.ActivityLogLimit+9) {
		t.Fatalf("log not newest-first: %q", activity[0].Message)
	}
}

func TestSessionAndTheme(t *testing.T) {
	store := NewSeededStore(nil)
	if _, ok := store.CurrentSession(); ok {
		t.Fatalf("seed should start logged out")
	}
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		tx.SetSession(domain.Session{EmployeeID: "E001", Admin: true})
		tx.SetTheme(domain.ThemeLight)
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	sess, ok := store.CurrentSession()
	if !ok || sess.EmployeeID != "E001" || !sess.Admin {
		t.Fatalf("session = %+v ok=%v", sess, ok)
	}
	if store.CurrentTheme() != domain.ThemeLight {
		t.Fatalf("theme = %q", store.CurrentTheme())
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		tx.ClearSession()
		return nil
	})
	if err != nil {
		t.Fatalf("clear session: %v", err)
	}
	if _, ok := store.CurrentSession(); ok {
		t.Fatalf("session should be cleared")
	}
}

func TestFailedTransactionDiscarded(t *testing.T) {
	store := NewSeededStore(nil)
	wantErr := fmt.Errorf("boom")
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if err := tx.DeleteEmployee("E002"); err != nil {
			return err
		}
		return wantErr
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := store.GetEmployee("E002"); !ok {
		t.Fatalf("failed transaction must not commit")
	}
}

func TestMigrateSnapshotRepairs(t *testing.T) {
	snap := domain.Snapshot{
		Groups: map[string]domain.Group{
			"G1": {ID: "G1", MemberIDs: []string{"E404", "E404"}},
		},
		Tasks: map[string]domain.Task{
			"T007": {ID: "T007", Title: "orphan"},
		},
		Session: &domain.Session{EmployeeID: "E404"},
		Theme:   domain.Theme("sepia"),
	}
	migrated := migrateSnapshot(snap)
	if len(migrated.Groups["G1"].MemberIDs) != 0 {
		t.Fatalf("dangling members not filtered: %+v", migrated.Groups["G1"])
	}
	if migrated.Session != nil {
		t.Fatalf("session with unknown employee must be cleared")
	}
	if migrated.Theme != domain.ThemeDark {
		t.Fatalf("invalid theme must reset, got %q", migrated.Theme)
	}
	if migrated.TaskSeq != 7 {
		t.Fatalf("task counter must catch up to existing ids, got %d", migrated.TaskSeq)
	}
	if migrated.Employees == nil || migrated.Statuses == nil {
		t.Fatalf("nil maps must be initialized")
	}
}
