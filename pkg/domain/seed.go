package domain

import "time"

// Snapshot is the full serializable state of the board. Entities live in maps
// keyed by ID; the activity log is an ordered slice, newest first. The
// sequence counters back generated task and activity identifiers.
type Snapshot struct {
	SchemaVersion int                      `json:"schema_version"`
	Employees     map[string]Employee      `json:"employees"`
	Groups        map[string]Group         `json:"groups"`
	Statuses      map[string]Status        `json:"statuses"`
	Tasks         map[string]Task          `json:"tasks"`
	Activity      []ActivityEntry          `json:"activity"`
	Session       *Session                 `json:"session,omitempty"`
	Theme         Theme                    `json:"theme"`
	TaskSeq       int                      `json:"task_seq"`
	ActivitySeq   int                      `json:"activity_seq"`
}

// SnapshotSchemaVersion is the current serialized snapshot layout version.
const SnapshotSchemaVersion = 1

// ActivityLogLimit bounds the retained activity log.
const ActivityLogLimit = 30

// DefaultSnapshot returns the seed state used when no durable snapshot exists:
// two working employees plus the protected Support admin, the Admin and Nurses
// groups, the three default statuses, two demo tasks, and one seed activity
// entry. No session is active and the theme starts dark.
func DefaultSnapshot() Snapshot {
	now := time.Now().UTC()
	return Snapshot{
		SchemaVersion: SnapshotSchemaVersion,
		Employees: map[string]Employee{
			"E001": {
				ID:          "E001",
				Name:        "Sarah Johnson",
				Address:     "123 Main St, Valdosta, GA",
				Salary:      75000,
				DateOfHire:  "2022-04-01",
				DateOfBirth: "1990-06-15",
				Department:  "Administration",
				Role:        "Clinic Admin",
			},
			"E002": {
				ID:          "E002",
				Name:        "Michael Lee",
				Address:     "445 Oak Ave, Valdosta, GA",
				Salary:      65000,
				DateOfHire:  "2021-08-10",
				DateOfBirth: "1994-12-03",
				Department:  "Nursing",
				Role:        "RN",
			},
			"E003": {
				ID:          "E003",
				Name:        "Support",
				Address:     "Valdosta IT Office",
				Salary:      80000,
				DateOfHire:  "2020-01-10",
				DateOfBirth: "1992-03-10",
				Department:  "IT",
				Role:        "Support Admin",
				Protected:   true,
			},
		},
		Groups: map[string]Group{
			"G_ADMIN": {
				ID:           "G_ADMIN",
				Name:         "Admin",
				Description:  "System administrators with full access",
				DefaultAdmin: true,
				MemberIDs:    []string{"E001", "E003"},
			},
			"G_NURSES": {
				ID:          "G_NURSES",
				Name:        "Nurses",
				Description: "Nursing staff",
				MemberIDs:   []string{"E002"},
			},
		},
		Statuses: map[string]Status{
			"S_OPEN":        {ID: "S_OPEN", Name: "Open", Color: "#f97316", Order: 0, Default: true},
			"S_IN_PROGRESS": {ID: "S_IN_PROGRESS", Name: "In Progress", Color: "#3b82f6", Order: 1, Default: true},
			"S_COMPLETE":    {ID: "S_COMPLETE", Name: "Complete", Color: "#22c55e", Order: 2, Default: true},
		},
		Tasks: map[string]Task{
			"T001": {
				ID:          "T001",
				Title:       "Post-op follow-up call",
				Description: "Call patient #10231 for follow-up within 24 hours.",
				AssigneeID:  "E002",
				GroupID:     "G_NURSES",
				StatusID:    "S_IN_PROGRESS",
				DueDate:     now.Format("2006-01-02"),
				CreatedAt:   now,
			},
			"T002": {
				ID:          "T002",
				Title:       "Verify insurance forms",
				Description: "Confirm coverage with Azalea Health for new patients.",
				AssigneeID:  "E001",
				GroupID:     "G_ADMIN",
				StatusID:    "S_OPEN",
				CreatedAt:   now,
			},
		},
		Activity: []ActivityEntry{
			{ID: "A1", Message: "System initialized with demo data.", Timestamp: now},
		},
		Theme:       ThemeDark,
		TaskSeq:     2,
		ActivitySeq: 1,
	}
}
