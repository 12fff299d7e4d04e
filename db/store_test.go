package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/contribhq/contribd/contrib"
	"github.com/contribhq/contribd/db"
	"github.com/contribhq/contribd/testutil"
)

func setupStore(t *testing.T) (*db.Store, *sql.DB) {
	t.Helper()
	database := testutil.SetupTestDB(t)
	if _, err := database.Exec(`TRUNCATE contributions RESTART IDENTITY`); err != nil {
		t.Fatalf("truncating contributions: %v", err)
	}
	return db.NewStore(database), database
}

func TestCreateAndGetContribution(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	line := 42
	id, err := store.CreateContribution(ctx, "viewer", "src/main.js", &line, "console.log('hi')", "console.log('hi')")
	if err != nil {
		t.Fatalf("CreateContribution() error = %v", err)
	}

	got, err := store.GetContribution(ctx, id)
	if err != nil {
		t.Fatalf("GetContribution() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetContribution() returned nil for existing id")
	}
	if got.Username != "viewer" || got.Filename != "src/main.js" || got.Code != "console.log('hi')" {
		t.Errorf("got %+v", got)
	}
	if got.LineNumber == nil || *got.LineNumber != 42 {
		t.Errorf("LineNumber = %v, want 42", got.LineNumber)
	}
	if got.Status != contrib.StatusPending {
		t.Errorf("Status = %q, want pending", got.Status)
	}

	// Missing ids come back nil without an error.
	missing, err := store.GetContribution(ctx, id+1000)
	if err != nil || missing != nil {
		t.Errorf("GetContribution(missing) = %v, %v", missing, err)
	}
}

func TestNilLineNumberRoundTrip(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	id, err := store.CreateContribution(ctx, "viewer", "src/main.js", nil, "x", "x")
	if err != nil {
		t.Fatalf("CreateContribution() error = %v", err)
	}
	got, err := store.GetContribution(ctx, id)
	if err != nil {
		t.Fatalf("GetContribution() error = %v", err)
	}
	if got.LineNumber != nil {
		t.Errorf("LineNumber = %v, want nil", got.LineNumber)
	}
}

func TestGetUserContributionsOrderAndLimit(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		if _, err := store.CreateContribution(ctx, "viewer", "a.js", nil, "x", "x"); err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}
	if _, err := store.CreateContribution(ctx, "other", "a.js", nil, "x", "x"); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	list, err := store.GetUserContributions(ctx, "viewer", 5)
	if err != nil {
		t.Fatalf("GetUserContributions() error = %v", err)
	}
	if len(list) != 5 {
		t.Fatalf("len = %d, want 5", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].ID > list[i-1].ID {
			t.Errorf("list not newest-first: %d before %d", list[i-1].ID, list[i].ID)
		}
	}
	for _, c := range list {
		if c.Username != "viewer" {
			t.Errorf("foreign contribution %d in user listing", c.ID)
		}
	}
}

func TestStatusTransitions(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	id, err := store.CreateContribution(ctx, "viewer", "a.js", nil, "x", "x")
	if err != nil {
		t.Fatalf("seeding: %v", err)
	}

	if err := store.UpdateStatus(ctx, id, contrib.StatusAccepted); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	got, _ := store.GetContribution(ctx, id)
	if got.Status != contrib.StatusAccepted {
		t.Errorf("Status = %q, want accepted", got.Status)
	}

	// A second decision loses to the first.
	err = store.UpdateStatus(ctx, id, contrib.StatusRejected)
	if !errors.Is(err, contrib.ErrNotPending) {
		t.Errorf("second UpdateStatus() error = %v, want ErrNotPending", err)
	}

	if err := store.UpdateStatus(ctx, id, contrib.StatusPending); err == nil {
		t.Error("UpdateStatus() back to pending should fail")
	}
	if err := store.UpdateStatus(ctx, id, contrib.Status("banana")); err == nil {
		t.Error("UpdateStatus() with invalid status should fail")
	}
}

func TestUpdateCodeAndDeleteRequirePending(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	id, err := store.CreateContribution(ctx, "viewer", "a.js", nil, "old", "old")
	if err != nil {
		t.Fatalf("seeding: %v", err)
	}
	if err := store.UpdateCode(ctx, id, "new", "new"); err != nil {
		t.Fatalf("UpdateCode() error = %v", err)
	}
	got, _ := store.GetContribution(ctx, id)
	if got.Code != "new" {
		t.Errorf("Code = %q, want new", got.Code)
	}

	if err := store.UpdateStatus(ctx, id, contrib.StatusAccepted); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if err := store.UpdateCode(ctx, id, "sneaky", "sneaky"); !errors.Is(err, contrib.ErrNotPending) {
		t.Errorf("UpdateCode() after acceptance error = %v, want ErrNotPending", err)
	}
	if err := store.DeleteContribution(ctx, id); !errors.Is(err, contrib.ErrNotPending) {
		t.Errorf("DeleteContribution() after acceptance error = %v, want ErrNotPending", err)
	}

	pendingID, _ := store.CreateContribution(ctx, "viewer", "a.js", nil, "x", "x")
	if err := store.DeleteContribution(ctx, pendingID); err != nil {
		t.Fatalf("DeleteContribution() error = %v", err)
	}
	if got, _ := store.GetContribution(ctx, pendingID); got != nil {
		t.Error("contribution still present after delete")
	}
}

func TestCheckConflicts(t *testing.T) {
	store, database := setupStore(t)
	ctx := context.Background()

	line := 10
	if _, err := store.CreateContribution(ctx, "viewer", "a.js", &line, "code", "hash-1"); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	t.Run("personal duplicate inside window", func(t *testing.T) {
		report, err := store.CheckConflicts(ctx, contrib.ConflictQuery{
			Filename: "a.js", CodeHash: "hash-1", Username: "viewer", DupWindow: time.Hour,
		})
		if err != nil {
			t.Fatalf("CheckConflicts() error = %v", err)
		}
		if !report.PersonalDuplicate {
			t.Error("PersonalDuplicate = false, want true")
		}
	})

	t.Run("same hash from another user is no personal duplicate", func(t *testing.T) {
		report, err := store.CheckConflicts(ctx, contrib.ConflictQuery{
			Filename: "a.js", CodeHash: "hash-1", Username: "other", DupWindow: time.Hour,
		})
		if err != nil {
			t.Fatalf("CheckConflicts() error = %v", err)
		}
		if report.PersonalDuplicate {
			t.Error("PersonalDuplicate = true for a different user")
		}
	})

	t.Run("personal duplicate outside window", func(t *testing.T) {
		if _, err := database.Exec(`UPDATE contributions SET created_at = NOW() - INTERVAL '2 hours' WHERE username = 'viewer'`); err != nil {
			t.Fatalf("aging row: %v", err)
		}
		report, err := store.CheckConflicts(ctx, contrib.ConflictQuery{
			Filename: "a.js", CodeHash: "hash-1", Username: "viewer", DupWindow: time.Hour,
		})
		if err != nil {
			t.Fatalf("CheckConflicts() error = %v", err)
		}
		if report.PersonalDuplicate {
			t.Error("PersonalDuplicate = true for a submission older than the window")
		}

		// Zero window means the duplicate check never expires.
		report, err = store.CheckConflicts(ctx, contrib.ConflictQuery{
			Filename: "a.js", CodeHash: "hash-1", Username: "viewer",
		})
		if err != nil {
			t.Fatalf("CheckConflicts() error = %v", err)
		}
		if !report.PersonalDuplicate {
			t.Error("PersonalDuplicate = false with unbounded window")
		}
	})

	t.Run("line conflict with another user's pending", func(t *testing.T) {
		report, err := store.CheckConflicts(ctx, contrib.ConflictQuery{
			Filename: "a.js", LineNumber: &line, CodeHash: "hash-2", Username: "other", DupWindow: time.Hour,
		})
		if err != nil {
			t.Fatalf("CheckConflicts() error = %v", err)
		}
		if !report.LineConflict {
			t.Error("LineConflict = false, want true")
		}

		// The owner of the pending line may keep working on it.
		report, err = store.CheckConflicts(ctx, contrib.ConflictQuery{
			Filename: "a.js", LineNumber: &line, CodeHash: "hash-2", Username: "viewer", DupWindow: time.Hour,
		})
		if err != nil {
			t.Fatalf("CheckConflicts() error = %v", err)
		}
		if report.LineConflict {
			t.Error("LineConflict = true against the user's own pending line")
		}

		// Submissions without a line never collide on line.
		report, err = store.CheckConflicts(ctx, contrib.ConflictQuery{
			Filename: "a.js", CodeHash: "hash-2", Username: "other", DupWindow: time.Hour,
		})
		if err != nil {
			t.Fatalf("CheckConflicts() error = %v", err)
		}
		if report.LineConflict {
			t.Error("LineConflict = true for a line-less submission")
		}
	})

	t.Run("accepted duplicate", func(t *testing.T) {
		id, err := store.CreateContribution(ctx, "other", "b.js", nil, "code", "hash-3")
		if err != nil {
			t.Fatalf("seeding: %v", err)
		}
		if err := store.UpdateStatus(ctx, id, contrib.StatusAccepted); err != nil {
			t.Fatalf("accepting: %v", err)
		}
		report, err := store.CheckConflicts(ctx, contrib.ConflictQuery{
			Filename: "b.js", CodeHash: "hash-3", Username: "third", DupWindow: time.Hour,
		})
		if err != nil {
			t.Fatalf("CheckConflicts() error = %v", err)
		}
		if !report.AcceptedDuplicate {
			t.Error("AcceptedDuplicate = false, want true")
		}
	})
}

func TestContributionsSince(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := store.CreateContribution(ctx, "viewer", "a.js", nil, "x", "x")
		if err != nil {
			t.Fatalf("seeding: %v", err)
		}
		ids = append(ids, id)
	}

	list, err := store.ContributionsSince(ctx, ids[0], 10)
	if err != nil {
		t.Fatalf("ContributionsSince() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].ID != ids[1] || list[1].ID != ids[2] {
		t.Errorf("order = %d, %d, want ascending after %d", list[0].ID, list[1].ID, ids[0])
	}
}

func TestSettingsLazyDefaultAndUpdate(t *testing.T) {
	store, database := setupStore(t)
	ctx := context.Background()
	if _, err := database.Exec(`DELETE FROM settings`); err != nil {
		t.Fatalf("clearing settings: %v", err)
	}

	got, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if got != contrib.DefaultSettings() {
		t.Errorf("settings = %+v, want defaults on first read", got)
	}

	want := contrib.Settings{WelcomeMessage: "yo", ShowRejected: false, UseHuhMode: true}
	if err := store.UpdateSettings(ctx, want); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	got, err = store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if got != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}
}

func TestCountPending(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	id, _ := store.CreateContribution(ctx, "viewer", "a.js", nil, "x", "x")
	_, _ = store.CreateContribution(ctx, "viewer", "b.js", nil, "y", "y")
	if err := store.UpdateStatus(ctx, id, contrib.StatusRejected); err != nil {
		t.Fatalf("rejecting: %v", err)
	}

	n, err := store.CountPending(ctx)
	if err != nil {
		t.Fatalf("CountPending() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountPending() = %d, want 1", n)
	}
}
