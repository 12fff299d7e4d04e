package commands

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/contribhq/contribd/contrib"
	"github.com/contribhq/contribd/testutil"
)

func TestAppendConcatenates(t *testing.T) {
	store := testutil.NewFakeStore()
	id := store.Seed(contrib.Contribution{Username: "viewer", Filename: "main.js", Code: "let a = 1;"})
	r := newTestRegistry(store)

	rec := dispatch(t, r, store, "viewer", "!contrib -A 1 \\nlet b = 2;")
	if !strings.Contains(rec.Last(), "Contribution #1 has been updated with your additional code.") {
		t.Fatalf("reply = %q", rec.Last())
	}
	got := store.Contributions[id].Code
	if got != "let a = 1;\nlet b = 2;" {
		t.Errorf("code = %q, want escape sequence expanded and text appended", got)
	}
}

func TestPrependConcatenates(t *testing.T) {
	store := testutil.NewFakeStore()
	id := store.Seed(contrib.Contribution{Username: "viewer", Filename: "main.js", Code: "let b = 2;"})
	r := newTestRegistry(store)

	rec := dispatch(t, r, store, "viewer", "!contrib -0 1 let a = 1;\\n")
	if !strings.Contains(rec.Last(), "Contribution #1 has been updated with your prepended code.") {
		t.Fatalf("reply = %q", rec.Last())
	}
	if got := store.Contributions[id].Code; got != "let a = 1;\nlet b = 2;" {
		t.Errorf("code = %q, want text prepended", got)
	}
}

func TestReplaceOverwritesAndFormats(t *testing.T) {
	store := testutil.NewFakeStore()
	id := store.Seed(contrib.Contribution{Username: "viewer", Filename: "main.js", Code: "old"})
	r := newTestRegistry(store)

	rec := dispatch(t, r, store, "viewer", "!contrib -C 1   if (x) {\\n  y();\\n}")
	if !strings.Contains(rec.Last(), "Contribution #1 has been replaced with your new code.") {
		t.Fatalf("reply = %q", rec.Last())
	}
	if got := store.Contributions[id].Code; got != "if (x) {\n  y();\n}" {
		t.Errorf("code = %q, want replacement with indentation normalized", got)
	}
}

func TestDeleteRemoves(t *testing.T) {
	store := testutil.NewFakeStore()
	id := store.Seed(contrib.Contribution{Username: "viewer", Filename: "main.js", Code: "x"})
	r := newTestRegistry(store)

	rec := dispatch(t, r, store, "viewer", "!contrib -D 1")
	if !strings.Contains(rec.Last(), "Contribution #1 has been deleted.") {
		t.Fatalf("reply = %q", rec.Last())
	}
	if _, ok := store.Contributions[id]; ok {
		t.Error("contribution still present after delete")
	}
}

func TestModificationGuards(t *testing.T) {
	tests := []struct {
		name    string
		seed    contrib.Contribution
		message string
		want    string
	}{
		{
			name:    "append not found",
			message: "!contrib -A 5 code",
			want:    "Contribution #5 not found.",
		},
		{
			name:    "append someone elses",
			seed:    contrib.Contribution{Username: "other", Filename: "main.js", Code: "x"},
			message: "!contrib -A 1 code",
			want:    "You can only append to your own contributions.",
		},
		{
			name:    "prepend someone elses",
			seed:    contrib.Contribution{Username: "other", Filename: "main.js", Code: "x"},
			message: "!contrib -0 1 code",
			want:    "You can only prepend to your own contributions.",
		},
		{
			name:    "replace accepted",
			seed:    contrib.Contribution{Username: "viewer", Filename: "main.js", Code: "x", Status: contrib.StatusAccepted},
			message: "!contrib -C 1 code",
			want:    "You can only replace pending contributions.",
		},
		{
			name:    "delete rejected",
			seed:    contrib.Contribution{Username: "viewer", Filename: "main.js", Code: "x", Status: contrib.StatusRejected},
			message: "!contrib -D 1",
			want:    "You can only delete pending contributions.",
		},
		{
			name:    "ownership checked before status",
			seed:    contrib.Contribution{Username: "other", Filename: "main.js", Code: "x", Status: contrib.StatusAccepted},
			message: "!contrib -D 1",
			want:    "You can only delete your own contributions.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := testutil.NewFakeStore()
			if tc.seed.Username != "" {
				store.Seed(tc.seed)
			}
			r := newTestRegistry(store)
			rec := dispatch(t, r, store, "viewer", tc.message)
			if !strings.Contains(rec.Last(), tc.want) {
				t.Errorf("reply = %q, want it to contain %q", rec.Last(), tc.want)
			}
		})
	}
}

func TestCreateConflictReplies(t *testing.T) {
	tests := []struct {
		name   string
		report contrib.ConflictReport
		want   string
	}{
		{
			name:   "personal duplicate",
			report: contrib.ConflictReport{PersonalDuplicate: true},
			want:   "You've already submitted this code. Please try something different.",
		},
		{
			name:   "accepted duplicate",
			report: contrib.ConflictReport{AcceptedDuplicate: true},
			want:   "This code has already been accepted. Please try something different.",
		},
		{
			name:   "line conflict",
			report: contrib.ConflictReport{LineConflict: true},
			want:   "Another user has a pending contribution for that line.",
		},
		{
			name:   "personal wins over accepted and line",
			report: contrib.ConflictReport{PersonalDuplicate: true, AcceptedDuplicate: true, LineConflict: true},
			want:   "You've already submitted this code.",
		},
		{
			name:   "accepted wins over line",
			report: contrib.ConflictReport{AcceptedDuplicate: true, LineConflict: true},
			want:   "This code has already been accepted.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := testutil.NewFakeStore()
			store.Report = tc.report
			r := newTestRegistry(store)
			rec := dispatch(t, r, store, "viewer", "!contrib main.js -l 3 let x = 1;")
			if !strings.Contains(rec.Last(), tc.want) {
				t.Errorf("reply = %q, want it to contain %q", rec.Last(), tc.want)
			}
			if len(store.Contributions) != 0 {
				t.Error("conflicting submission was persisted")
			}
		})
	}
}

func TestCreateAndReplaceShareRateLimit(t *testing.T) {
	store := testutil.NewFakeStore()
	r := NewRegistry("!contrib", Deps{
		Store:   store,
		Limiter: contrib.NewRateLimiter(time.Minute, 2),
	})

	rec := dispatch(t, r, store, "viewer", "!contrib main.js let a = 1;")
	if !strings.Contains(rec.Last(), "Contribution saved! ID: 1") {
		t.Fatalf("first submission reply = %q", rec.Last())
	}
	rec = dispatch(t, r, store, "viewer", "!contrib -C 1 let a = 2;")
	if !strings.Contains(rec.Last(), "has been replaced") {
		t.Fatalf("replace reply = %q", rec.Last())
	}
	rec = dispatch(t, r, store, "viewer", "!contrib main.js let b = 3;")
	if !strings.Contains(rec.Last(), "You're contributing too quickly.") {
		t.Errorf("third submission reply = %q, want rate limit", rec.Last())
	}

	// Another user is unaffected.
	rec = dispatch(t, r, store, "friend", "!contrib main.js let c = 4;")
	if !strings.Contains(rec.Last(), "Contribution saved!") {
		t.Errorf("other user reply = %q", rec.Last())
	}
}

func TestIncompleteHuhMode(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Settings.UseHuhMode = true
	r := newTestRegistry(store)

	rec := dispatch(t, r, store, "viewer", "!contrib -grep")
	if !strings.Contains(rec.Last(), "over-grepping") {
		t.Errorf("reply = %q, want the playful wording", rec.Last())
	}
}

func TestIncompleteFallsBackToSeriousOnSettingsError(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Settings.UseHuhMode = true
	store.Err = errors.New("connection refused")
	r := newTestRegistry(store)

	// A failing settings read must not surface the error to chat.
	rec := dispatch(t, r, store, "viewer", "!contrib -grep")
	if !strings.Contains(rec.Last(), "Missing filename. Use: !contrib -grep filename") {
		t.Errorf("reply = %q, want serious wording", rec.Last())
	}
}
