package commands

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/contribhq/contribd/contrib"
	"github.com/contribhq/contribd/testutil"
)

func newTestRegistry(store *testutil.FakeStore) *Registry {
	return NewRegistry("!contrib", Deps{
		Store:     store,
		Limiter:   contrib.NewRateLimiter(time.Minute, 100),
		DupWindow: time.Hour,
	})
}

func dispatch(t *testing.T, r *Registry, store *testutil.FakeStore, username, message string) *testutil.ReplyRecorder {
	t.Helper()
	rec := &testutil.ReplyRecorder{}
	r.Dispatch(&Context{
		Ctx:      context.Background(),
		Channel:  "somechannel",
		Username: username,
		Message:  message,
		Client:   rec,
	})
	return rec
}

func TestDispatchRouting(t *testing.T) {
	lineTen := 10

	tests := []struct {
		name    string
		message string
		seed    []contrib.Contribution
		want    string
	}{
		{
			name:    "help default",
			message: "!contrib --help",
			want:    "For !contrib usage syntax, type: !contrib --usage. For options definitions, type: !contrib --options",
		},
		{
			name:    "help short flag",
			message: "!contrib -h",
			want:    "For !contrib usage syntax",
		},
		{
			name:    "usage case insensitive",
			message: "!CONTRIB --USAGE",
			want:    "📝 !CONTRIB USAGE:",
		},
		{
			name:    "options",
			message: "!contrib --options",
			want:    "-A=append, -0=prepend",
		},
		{
			name:    "list empty",
			message: "!contrib -ls",
			want:    "You don't have any recent contributions.",
		},
		{
			name:    "list with entries",
			message: "!contrib -ls",
			seed: []contrib.Contribution{
				{Username: "viewer", Filename: "main.js", LineNumber: &lineTen},
			},
			want: "Your recent contributions: #1 (main.js, line 10, pending)",
		},
		{
			name:    "grep no matches",
			message: "!contrib -grep index.js",
			want:    "No contributions found for index.js.",
		},
		{
			name:    "grep with matches",
			message: "!contrib -grep app.js",
			seed: []contrib.Contribution{
				{Username: "other", Filename: "app.js", LineNumber: &lineTen, Status: contrib.StatusAccepted},
			},
			want: "Recent contributions for app.js: #1 (other, line 10, accepted)",
		},
		{
			name:    "status pending",
			message: "!contrib -status 1",
			seed: []contrib.Contribution{
				{Username: "other", Filename: "main.js", LineNumber: &lineTen},
			},
			want: "Contribution #1 (main.js, line 10) is ⏳ PENDING",
		},
		{
			name:    "status not found",
			message: "!contrib -status 42",
			want:    "Contribution #42 not found.",
		},
		{
			name:    "create success",
			message: "!contrib main.js -l 10 console.log('hi')",
			want:    "Contribution saved! ID: 1",
		},
		{
			name:    "create bad filename",
			message: "!contrib ../secrets/.env.js console.log('x')",
			want:    "Invalid filename. Use a relative path like src/main.js.",
		},
		{
			name:    "line flag without code falls to create usage",
			message: "!contrib main.js -l",
			want:    "Invalid usage ❌. Use: !contrib filename -l line_number(optional) code or !contrib --help",
		},
		{
			name:    "incomplete append",
			message: "!contrib -A",
			want:    "Missing contribution ID and code. Use: !contrib -A contrib_id your_code_here",
		},
		{
			name:    "incomplete append with id",
			message: "!contrib -A 7",
			want:    "Missing code to append. Use: !contrib -A contrib_id your_code_here",
		},
		{
			name:    "incomplete delete",
			message: "!contrib -D",
			want:    "Missing contribution ID. Use: !contrib -D contrib_id",
		},
		{
			name:    "incomplete grep",
			message: "!contrib -grep",
			want:    "Missing filename. Use: !contrib -grep filename",
		},
		{
			name:    "incomplete bare line flag",
			message: "!contrib -l",
			want:    "Missing line number. Use: !contrib filename -l line_number code",
		},
		{
			name:    "unknown fallback",
			message: "!contrib whatisthis",
			want:    "Unknown !contrib command format. Type !contrib --help for usage info.",
		},
		{
			name:    "longer word sharing the prefix",
			message: "!contribute main.js code",
			want:    "Unknown !contrib command format.",
		},
		{
			name:    "status id overflow",
			message: "!contrib -status 99999999999999999999",
			want:    "Invalid contribution ID. Please use a positive number.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := testutil.NewFakeStore()
			for _, c := range tc.seed {
				store.Seed(c)
			}
			r := newTestRegistry(store)
			rec := dispatch(t, r, store, "viewer", tc.message)
			if rec.Count() != 1 {
				t.Fatalf("replies = %d, want 1 (last %q)", rec.Count(), rec.Last())
			}
			if !strings.Contains(rec.Last(), tc.want) {
				t.Errorf("reply = %q, want it to contain %q", rec.Last(), tc.want)
			}
			if !strings.HasPrefix(rec.Last(), "@viewer ") {
				t.Errorf("reply %q does not mention sender", rec.Last())
			}
		})
	}
}

func TestDispatchIgnoresOtherMessages(t *testing.T) {
	store := testutil.NewFakeStore()
	r := newTestRegistry(store)
	for _, msg := range []string{"hello chat", "!other command", "contrib main.js code", ""} {
		rec := dispatch(t, r, store, "viewer", msg)
		if rec.Count() != 0 {
			t.Errorf("message %q produced reply %q, want silence", msg, rec.Last())
		}
	}
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {
	store := testutil.NewFakeStore()
	// Nil limiter makes the create handler panic on a valid submission.
	r := NewRegistry("!contrib", Deps{Store: store})
	rec := dispatch(t, r, store, "viewer", "!contrib main.js console.log('hi')")
	if rec.Count() != 0 {
		t.Errorf("panicked dispatch replied %q, want silent drop", rec.Last())
	}
}

func TestRegistryTriggerDefaults(t *testing.T) {
	r := NewRegistry("  ", Deps{})
	if r.Trigger() != DefaultTrigger {
		t.Errorf("trigger = %q, want %q", r.Trigger(), DefaultTrigger)
	}
	r = NewRegistry("!Submit", Deps{})
	if r.Trigger() != "!submit" {
		t.Errorf("trigger = %q, want lowercase !submit", r.Trigger())
	}
}

func TestCustomTriggerRouting(t *testing.T) {
	store := testutil.NewFakeStore()
	r := NewRegistry("!submit", Deps{
		Store:   store,
		Limiter: contrib.NewRateLimiter(time.Minute, 100),
	})
	rec := dispatch(t, r, store, "viewer", "!submit -A")
	if !strings.Contains(rec.Last(), "Use: !submit -A contrib_id your_code_here") {
		t.Errorf("reply = %q, want usage with !submit trigger", rec.Last())
	}
	rec = dispatch(t, r, store, "viewer", "!contrib -A")
	if rec.Count() != 0 {
		t.Errorf("old trigger produced reply %q", rec.Last())
	}
}
