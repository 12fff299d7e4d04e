package contrib

import (
	"context"
	"errors"
	"time"
)

// Status is the review lifecycle state of a contribution. Transitions are
// pending -> accepted or pending -> rejected, driven by the review dashboard;
// the chat pipeline itself never changes status.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Contribution is a viewer-submitted code change awaiting or having received
// review. Code is mutable only while the contribution is pending, and only
// by the original submitter.
type Contribution struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Filename   string    `json:"filename"`
	LineNumber *int      `json:"line_number"`
	Code       string    `json:"code"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Settings is the process-wide configuration row, lazily created with
// defaults on first read and updated only through the dashboard API.
type Settings struct {
	WelcomeMessage string `json:"welcomeMessage"`
	ShowRejected   bool   `json:"showRejected"`
	UseHuhMode     bool   `json:"useHuhMode"`
}

// DefaultSettings returns the values written on first read.
func DefaultSettings() Settings {
	return Settings{
		WelcomeMessage: "Bot connected and authenticated successfully!",
		ShowRejected:   true,
	}
}

// ConflictQuery describes a prospective submission for conflict
// classification against existing contributions of the same file.
type ConflictQuery struct {
	Filename   string
	LineNumber *int
	CodeHash   string
	Username   string
	// DupWindow bounds the personal-duplicate lookback; zero means
	// unbounded.
	DupWindow time.Duration
}

// ConflictReport classifies a submission. The booleans are independent; the
// caller applies priority order personal > accepted > line when replying.
type ConflictReport struct {
	PersonalDuplicate bool
	AcceptedDuplicate bool
	LineConflict      bool
}

// ErrNotPending is returned by mutating store operations when the targeted
// contribution no longer exists or has left the pending state. It makes the
// pending-only invariant race-free: the store checks status in the same
// statement as the mutation.
var ErrNotPending = errors.New("contribution is not pending")

// Store is the narrow persistence contract the pipeline depends on. All
// methods are fallible remote calls with no transactional guarantee beyond
// single-statement atomicity.
type Store interface {
	// CreateContribution persists a new pending contribution and returns
	// its assigned id.
	CreateContribution(ctx context.Context, username, filename string, lineNumber *int, code, codeHash string) (int64, error)
	// GetContribution returns nil, nil when no contribution has the id.
	GetContribution(ctx context.Context, id int64) (*Contribution, error)
	GetUserContributions(ctx context.Context, username string, limit int) ([]Contribution, error)
	GetFileContributions(ctx context.Context, filename string, limit int) ([]Contribution, error)
	// ListContributions returns contributions newest-first, optionally
	// filtered by status ("" means all).
	ListContributions(ctx context.Context, status Status, limit, offset int) ([]Contribution, error)
	// ContributionsSince returns contributions with an id greater than
	// sinceID, oldest-first, for incremental dashboard streaming.
	ContributionsSince(ctx context.Context, sinceID int64, limit int) ([]Contribution, error)
	// UpdateCode overwrites the code of a pending contribution. Returns
	// ErrNotPending when the row is absent or no longer pending.
	UpdateCode(ctx context.Context, id int64, code, codeHash string) error
	// DeleteContribution removes a pending contribution. Returns
	// ErrNotPending when the row is absent or no longer pending.
	DeleteContribution(ctx context.Context, id int64) error
	// UpdateStatus transitions a pending contribution to accepted or
	// rejected. Returns ErrNotPending when the row is absent or already
	// reviewed.
	UpdateStatus(ctx context.Context, id int64, status Status) error
	CheckConflicts(ctx context.Context, q ConflictQuery) (ConflictReport, error)
	GetSettings(ctx context.Context) (Settings, error)
	UpdateSettings(ctx context.Context, s Settings) error
}
