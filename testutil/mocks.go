// Package testutil provides in-memory fakes and Postgres helpers shared by
// package tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/contribhq/contribd/contrib"
)

// FakeStore is an in-memory contrib.Store with switchable failures. It also
// carries an oauth token map so it can stand in for the token store.
type FakeStore struct {
	mu     sync.Mutex
	nextID int64

	Contributions map[int64]*contrib.Contribution
	// CodeHashes mirrors the code_hash column, keyed by contribution id.
	CodeHashes map[int64]string
	Settings   contrib.Settings
	Report     contrib.ConflictReport

	// Err, when set, is returned by every store method.
	Err error

	Tokens map[string]FakeToken
}

// FakeToken is one stored oauth token row.
type FakeToken struct {
	Access  string
	Refresh string
	Expiry  time.Time
	Scope   string
}

// NewFakeStore returns an empty store with default settings.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		Contributions: make(map[int64]*contrib.Contribution),
		CodeHashes:    make(map[int64]string),
		Settings:      contrib.DefaultSettings(),
		Tokens:        make(map[string]FakeToken),
	}
}

var _ contrib.Store = (*FakeStore)(nil)

// Seed inserts a contribution directly and returns its id.
func (f *FakeStore) Seed(c contrib.Contribution) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	if c.Status == "" {
		c.Status = contrib.StatusPending
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	f.Contributions[c.ID] = &c
	return c.ID
}

func (f *FakeStore) CreateContribution(ctx context.Context, username, filename string, lineNumber *int, code, codeHash string) (int64, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	id := f.Seed(contrib.Contribution{
		Username:   username,
		Filename:   filename,
		LineNumber: lineNumber,
		Code:       code,
	})
	f.mu.Lock()
	f.CodeHashes[id] = codeHash
	f.mu.Unlock()
	return id, nil
}

func (f *FakeStore) GetContribution(ctx context.Context, id int64) (*contrib.Contribution, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.Contributions[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *FakeStore) sorted(filter func(*contrib.Contribution) bool) []contrib.Contribution {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []contrib.Contribution
	for _, c := range f.Contributions {
		if filter(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func limitSlice(list []contrib.Contribution, limit int) []contrib.Contribution {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}

func (f *FakeStore) GetUserContributions(ctx context.Context, username string, limit int) ([]contrib.Contribution, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return limitSlice(f.sorted(func(c *contrib.Contribution) bool { return c.Username == username }), limit), nil
}

func (f *FakeStore) GetFileContributions(ctx context.Context, filename string, limit int) ([]contrib.Contribution, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return limitSlice(f.sorted(func(c *contrib.Contribution) bool { return c.Filename == filename }), limit), nil
}

func (f *FakeStore) ListContributions(ctx context.Context, status contrib.Status, limit, offset int) ([]contrib.Contribution, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	list := f.sorted(func(c *contrib.Contribution) bool { return status == "" || c.Status == status })
	if offset >= len(list) {
		return nil, nil
	}
	return limitSlice(list[offset:], limit), nil
}

func (f *FakeStore) ContributionsSince(ctx context.Context, sinceID int64, limit int) ([]contrib.Contribution, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	list := f.sorted(func(c *contrib.Contribution) bool { return c.ID > sinceID })
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return limitSlice(list, limit), nil
}

func (f *FakeStore) UpdateCode(ctx context.Context, id int64, code, codeHash string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.Contributions[id]
	if !ok || c.Status != contrib.StatusPending {
		return contrib.ErrNotPending
	}
	c.Code = code
	f.CodeHashes[id] = codeHash
	return nil
}

func (f *FakeStore) DeleteContribution(ctx context.Context, id int64) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.Contributions[id]
	if !ok || c.Status != contrib.StatusPending {
		return contrib.ErrNotPending
	}
	delete(f.Contributions, id)
	delete(f.CodeHashes, id)
	return nil
}

func (f *FakeStore) UpdateStatus(ctx context.Context, id int64, status contrib.Status) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.Contributions[id]
	if !ok || c.Status != contrib.StatusPending {
		return contrib.ErrNotPending
	}
	c.Status = status
	return nil
}

func (f *FakeStore) CheckConflicts(ctx context.Context, q contrib.ConflictQuery) (contrib.ConflictReport, error) {
	if f.Err != nil {
		return contrib.ConflictReport{}, f.Err
	}
	return f.Report, nil
}

func (f *FakeStore) GetSettings(ctx context.Context) (contrib.Settings, error) {
	if f.Err != nil {
		return contrib.Settings{}, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Settings, nil
}

func (f *FakeStore) UpdateSettings(ctx context.Context, s contrib.Settings) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Settings = s
	return nil
}

func (f *FakeStore) GetOAuthToken(ctx context.Context, provider string) (string, string, time.Time, string, error) {
	if f.Err != nil {
		return "", "", time.Time{}, "", f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.Tokens[provider]
	return t.Access, t.Refresh, t.Expiry, t.Scope, nil
}

func (f *FakeStore) UpsertOAuthToken(ctx context.Context, provider, access, refresh string, expiry time.Time, scope string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tokens[provider] = FakeToken{Access: access, Refresh: refresh, Expiry: expiry, Scope: scope}
	return nil
}

// ReplyRecorder captures chat replies for assertions.
type ReplyRecorder struct {
	mu       sync.Mutex
	Messages []string
	Channels []string
}

func (r *ReplyRecorder) Say(channel, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Channels = append(r.Channels, channel)
	r.Messages = append(r.Messages, text)
}

// Last returns the most recent reply, or "" when none was sent.
func (r *ReplyRecorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1]
}

// Count returns how many replies were sent.
func (r *ReplyRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Messages)
}
