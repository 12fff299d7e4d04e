// Package server exposes the HTTP API handlers.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/contribhq/contribd/contrib"
	"github.com/contribhq/contribd/editor"
	"github.com/contribhq/contribd/oauth"
)

const (
	// Maximum number of OAuth states to keep in memory
	maxOAuthStates = 10000
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	ctx      context.Context
	db       *sql.DB
	store    contrib.Store
	tokens   oauth.TokenStore
	notifier *editor.Notifier

	stateStore map[string]time.Time
	stateMu    sync.RWMutex

	startedAt time.Time
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(ctx context.Context, db *sql.DB, store contrib.Store, tokens oauth.TokenStore, notifier *editor.Notifier) *Handlers {
	return &Handlers{
		ctx:        ctx,
		db:         db,
		store:      store,
		tokens:     tokens,
		notifier:   notifier,
		stateStore: make(map[string]time.Time),
		startedAt:  time.Now(),
	}
}

// cleanExpiredStates removes expired OAuth states from the store.
// Call with stateMu locked.
func (h *Handlers) cleanExpiredStates() {
	now := time.Now()
	for state, expiry := range h.stateStore {
		if now.After(expiry) {
			delete(h.stateStore, state)
		}
	}
}

// addOAuthState adds a new OAuth state to the store with cleanup if needed.
func (h *Handlers) addOAuthState(state string, expiry time.Time) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	if len(h.stateStore)%100 == 0 {
		h.cleanExpiredStates()
	}

	// Refusing past the cap fails the OAuth flow, which beats memory
	// exhaustion.
	if len(h.stateStore) >= maxOAuthStates {
		return
	}

	h.stateStore[state] = expiry
}

// writeJSON writes a JSON response body with status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode JSON response", slog.Any("err", err))
	}
}
