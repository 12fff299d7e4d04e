package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/contribhq/contribd/contrib"
	"github.com/contribhq/contribd/telemetry"
)

const defaultListLimit = 50

// HandleContributionsList serves GET /contributions with optional status
// filter and paging. Rejected contributions are hidden when the settings say
// so, unless a status filter asks for them explicitly.
func (h *Handlers) HandleContributionsList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := contrib.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		http.Error(w, "invalid status filter", http.StatusBadRequest)
		return
	}
	limit := parseIntQuery(r, "limit", defaultListLimit)
	if limit <= 0 || limit > 500 {
		limit = defaultListLimit
	}
	offset := parseIntQuery(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	list, err := h.store.ListContributions(r.Context(), status, limit, offset)
	if err != nil {
		slog.Error("list contributions failed", slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if status == "" {
		settings, err := h.store.GetSettings(r.Context())
		if err == nil && !settings.ShowRejected {
			filtered := list[:0]
			for _, c := range list {
				if c.Status != contrib.StatusRejected {
					filtered = append(filtered, c)
				}
			}
			list = filtered
		}
	}

	if list == nil {
		list = []contrib.Contribution{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleContributionsDispatcher routes /contributions/{id} and
// /contributions/{id}/status.
func (h *Handlers) HandleContributionsDispatcher(w http.ResponseWriter, r *http.Request) {
	id, tail, ok := pathID(r.URL.Path, "/contributions/")
	if !ok {
		http.Error(w, "invalid contribution id", http.StatusBadRequest)
		return
	}
	switch {
	case tail == "" && r.Method == http.MethodGet:
		h.handleContributionGet(w, r, id)
	case tail == "status" && r.Method == http.MethodPost:
		h.handleContributionStatus(w, r, id)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (h *Handlers) handleContributionGet(w http.ResponseWriter, r *http.Request, id int64) {
	c, err := h.store.GetContribution(r.Context(), id)
	if err != nil {
		slog.Error("get contribution failed", slog.Int64("id", id), slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if c == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleContributionStatus applies a review decision. The store enforces the
// pending-only transition; losing a concurrent race yields 409.
func (h *Handlers) handleContributionStatus(w http.ResponseWriter, r *http.Request, id int64) {
	var req struct {
		Status contrib.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Status != contrib.StatusAccepted && req.Status != contrib.StatusRejected {
		http.Error(w, "status must be accepted or rejected", http.StatusBadRequest)
		return
	}

	target, err := h.store.GetContribution(r.Context(), id)
	if err != nil {
		slog.Error("get contribution failed", slog.Int64("id", id), slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if target == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if err := h.store.UpdateStatus(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, contrib.ErrNotPending) {
			http.Error(w, "contribution is not pending", http.StatusConflict)
			return
		}
		slog.Error("update status failed", slog.Int64("id", id), slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	target.Status = req.Status

	h.refreshPendingGauge()

	if req.Status == contrib.StatusAccepted && h.notifier != nil {
		// Best effort; acceptance is already durable.
		go func(c contrib.Contribution) {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(h.ctx), 15*time.Second)
			defer cancel()
			if err := h.notifier.NotifyAccepted(ctx, &c); err != nil {
				slog.Warn("editor notify failed", slog.Int64("id", c.ID), slog.Any("err", err))
			}
		}(*target)
	}

	writeJSON(w, http.StatusOK, target)
}

func (h *Handlers) refreshPendingGauge() {
	counter, ok := h.store.(interface {
		CountPending(ctx context.Context) (int, error)
	})
	if !ok {
		return
	}
	if n, err := counter.CountPending(h.ctx); err == nil {
		telemetry.SetPending(n)
	}
}
