package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/contribhq/contribd/telemetry"
)

// HandleStatus returns a lightweight status summary: contribution counts by
// state, oldest pending age, and uptime.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	resp := map[string]any{
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	}

	counts := map[string]int{}
	rows, err := h.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM contributions GROUP BY status`)
	if err == nil {
		defer func() {
			if err := rows.Close(); err != nil {
				slog.Warn("failed to close rows", slog.Any("err", err))
			}
		}()
		for rows.Next() {
			var status string
			var n int
			if err := rows.Scan(&status, &n); err == nil {
				counts[status] = n
			}
		}
	}
	resp["pending"] = counts["pending"]
	resp["accepted"] = counts["accepted"]
	resp["rejected"] = counts["rejected"]
	telemetry.SetPending(counts["pending"])

	var oldestPending time.Time
	if err := h.db.QueryRowContext(ctx,
		`SELECT MIN(created_at) FROM contributions WHERE status='pending'`).Scan(&oldestPending); err == nil && !oldestPending.IsZero() {
		resp["oldest_pending_age_seconds"] = int(time.Since(oldestPending).Seconds())
	}

	writeJSON(w, http.StatusOK, resp)
}
