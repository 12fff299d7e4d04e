package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/contribhq/contribd/contrib"
)

// HandleSettings serves GET and POST /settings. Writes replace the whole
// settings document; the dashboard always sends every field.
func (h *Handlers) HandleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := h.store.GetSettings(r.Context())
		if err != nil {
			slog.Error("get settings failed", slog.Any("err", err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	case http.MethodPost:
		var settings contrib.Settings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if err := h.store.UpdateSettings(r.Context(), settings); err != nil {
			slog.Error("update settings failed", slog.Any("err", err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
