package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/contribhq/contribd/config"
	"github.com/contribhq/contribd/twitchapi"
)

func twitchOAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.TwitchClientID,
		ClientSecret: cfg.TwitchClientSecret,
		RedirectURL:  cfg.TwitchRedirectURI,
		Scopes:       strings.Fields(cfg.TwitchScopes),
		Endpoint:     endpoints.Twitch,
	}
}

// HandleTwitchOAuthStart initiates the Twitch OAuth flow by redirecting to Twitch.
func (h *Handlers) HandleTwitchOAuthStart(w http.ResponseWriter, r *http.Request) {
	cfg, _ := config.Load() // ignore error; minimal usage
	if cfg.TwitchClientID == "" || cfg.TwitchRedirectURI == "" {
		http.Error(w, "oauth not configured (need TWITCH_CLIENT_ID + TWITCH_REDIRECT_URI)", http.StatusBadRequest)
		return
	}
	st := uuid.New().String()
	h.addOAuthState(st, time.Now().Add(10*time.Minute))
	http.Redirect(w, r, twitchOAuthConfig(cfg).AuthCodeURL(st), http.StatusFound)
}

// HandleTwitchOAuthCallback handles the OAuth callback from Twitch and
// stores the chat token. Only the configured channel owner or the bot
// account may complete the flow.
func (h *Handlers) HandleTwitchOAuthCallback(w http.ResponseWriter, r *http.Request) {
	cfg, _ := config.Load()
	code := r.URL.Query().Get("code")
	st := r.URL.Query().Get("state")
	if code == "" || st == "" {
		http.Error(w, "missing code/state", http.StatusBadRequest)
		return
	}
	h.stateMu.RLock()
	exp, ok := h.stateStore[st]
	h.stateMu.RUnlock()
	if !ok || time.Now().After(exp) {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}
	h.stateMu.Lock()
	delete(h.stateStore, st)
	h.stateMu.Unlock()

	ctx := r.Context()
	tok, err := twitchOAuthConfig(cfg).Exchange(ctx, code)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	validation, err := twitchapi.ValidateToken(ctx, nil, tok.AccessToken)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	login := strings.ToLower(validation.Login)
	if login != strings.ToLower(cfg.TwitchChannel) && login != strings.ToLower(cfg.TwitchBotUsername) {
		slog.Warn("oauth callback from unexpected account", slog.String("login", validation.Login))
		http.Error(w, "account not authorized for this bot", http.StatusForbidden)
		return
	}

	if err := h.tokens.UpsertOAuthToken(ctx, "twitch", tok.AccessToken, tok.RefreshToken,
		tok.Expiry, strings.Join(validation.Scopes, " ")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"login":  validation.Login,
		"scopes": validation.Scopes,
	})
}
