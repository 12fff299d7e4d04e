package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/contribhq/contribd/commands"
	"github.com/contribhq/contribd/config"
	"github.com/contribhq/contribd/contrib"
	"github.com/contribhq/contribd/telemetry"
)

// TokenGetter supplies a stored chat token when TWITCH_OAUTH_TOKEN is not
// set. The db store satisfies it.
type TokenGetter interface {
	GetOAuthToken(ctx context.Context, provider string) (access, refresh string, expiry time.Time, scope string, err error)
}

// StartContributionListener connects to chat and runs the contribution
// command pipeline until the context is cancelled. It blocks; run it in a
// goroutine.
func StartContributionListener(ctx context.Context, store contrib.Store, tokens TokenGetter, cfg *config.Config) {
	if err := cfg.ValidateChatReady(); err != nil {
		slog.Info("twitch creds not set; skipping chat listener", slog.Any("err", err))
		return
	}

	token := cfg.TwitchOAuthToken
	if token == "" && tokens != nil {
		access, _, _, _, err := tokens.GetOAuthToken(ctx, "twitch")
		if err != nil {
			slog.Error("stored token lookup failed", slog.Any("err", err))
			return
		}
		token = access
	}
	if token == "" {
		slog.Info("no chat token available; skipping chat listener")
		return
	}
	if !strings.HasPrefix(token, "oauth:") {
		token = "oauth:" + token
	}

	client := twitch.NewClient(cfg.TwitchBotUsername, token)

	limiter := contrib.NewRateLimiter(cfg.RateWindow, cfg.RateMax)
	limiter.StartPruning(ctx, cfg.RateWindow)

	guard := NewDedupGuard(cfg.DedupClear, cfg.FingerprintTTL)
	guard.Start(ctx)

	registry := commands.NewRegistry(cfg.Trigger, commands.Deps{
		Store:     store,
		Limiter:   limiter,
		DupWindow: cfg.DupWindow,
	})

	botName := strings.ToLower(cfg.TwitchBotUsername)

	client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		username := strings.ToLower(msg.User.Name)
		if username == botName {
			return
		}
		telemetry.CountMessage()

		if !guard.ShouldProcess(msg.ID, username, msg.Message) {
			telemetry.CountDedupDropped()
			return
		}
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(msg.Message)), registry.Trigger()) {
			return
		}
		guard.MarkProcessed(msg.ID, username, msg.Message)

		name := msg.User.DisplayName
		if name == "" {
			name = msg.User.Name
		}
		registry.Dispatch(&commands.Context{
			Ctx:       ctx,
			Channel:   msg.Channel,
			Username:  name,
			MessageID: msg.ID,
			Message:   msg.Message,
			Client:    client,
		})
	})

	client.OnConnect(func() {
		settings, err := store.GetSettings(ctx)
		if err != nil {
			slog.Warn("settings read failed on connect", slog.Any("err", err))
			return
		}
		if settings.WelcomeMessage != "" {
			client.Say(cfg.TwitchChannel, settings.WelcomeMessage)
		}
	})

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		client.Disconnect()
		close(done)
	}()

	client.Join(cfg.TwitchChannel)
	slog.Info("chat listener connecting",
		slog.String("channel", cfg.TwitchChannel),
		slog.String("trigger", registry.Trigger()))
	if err := client.Connect(); err != nil {
		slog.Error("twitch chat connect error", slog.Any("err", err))
	}
	<-done
}
