package commands

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/contribhq/contribd/telemetry"
)

const listLimit = 5

// listCommand shows the sender their own recent contributions.
type listCommand struct {
	deps    Deps
	pattern *regexp.Regexp
}

func newListCommand(trigger string, deps Deps) *listCommand {
	return &listCommand{
		deps:    deps,
		pattern: regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(trigger) + `\s+-ls(\s|$)`),
	}
}

func (h *listCommand) Name() string { return "list" }

func (h *listCommand) Matches(message string) bool {
	return h.pattern.MatchString(message)
}

func (h *listCommand) Execute(c *Context) bool {
	contributions, err := h.deps.Store.GetUserContributions(c.Ctx, c.Username, listLimit)
	if err != nil {
		slog.Error("listing user contributions failed", slog.String("username", c.Username), slog.Any("err", err))
		telemetry.CountStoreError()
		c.Replyf("Failed to fetch your contributions. Please try again.")
		return true
	}
	if len(contributions) == 0 {
		c.Replyf("You don't have any recent contributions.")
		return true
	}
	parts := make([]string, 0, len(contributions))
	for _, cb := range contributions {
		parts = append(parts, fmt.Sprintf("#%d (%s, %s)", cb.ID, locationOf(&cb), cb.Status))
	}
	c.Replyf("Your recent contributions: %s", strings.Join(parts, ", "))
	return true
}
