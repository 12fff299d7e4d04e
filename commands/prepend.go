package commands

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/contribhq/contribd/contrib"
	"github.com/contribhq/contribd/telemetry"
)

// prependCommand concatenates new code onto the front of one of the
// sender's pending contributions.
type prependCommand struct {
	deps    Deps
	pattern *regexp.Regexp
}

func newPrependCommand(trigger string, deps Deps) *prependCommand {
	return &prependCommand{
		deps:    deps,
		pattern: regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(trigger) + `\s+-0\s+(\d+)\s+(.+)$`),
	}
}

func (h *prependCommand) Name() string { return "prepend" }

func (h *prependCommand) Matches(message string) bool {
	return h.pattern.MatchString(message)
}

func (h *prependCommand) Execute(c *Context) bool {
	m := h.pattern.FindStringSubmatch(c.Message)
	id, ok := parseID(c, m[1])
	if !ok {
		return true
	}
	code := contrib.UnescapeNewlines(strings.TrimSpace(m[2]))

	target := fetchOwnedPending(c, h.deps.Store, id, "prepend to")
	if target == nil {
		return true
	}

	updated := code + target.Code
	if err := h.deps.Store.UpdateCode(c.Ctx, id, updated, contrib.Format(updated, true)); err != nil {
		slog.Error("prepend failed", slog.Int64("id", id), slog.Any("err", err))
		telemetry.CountStoreError()
		c.Replyf("Failed to prepend code. Please try again.")
		return true
	}
	c.Replyf("Contribution #%d has been updated with your prepended code.", id)
	return true
}
