package commands

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/contribhq/contribd/contrib"
	"github.com/contribhq/contribd/telemetry"
)

// replaceCommand overwrites the code of one of the sender's pending
// contributions. Unlike append and prepend, the replacement text goes
// through the same formatting pass as a fresh submission, and the sender
// spends a rate-limit slot.
type replaceCommand struct {
	deps    Deps
	pattern *regexp.Regexp
}

func newReplaceCommand(trigger string, deps Deps) *replaceCommand {
	return &replaceCommand{
		deps:    deps,
		pattern: regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(trigger) + `\s+-C\s+(\d+)\s+(.+)$`),
	}
}

func (h *replaceCommand) Name() string { return "replace" }

func (h *replaceCommand) Matches(message string) bool {
	return h.pattern.MatchString(message)
}

func (h *replaceCommand) Execute(c *Context) bool {
	m := h.pattern.FindStringSubmatch(c.Message)

	if h.deps.Limiter.IsRateLimited(c.Username) {
		telemetry.CountRateLimited()
		c.Replyf("You're contributing too quickly. Please wait a moment and try again.")
		return true
	}

	id, ok := parseID(c, m[1])
	if !ok {
		return true
	}
	code := contrib.Format(contrib.UnescapeNewlines(strings.TrimSpace(m[2])), false)

	target := fetchOwnedPending(c, h.deps.Store, id, "replace")
	if target == nil {
		return true
	}

	if err := h.deps.Store.UpdateCode(c.Ctx, target.ID, code, contrib.Format(code, true)); err != nil {
		slog.Error("replace failed", slog.Int64("id", id), slog.Any("err", err))
		telemetry.CountStoreError()
		c.Replyf("Failed to replace code. Please try again.")
		return true
	}
	c.Replyf("Contribution #%d has been replaced with your new code.", id)
	return true
}
