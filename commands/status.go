package commands

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/contribhq/contribd/contrib"
	"github.com/contribhq/contribd/telemetry"
)

// statusCommand reports the review state of a single contribution. Anyone
// may query any id.
type statusCommand struct {
	deps    Deps
	pattern *regexp.Regexp
}

func newStatusCommand(trigger string, deps Deps) *statusCommand {
	return &statusCommand{
		deps:    deps,
		pattern: regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(trigger) + `\s+-status\s+(\d+)\s*$`),
	}
}

func (h *statusCommand) Name() string { return "status" }

func (h *statusCommand) Matches(message string) bool {
	return h.pattern.MatchString(message)
}

func statusEmoji(s contrib.Status) string {
	switch s {
	case contrib.StatusPending:
		return "⏳"
	case contrib.StatusAccepted:
		return "✅"
	case contrib.StatusRejected:
		return "❌"
	}
	return "❓"
}

func (h *statusCommand) Execute(c *Context) bool {
	id, ok := parseID(c, h.pattern.FindStringSubmatch(c.Message)[1])
	if !ok {
		return true
	}
	target, err := h.deps.Store.GetContribution(c.Ctx, id)
	if err != nil {
		slog.Error("status lookup failed", slog.Int64("id", id), slog.Any("err", err))
		telemetry.CountStoreError()
		c.Replyf("Failed to check status. Please try again.")
		return true
	}
	if target == nil {
		c.Replyf("Contribution #%d not found.", id)
		return true
	}
	c.Replyf("Contribution #%d (%s) is %s %s", id, locationOf(target), statusEmoji(target.Status), strings.ToUpper(string(target.Status)))
	return true
}
