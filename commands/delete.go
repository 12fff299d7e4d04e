package commands

import (
	"log/slog"
	"regexp"

	"github.com/contribhq/contribd/telemetry"
)

// deleteCommand removes one of the sender's pending contributions.
type deleteCommand struct {
	deps    Deps
	pattern *regexp.Regexp
}

func newDeleteCommand(trigger string, deps Deps) *deleteCommand {
	return &deleteCommand{
		deps:    deps,
		pattern: regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(trigger) + `\s+-D\s+(\d+)\s*$`),
	}
}

func (h *deleteCommand) Name() string { return "delete" }

func (h *deleteCommand) Matches(message string) bool {
	return h.pattern.MatchString(message)
}

func (h *deleteCommand) Execute(c *Context) bool {
	id, ok := parseID(c, h.pattern.FindStringSubmatch(c.Message)[1])
	if !ok {
		return true
	}
	target := fetchOwnedPending(c, h.deps.Store, id, "delete")
	if target == nil {
		return true
	}
	if err := h.deps.Store.DeleteContribution(c.Ctx, id); err != nil {
		slog.Error("delete failed", slog.Int64("id", id), slog.Any("err", err))
		telemetry.CountStoreError()
		c.Replyf("Failed to delete contribution. Please try again.")
		return true
	}
	c.Replyf("Contribution #%d has been deleted.", id)
	return true
}
