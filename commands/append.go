package commands

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/contribhq/contribd/contrib"
	"github.com/contribhq/contribd/telemetry"
)

// appendCommand concatenates new code onto the end of one of the sender's
// pending contributions. Appended text is unescaped but not re-formatted;
// indent handling happened when the contribution was created.
type appendCommand struct {
	deps    Deps
	pattern *regexp.Regexp
}

func newAppendCommand(trigger string, deps Deps) *appendCommand {
	return &appendCommand{
		deps:    deps,
		pattern: regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(trigger) + `\s+-A\s+(\d+)\s+(.+)$`),
	}
}

func (h *appendCommand) Name() string { return "append" }

func (h *appendCommand) Matches(message string) bool {
	return h.pattern.MatchString(message)
}

func (h *appendCommand) Execute(c *Context) bool {
	m := h.pattern.FindStringSubmatch(c.Message)
	id, ok := parseID(c, m[1])
	if !ok {
		return true
	}
	code := contrib.UnescapeNewlines(strings.TrimSpace(m[2]))

	target := fetchOwnedPending(c, h.deps.Store, id, "append to")
	if target == nil {
		return true
	}

	updated := target.Code + code
	if err := h.deps.Store.UpdateCode(c.Ctx, id, updated, contrib.Format(updated, true)); err != nil {
		slog.Error("append failed", slog.Int64("id", id), slog.Any("err", err))
		telemetry.CountStoreError()
		c.Replyf("Failed to append code. Please try again.")
		return true
	}
	c.Replyf("Contribution #%d has been updated with your additional code.", id)
	return true
}
