package commands

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/contribhq/contribd/telemetry"
)

// grepCommand shows recent contributions for a file, whoever submitted them.
// The matcher requires a filename argument and nothing after it; a bare
// "-grep" is the incomplete handler's business.
type grepCommand struct {
	deps    Deps
	pattern *regexp.Regexp
}

func newGrepCommand(trigger string, deps Deps) *grepCommand {
	return &grepCommand{
		deps:    deps,
		pattern: regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(trigger) + `\s+-grep\s+(\S+)\s*$`),
	}
}

func (h *grepCommand) Name() string { return "grep" }

func (h *grepCommand) Matches(message string) bool {
	return h.pattern.MatchString(message)
}

func (h *grepCommand) Execute(c *Context) bool {
	filename := h.pattern.FindStringSubmatch(c.Message)[1]
	contributions, err := h.deps.Store.GetFileContributions(c.Ctx, filename, listLimit)
	if err != nil {
		slog.Error("listing file contributions failed", slog.String("filename", filename), slog.Any("err", err))
		telemetry.CountStoreError()
		c.Replyf("Failed to fetch contributions. Please try again.")
		return true
	}
	if len(contributions) == 0 {
		c.Replyf("No contributions found for %s.", filename)
		return true
	}
	parts := make([]string, 0, len(contributions))
	for _, cb := range contributions {
		loc := cb.Username
		if cb.LineNumber != nil {
			loc = fmt.Sprintf("%s, line %d", cb.Username, *cb.LineNumber)
		}
		parts = append(parts, fmt.Sprintf("#%d (%s, %s)", cb.ID, loc, cb.Status))
	}
	c.Replyf("Recent contributions for %s: %s", filename, strings.Join(parts, ", "))
	return true
}
