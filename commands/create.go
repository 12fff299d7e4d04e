package commands

import (
	"log/slog"
	"regexp"

	"github.com/contribhq/contribd/contrib"
	"github.com/contribhq/contribd/telemetry"
)

// createCommand is the catch-all submission handler: a filename, an optional
// line flag, and the code itself. It declines anything carrying a known
// option flag so the specific handlers get first refusal, which is why it
// sits after them in registry order.
type createCommand struct {
	trigger     string
	deps        Deps
	flagPattern *regexp.Regexp
	filePattern *regexp.Regexp
}

func newCreateCommand(trigger string, deps Deps) *createCommand {
	quoted := regexp.QuoteMeta(trigger)
	return &createCommand{
		trigger:     trigger,
		deps:        deps,
		flagPattern: regexp.MustCompile(`(?i)^\s*` + quoted + `\s+(-[A0CDhlsgre]|--help|--usage|--options|help|-status|-grep|-ls)`),
		filePattern: regexp.MustCompile(`(?i)^\s*` + quoted + `\s+[\w/.-]+\.\w+`),
	}
}

func (h *createCommand) Name() string { return "create" }

func (h *createCommand) Matches(message string) bool {
	if h.flagPattern.MatchString(message) {
		return false
	}
	return h.filePattern.MatchString(message)
}

func (h *createCommand) Execute(c *Context) bool {
	trigger := h.trigger
	sub := contrib.Parse(stripTrigger(c.Message, trigger))
	if sub == nil {
		c.Replyf("Invalid usage ❌. Use: %s filename -l line_number(optional) code or %s --help", trigger, trigger)
		return true
	}
	if !contrib.ValidFilename(sub.Filename) {
		c.Replyf("Invalid filename. Use a relative path like src/main.js.")
		return true
	}

	if h.deps.Limiter.IsRateLimited(c.Username) {
		telemetry.CountRateLimited()
		c.Replyf("You're contributing too quickly. Please wait a moment and try again.")
		return true
	}

	code := contrib.Format(sub.Code, false)
	codeHash := contrib.Format(sub.Code, true)

	report := contrib.ValidateSubmission(c.Ctx, h.deps.Store, contrib.ConflictQuery{
		Filename:   sub.Filename,
		LineNumber: sub.LineNumber,
		CodeHash:   codeHash,
		Username:   c.Username,
		DupWindow:  h.deps.DupWindow,
	})
	switch {
	case report.PersonalDuplicate:
		telemetry.CountConflict("personal_duplicate")
		c.Replyf("You've already submitted this code. Please try something different.")
		return true
	case report.AcceptedDuplicate:
		telemetry.CountConflict("accepted_duplicate")
		c.Replyf("This code has already been accepted. Please try something different.")
		return true
	case report.LineConflict:
		telemetry.CountConflict("line_conflict")
		c.Replyf("Another user has a pending contribution for that line. Please choose a different line or wait for it to be reviewed.")
		return true
	}

	id, err := h.deps.Store.CreateContribution(c.Ctx, c.Username, sub.Filename, sub.LineNumber, code, codeHash)
	if err != nil {
		slog.Error("saving contribution failed",
			slog.String("username", c.Username),
			slog.String("filename", sub.Filename),
			slog.Any("err", err))
		telemetry.CountStoreError()
		c.Replyf("Failed to save contribution. Please try again later.")
		return true
	}
	telemetry.CountCreated()
	c.Replyf("Contribution saved! ID: %d", id)
	return true
}
