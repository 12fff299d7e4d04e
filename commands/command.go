// Package commands implements the chat command surface: an ordered registry
// of handlers that classify each incoming line and execute exactly one.
// Ordering is significant; specific patterns (append, delete, ...) are tried
// before the general create matcher, the incomplete-argument matcher runs
// after every complete pattern, and the unknown matcher is last.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/contribhq/contribd/contrib"
	"github.com/contribhq/contribd/telemetry"
)

// DefaultTrigger is the literal command prefix unless configuration
// overrides it.
const DefaultTrigger = "!contrib"

// Sayer sends a reply line back to a chat channel. The IRC client satisfies
// it; tests use a recorder.
type Sayer interface {
	Say(channel, text string)
}

// Context carries one inbound chat line through dispatch.
type Context struct {
	Ctx       context.Context
	Channel   string
	Username  string
	MessageID string
	Message   string
	Tags      map[string]string
	Client    Sayer
}

// Replyf sends a formatted reply mentioning the sender.
func (c *Context) Replyf(format string, args ...any) {
	c.Client.Say(c.Channel, "@"+c.Username+" "+fmt.Sprintf(format, args...))
}

// Handler classifies and executes chat commands. Execute returns true when
// the line was definitively handled, including handled-but-failed; a true
// result terminates the dispatch chain for that message.
type Handler interface {
	Name() string
	Matches(message string) bool
	Execute(c *Context) bool
}

// Deps are the collaborators shared by handlers.
type Deps struct {
	Store     contrib.Store
	Limiter   *contrib.RateLimiter
	DupWindow time.Duration
}

// Registry holds the handlers in priority order and dispatches each line to
// the first one that claims it.
type Registry struct {
	trigger  string
	handlers []Handler
}

// NewRegistry builds the full handler roster for the given trigger word.
func NewRegistry(trigger string, deps Deps) *Registry {
	trigger = strings.ToLower(strings.TrimSpace(trigger))
	if trigger == "" {
		trigger = DefaultTrigger
	}
	return &Registry{
		trigger: trigger,
		handlers: []Handler{
			newHelpCommand(trigger),
			newListCommand(trigger, deps),
			newGrepCommand(trigger, deps),
			newStatusCommand(trigger, deps),
			newReplaceCommand(trigger, deps),
			newDeleteCommand(trigger, deps),
			newPrependCommand(trigger, deps),
			newAppendCommand(trigger, deps),
			newCreateCommand(trigger, deps),
			newIncompleteCommand(trigger, deps),
			newUnknownCommand(trigger),
		},
	}
}

// Trigger returns the literal command prefix the registry matches on.
func (r *Registry) Trigger() string { return r.trigger }

// Dispatch runs the first handler whose matcher claims the message. A
// handler panic is logged and ends processing for that message; it never
// propagates to the transport, so every admitted message yields at most one
// reply or a silent drop.
func (r *Registry) Dispatch(c *Context) {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(c.Message)), r.trigger) {
		return
	}
	for _, h := range r.handlers {
		if !h.Matches(c.Message) {
			continue
		}
		var handled bool
		telemetry.TimeFunc(telemetry.DispatchDuration, func() {
			handled = r.execute(h, c)
		})
		telemetry.CountCommand(h.Name())
		if handled {
			return
		}
	}
}

func (r *Registry) execute(h Handler, c *Context) (handled bool) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("command handler panicked",
				slog.String("handler", h.Name()),
				slog.String("username", c.Username),
				slog.Any("panic", rec))
			handled = true
		}
	}()
	return h.Execute(c)
}

// stripTrigger removes the leading trigger token from a message the registry
// already prefix-matched.
func stripTrigger(message, trigger string) string {
	m := strings.TrimSpace(message)
	return strings.TrimSpace(m[len(trigger):])
}

// parseID converts an id token already shaped by a \d+ matcher into a
// positive integer, replying with an invalid-id hint on failure (e.g.
// overflow).
func parseID(c *Context, token string) (int64, bool) {
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil || id <= 0 {
		c.Replyf("Invalid contribution ID. Please use a positive number.")
		return 0, false
	}
	return id, true
}

// fetchOwnedPending looks up a contribution and enforces the shared
// modification checks in order: existence, ownership, pending status. It
// returns nil after replying when any check fails.
func fetchOwnedPending(c *Context, store contrib.Store, id int64, verb string) *contrib.Contribution {
	target, err := store.GetContribution(c.Ctx, id)
	if err != nil {
		slog.Error("contribution lookup failed", slog.Int64("id", id), slog.Any("err", err))
		telemetry.CountStoreError()
		c.Replyf("Something went wrong. Please try again later.")
		return nil
	}
	if target == nil {
		c.Replyf("Contribution #%d not found.", id)
		return nil
	}
	if target.Username != c.Username {
		c.Replyf("You can only %s your own contributions.", verb)
		return nil
	}
	if target.Status != contrib.StatusPending {
		c.Replyf("You can only %s pending contributions.", verb)
		return nil
	}
	return target
}

// locationOf renders "file.js, line 10" or just "file.js" for replies.
func locationOf(c *contrib.Contribution) string {
	if c.LineNumber != nil {
		return fmt.Sprintf("%s, line %d", c.Filename, *c.LineNumber)
	}
	return c.Filename
}
