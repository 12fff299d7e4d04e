package commands

import "strings"

// unknownCommand is the terminal fallback: anything that carried the trigger
// but matched no other handler gets pointed at the help text.
type unknownCommand struct {
	trigger string
}

func newUnknownCommand(trigger string) *unknownCommand {
	return &unknownCommand{trigger: trigger}
}

func (h *unknownCommand) Name() string { return "unknown" }

func (h *unknownCommand) Matches(message string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(message)), h.trigger)
}

func (h *unknownCommand) Execute(c *Context) bool {
	c.Replyf("Unknown %s command format. Type %s --help for usage info.", h.trigger, h.trigger)
	return true
}
