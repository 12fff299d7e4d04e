package commands

import "strings"

// helpCommand answers the fixed help spellings. Matching is exact on the
// whitespace-normalized lowercase message, so "!contrib --helpme" falls
// through to the unknown handler.
type helpCommand struct {
	trigger string
}

func newHelpCommand(trigger string) *helpCommand {
	return &helpCommand{trigger: trigger}
}

func (h *helpCommand) Name() string { return "help" }

func (h *helpCommand) normalize(message string) string {
	return strings.Join(strings.Fields(strings.ToLower(message)), " ")
}

func (h *helpCommand) Matches(message string) bool {
	switch h.normalize(message) {
	case h.trigger + " --help", h.trigger + " -h", h.trigger + " help",
		h.trigger + " --usage", h.trigger + " --options":
		return true
	}
	return false
}

func (h *helpCommand) Execute(c *Context) bool {
	switch h.normalize(c.Message) {
	case h.trigger + " --usage":
		c.Replyf(`📝 %s USAGE: [filename] [-l line_number] [code] | [-A ID code] | [-0 ID code] | [-C ID code] | [-D ID] | [-ls] | [-grep filename] | [-status ID] | Use \n for newlines`, strings.ToUpper(h.trigger))
	case h.trigger + " --options":
		c.Replyf(`%s OPTIONS: -l=line number, -A=append, -0=prepend, -C=replace, -D=delete, -ls=list yours, -grep=find by file, -status=check status. Use \n for newlines.`, strings.ToUpper(h.trigger))
	default:
		c.Replyf("For %s usage syntax, type: %s --usage. For options definitions, type: %s --options", h.trigger, h.trigger, h.trigger)
	}
	return true
}
