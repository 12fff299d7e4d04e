package commands

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/contribhq/contribd/telemetry"
)

// incompleteCase pairs a missing-argument shape with its two reply tones.
type incompleteCase struct {
	pattern *regexp.Regexp
	serious string
	huh     string
}

// incompleteCommand catches option flags that arrived without their required
// arguments and replies with a usage hint. Tone is picked per message from
// the stored settings: the serious wording by default, the HUH wording when
// the channel owner has opted in. Settings failures fall back to serious.
type incompleteCommand struct {
	deps  Deps
	cases []incompleteCase
}

func newIncompleteCommand(trigger string, deps Deps) *incompleteCommand {
	quoted := regexp.QuoteMeta(trigger)
	pat := func(suffix string) *regexp.Regexp {
		return regexp.MustCompile(`(?i)^\s*` + quoted + suffix + `\s*$`)
	}
	t := trigger
	return &incompleteCommand{
		deps: deps,
		cases: []incompleteCase{
			{pat(`\s+-A`),
				fmt.Sprintf("Missing contribution ID and code. Use: %s -A contrib_id your_code_here", t),
				fmt.Sprintf("Append with no ID!! what do you want me to do, manifest it from stardust? Try: %s -A 123 console.log('this') Kreygasm", t)},
			{pat(`\s+-A\s+\d+`),
				fmt.Sprintf("Missing code to append. Use: %s -A contrib_id your_code_here", t),
				fmt.Sprintf("Appending nothing? Bro, you're out here coding with vibes and prayers. Feed me some actual logic: %s -A 123 your_code_goes_brrr NotLikeThis", t)},
			{pat(`\s+-0`),
				fmt.Sprintf("Missing contribution ID and code. Use: %s -0 contrib_id your_code_here", t),
				"Prepending without an ID is like breathing in sand, can't do it can ya? SMOrc"},
			{pat(`\s+-0\s+\d+`),
				fmt.Sprintf("Missing code to prepend. Use: %s -0 contrib_id your_code_here", t),
				fmt.Sprintf("Prepending nothing ha? bold move, Picasso. Toss me some code: %s -0 123 // Actually adding something HeyGuys", t)},
			{pat(`\s+-C`),
				fmt.Sprintf("Missing contribution ID and code. Use: %s -C contrib_id new_code", t),
				fmt.Sprintf("A change command with zero ID? That's not an operation, that's a cry for help. %s -C 123 better_code_goes_here LUL", t)},
			{pat(`\s+-C\s+\d+`),
				fmt.Sprintf("Missing code to replace with. Use: %s -C contrib_id new_code", t),
				fmt.Sprintf("Changing with nothing? Bro, already your code's so minimalist it's just a lonely bracket FailFish NotLikeThis help me help you: %s -C 123 function(){ // fire }", t)},
			{pat(`\s+-D`),
				fmt.Sprintf("Missing contribution ID. Use: %s -D contrib_id", t),
				fmt.Sprintf("Dude tryna rm -rf twitch! WutFace chill GoldPLZ try: %s -D contrib_id but i bet you forgot the id NotLikeThis use %s -ls", t, t)},
			{pat(`\s+-status`),
				fmt.Sprintf("Missing contribution ID. Use: %s -status contrib_id", t),
				fmt.Sprintf("Status check, no ID? You're nerding out big time!!, F5-ing a 404 page in your heart PewPewPew. look: %s -status 123 SeemsGood", t)},
			{pat(`\s+-grep`),
				fmt.Sprintf("Missing filename. Use: %s -grep filename", t),
				fmt.Sprintf("Stop it! HeyGuys You're over-grepping JinxLUL. Seriously, try narrowing it down: %s -grep index.js", t)},
			{pat(`\s+-l`),
				fmt.Sprintf("Missing line number. Use: %s filename -l line_number code", t),
				fmt.Sprintf("No number for line? Bro, I'm not guessing your code's horoscope. Gimme digits: %s file.js -l 42 console.log('facts') 4Head PogChamp", t)},
			{pat(`\s+-l\s+\d+`),
				fmt.Sprintf("Missing code after line number. Use: %s filename -l line_number code", t),
				fmt.Sprintf("You picked a line but sent no code. That's just a vibe. %s file.js -l 42 console.log('answer') PogChamp", t)},
		},
	}
}

func (h *incompleteCommand) Name() string { return "incomplete" }

func (h *incompleteCommand) Matches(message string) bool {
	for _, ic := range h.cases {
		if ic.pattern.MatchString(message) {
			return true
		}
	}
	return false
}

func (h *incompleteCommand) Execute(c *Context) bool {
	huh := false
	settings, err := h.deps.Store.GetSettings(c.Ctx)
	if err != nil {
		slog.Warn("settings read failed, using serious replies", slog.Any("err", err))
		telemetry.CountStoreError()
	} else {
		huh = settings.UseHuhMode
	}
	for _, ic := range h.cases {
		if !ic.pattern.MatchString(c.Message) {
			continue
		}
		if huh {
			c.Replyf("%s", ic.huh)
		} else {
			c.Replyf("%s", ic.serious)
		}
		return true
	}
	return true
}
