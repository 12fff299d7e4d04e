// Package contrib implements the core of the contribution pipeline: parsing
// chat submissions into structured form, normalizing code, classifying
// conflicts against existing contributions, and rate limiting submitters.
// It is transport-agnostic; the chat package wires it to Twitch IRC and the
// db package supplies the Store implementation.
package contrib

import (
	"strings"
	"unicode"
)

// Format canonicalizes a code snippet. With normalize=false it produces the
// display copy stored alongside the contribution: the minimum leading
// whitespace shared by all non-blank lines is stripped uniformly, preserving
// relative indentation and interior blank lines. With normalize=true it
// produces a comparison key instead: lowercased with every whitespace
// character removed. The comparison key is only ever used for duplicate
// detection and is never stored as the display copy.
//
// Format is pure; empty input yields empty output.
func Format(code string, normalize bool) string {
	if normalize {
		var b strings.Builder
		b.Grow(len(code))
		for _, r := range strings.ToLower(code) {
			if !unicode.IsSpace(r) {
				b.WriteRune(r)
			}
		}
		return b.String()
	}

	lines := strings.Split(code, "\n")
	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if minIndent < 0 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent <= 0 {
		return code
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			out[i] = ""
			continue
		}
		out[i] = line[minIndent:]
	}
	return strings.Join(out, "\n")
}

// UnescapeNewlines converts the literal two-character sequence \n into real
// newlines. Chat transports deliver single-line text, so this is how
// multi-line code is expressed in a command.
func UnescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
