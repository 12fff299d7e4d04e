package contrib

import (
	"regexp"
	"strconv"
	"strings"
)

// Submission is the parsed form of a create command: the target file, an
// optional line number, and the code body with newline escapes resolved.
type Submission struct {
	Filename   string
	LineNumber *int
	Code       string
}

// Parse extracts a Submission from the argument portion of a create command
// (the trigger word already stripped by the dispatcher). The grammar is
//
//	<filename> [-l <lineNumber>] <code...>
//
// Parsing is strict: fewer than two tokens, a -l flag without a positive
// integer argument, or no code left after the arguments all return nil.
// Callers treat nil as "malformed, reply with a usage hint", never as a
// fatal error.
func Parse(args string) *Submission {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return nil
	}

	filename := parts[0]
	var lineNumber *int
	codeStart := 1

	for i := 1; i < len(parts); i++ {
		if parts[i] != "-l" {
			continue
		}
		if i+1 >= len(parts) {
			return nil
		}
		n, err := strconv.Atoi(parts[i+1])
		if err != nil || n <= 0 {
			return nil
		}
		lineNumber = &n
		codeStart = i + 2
		break
	}
	if codeStart >= len(parts) {
		return nil
	}

	code := UnescapeNewlines(strings.Join(parts[codeStart:], " "))
	return &Submission{Filename: filename, LineNumber: lineNumber, Code: code}
}

// filenamePattern restricts filenames to plain relative paths with an
// extension. Everything submitted via chat eventually reaches
// filesystem-touching collaborators (the editor bridge), so traversal
// attempts are rejected here rather than trusted downstream.
var filenamePattern = regexp.MustCompile(`^[A-Za-z0-9._/-]+\.[A-Za-z0-9]+$`)

// ValidFilename reports whether name is safe to store and forward: no
// absolute paths, no parent-directory traversal, no backslashes, and a
// restricted character set ending in an extension.
func ValidFilename(name string) bool {
	if name == "" || strings.HasPrefix(name, "/") {
		return false
	}
	if strings.Contains(name, "..") || strings.Contains(name, `\`) {
		return false
	}
	return filenamePattern.MatchString(name)
}
