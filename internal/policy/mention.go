package policy

import (
	"iter"
	"regexp"
	"strings"
)

// An at-sign immediately followed by a full email address. The email's own
// at-sign is part of the capture.
var mentionPattern = regexp.MustCompile(`(?i)@([a-z0-9._%+\-]+@[a-z0-9\-]+(?:\.[a-z0-9\-]+)*\.[a-z]{2,})`)

// ExtractMentions yields the raw email address of every @email token in text,
// in order of appearance. The sequence is lazy and can be ranged over again.
func ExtractMentions(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		rest := text
		for {
			loc := mentionPattern.FindStringSubmatchIndex(rest)
			if loc == nil {
				return
			}
			if !yield(rest[loc[2]:loc[3]]) {
				return
			}
			rest = rest[loc[1]:]
		}
	}
}

// Mentions collects the distinct mentioned addresses, lower-cased, in order of
// first appearance.
func Mentions(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for email := range ExtractMentions(text) {
		email = strings.ToLower(email)
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}
