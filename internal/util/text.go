package util

import (
	"regexp"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// NormalizeWhitespace trims and collapses whitespace to single spaces.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Truncate shortens s to max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return string(r[:1])
	}
	return string(r[:max-1]) + "…"
}

var hashtagRe = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
var mentionRe = regexp.MustCompile(`@([\p{L}\p{N}_]+)`)

// ExtractHashtags pulls #tags out of tweet text, lowercased, deduped.
func ExtractHashtags(s string) []string {
	return extract(hashtagRe, s)
}

// ExtractMentions pulls @handles out of tweet text, lowercased, deduped.
func ExtractMentions(s string) []string {
	return extract(mentionRe, s)
}

func extract(re *regexp.Regexp, s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		tag := strings.ToLower(m[1])
		if !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}
