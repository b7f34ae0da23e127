package guessgame

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

func normalize(word string) string {
	word = strings.TrimSpace(strings.ToLower(word))
	word = nonAlnum.ReplaceAllString(word, "")
	return strings.TrimSuffix(word, "s")
}

// Matches reports whether guess names target, ignoring case, punctuation and a
// singular/plural mismatch.
func Matches(guess, target string) bool {
	g, t := normalize(guess), normalize(target)
	if g == "" || t == "" {
		return false
	}
	return g == t || g == t+"s" || g+"s" == t
}
