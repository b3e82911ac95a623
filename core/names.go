package core

import (
	"sort"
	"strings"
	"unicode"
)

// MentionedPlayers returns the roster names that appear in text as whole
// words, ordered by their first position in the text. Matching is case
// insensitive.
func MentionedPlayers(text string, roster []string) []string {
	lower := strings.ToLower(text)

	type hit struct {
		name string
		pos  int
	}

	var hits []hit
	for _, name := range roster {
		if pos := wordIndex(lower, strings.ToLower(name)); pos >= 0 {
			hits = append(hits, hit{name: name, pos: pos})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	names := make([]string, len(hits))
	for i, h := range hits {
		names[i] = h.name
	}

	return names
}

// FirstMentioned returns the earliest roster name found in text.
func FirstMentioned(text string, roster []string) (string, bool) {
	names := MentionedPlayers(text, roster)
	if len(names) == 0 {
		return "", false
	}
	return names[0], true
}

func wordIndex(s, word string) int {
	if word == "" {
		return -1
	}
	offset := 0
	for {
		i := strings.Index(s[offset:], word)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(word)
		if boundary(s, start-1) && boundary(s, end) {
			return start
		}
		offset = start + 1
	}
}

func boundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	r := rune(s[i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}
