package quiz

import "strings"

var posTags = map[string]string{
	"n": "n.", "noun": "n.",
	"v": "v.", "verb": "v.",
	"adj": "adj.", "adjective": "adj.",
	"adv": "adv.", "adverb": "adv.",
	"pron": "pron.", "pronoun": "pron.",
	"prep": "prep.", "preposition": "prep.",
	"conj": "conj.", "conjunction": "conj.",
	"interj": "interj.", "interjection": "interj.",
}

// Canon lowercases s, trims it and collapses inner whitespace runs to a single space.
func Canon(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// NormalizePos maps a part-of-speech answer to its canonical tag ("noun" -> "n.").
// Unknown tags come back trimmed but otherwise as typed.
func NormalizePos(s string) string {
	key := strings.ReplaceAll(Canon(s), ".", "")
	if tag, ok := posTags[key]; ok {
		return tag
	}
	return strings.TrimSpace(s)
}

// SamePos reports whether two part-of-speech answers name the same tag.
func SamePos(a, b string) bool {
	return NormalizePos(a) == NormalizePos(b)
}
