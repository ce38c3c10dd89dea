// Package profanity provides server-side backup filtering for user-submitted
// feedback text. The client performs its own filtering; this is the last line
// before persistence.
package profanity

import (
	"regexp"
	"strings"
)

var wordList = []string{
	"fuck", "fucker", "fucking", "fucked", "fck", "fuk",
	"shit", "shitty", "bullshit",
	"asshole", "arsehole",
	"bitch", "bitches",
	"bastard", "bastards",
	"dickhead",
	"whore", "slut",
	"cunt",
	"motherfucker", "mofo",
	"wanker", "twat", "douchebag",
	"madarchod", "maderchod", "behenchod", "bhenchod",
	"chutiya", "chutiye", "chutia",
	"gandu", "gaandu",
	"bhosdike", "bhosdi", "bsdk",
	"randi", "harami", "haramkhor",
	"kamina", "kamine", "kameena",
	"bhadwa", "bhadwe",
	"jhant", "jhatu",
	"wtf", "stfu",
}

var patterns = compile(wordList)

func compile(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		out = append(out, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return out
}

// Contains reports whether the text includes any listed word.
func Contains(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, p := range patterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}

// Censor replaces each listed word with asterisks of the same length.
func Censor(text string) string {
	if text == "" {
		return text
	}
	censored := text
	for _, p := range patterns {
		censored = p.ReplaceAllStringFunc(censored, func(match string) string {
			return strings.Repeat("*", len(match))
		})
	}
	return censored
}
