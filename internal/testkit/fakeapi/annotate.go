package fakeapi

import (
	"strings"
	"unicode"
)

// Annotator labels a submitted answer set with a sentiment and a burnout
// risk. Labels are capitalized the way the real backend returns them.
type Annotator func(answers map[string]string) (sentiment, burnoutRisk string)

var (
	positiveWords = wordSet("good great happy love enjoy excellent supported motivated yes")
	negativeWords = wordSet("bad poor unhappy hate stressed tired exhausted overwhelmed no")
	burnoutWords  = wordSet("exhausted overwhelmed burnout burned overtime stressed tired")
)

func wordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		out[w] = struct{}{}
	}
	return out
}

// KeywordAnnotator scores answers against small word lists. Low ratings
// count as negative and raise the burnout risk.
func KeywordAnnotator(answers map[string]string) (string, string) {
	score, strain := 0, 0
	for _, v := range answers {
		switch strings.TrimSpace(v) {
		case "1", "2":
			score--
			strain++
			continue
		case "4", "5":
			score++
			continue
		}
		for _, w := range strings.FieldsFunc(strings.ToLower(v), func(r rune) bool {
			return !unicode.IsLetter(r)
		}) {
			if _, ok := positiveWords[w]; ok {
				score++
			}
			if _, ok := negativeWords[w]; ok {
				score--
			}
			if _, ok := burnoutWords[w]; ok {
				strain++
			}
		}
	}

	sentiment := "Neutral"
	switch {
	case score > 0:
		sentiment = "Positive"
	case score < 0:
		sentiment = "Negative"
	}
	risk := "Low"
	switch {
	case strain >= 3:
		risk = "High"
	case strain > 0:
		risk = "Medium"
	}
	return sentiment, risk
}
