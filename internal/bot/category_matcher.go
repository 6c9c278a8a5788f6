package bot

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MatchCategory finds the vocabulary entry that best matches a typed or suggested name.
// Matching ignores case and accents, so "saude" finds "Saúde".
// Matching strategy:
// 1. Exact match
// 2. Contains match, shortest category first (e.g., "educ" matches "Educação")
// 3. Reverse contains, longest category first
// 4. Shared significant word
// It returns "" when nothing matches.
func MatchCategory(suggested string, categories []string) string {
	suggestedKey := foldName(suggested)
	if suggestedKey == "" {
		return ""
	}

	keys := make([]string, len(categories))
	for i, c := range categories {
		keys[i] = foldName(c)
	}

	for i, k := range keys {
		if k == suggestedKey {
			return categories[i]
		}
	}

	best := -1
	for i, k := range keys {
		if k != "" && strings.Contains(k, suggestedKey) {
			if best < 0 || len(k) < len(keys[best]) {
				best = i
			}
		}
	}
	if best >= 0 {
		return categories[best]
	}

	for i, k := range keys {
		if k != "" && strings.Contains(suggestedKey, k) {
			if best < 0 || len(k) > len(keys[best]) {
				best = i
			}
		}
	}
	if best >= 0 {
		return categories[best]
	}

	suggestedWords := extractSignificantWords(suggestedKey)
	for i, k := range keys {
		for _, cw := range extractSignificantWords(k) {
			for _, sw := range suggestedWords {
				if sw == cw {
					return categories[i]
				}
			}
		}
	}

	return ""
}

// foldName lower-cases a name and strips diacritics.
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// extractSignificantWords extracts words from a folded string, filtering out common separators.
func extractSignificantWords(s string) []string {
	s = strings.NewReplacer("-", " ", "/", " ", "&", " ", ">", " ").Replace(s)

	var significant []string
	for _, w := range strings.Fields(s) {
		if len(w) >= 3 && !isStopWord(w) {
			significant = append(significant, w)
		}
	}
	return significant
}

var stopWords = map[string]bool{
	"das": true,
	"dos": true,
	"para": true,
	"com": true,
	"and": true,
	"the": true,
}

func isStopWord(word string) bool {
	return stopWords[word]
}
