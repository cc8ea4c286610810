package retrieve

import (
	"strings"
	"unicode"
)

var lexicalStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "was": {}, "were": {}, "what": {}, "when": {}, "which": {},
	"who": {}, "why": {}, "with": {},
}

// termOverlap counts how many query terms occur in the candidate token set.
// Deliberately simple term-overlap scoring; this is the last-resort ranking
// when no scope can be resolved, not a full-text engine.
func termOverlap(queryTokens []string, candidate map[string]struct{}) int {
	var matches int
	for _, token := range queryTokens {
		if _, ok := candidate[token]; ok {
			matches++
		}
	}
	return matches
}

// tokenSet lowercases and splits each text on non-alphanumeric runes and
// returns the union of the resulting tokens.
func tokenSet(texts ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, text := range texts {
		for _, token := range tokenize(text) {
			set[token] = struct{}{}
		}
	}
	return set
}

func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	tokens := strings.Fields(builder.String())
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

func filterStopwords(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, isStop := lexicalStopwords[token]; isStop {
			continue
		}
		result = append(result, token)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// identifierTokens splits free-form query text on whitespace and keeps
// tokens that look like file paths or code identifiers: containing a slash,
// a dot, an underscore, or mixed case. Edge punctuation is trimmed.
func identifierTokens(query string) []string {
	var tokens []string
	for _, field := range strings.Fields(query) {
		token := strings.Trim(field, ".,;:!?\"'`()[]{}")
		if token == "" {
			continue
		}
		if looksLikeIdentifier(token) {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func looksLikeIdentifier(token string) bool {
	if strings.ContainsAny(token, "/._") {
		return true
	}
	var hasUpper, hasLower bool
	for _, r := range token {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	// camelCase reads as an identifier; a capitalized word does not, since
	// that is how English sentences start.
	return hasUpper && hasLower && !unicode.IsUpper([]rune(token)[0])
}
