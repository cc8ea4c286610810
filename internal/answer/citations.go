package answer

import (
	"regexp"
	"strings"
)

// citationPattern matches hex strings long enough to plausibly be commit
// shas (abbreviated or full) in generated text.
var citationPattern = regexp.MustCompile(`\b[0-9a-f]{7,40}\b`)

// VerifyCitations extracts commit shas from generated text and keeps only
// those that resolve to exactly one bundle sha, expanded to its full form.
// Citations the model fabricated, or that fall outside the supplied bundle,
// are dropped rather than trusted. The result preserves first-mention order
// without duplicates and is never nil.
func VerifyCitations(text string, bundleSHAs []string) []string {
	cited := make([]string, 0, len(bundleSHAs))
	seen := make(map[string]bool, len(bundleSHAs))

	for _, candidate := range citationPattern.FindAllString(strings.ToLower(text), -1) {
		sha, ok := resolveCitation(candidate, bundleSHAs)
		if !ok || seen[sha] {
			continue
		}
		seen[sha] = true
		cited = append(cited, sha)
	}
	return cited
}

// resolveCitation matches a candidate against the bundle: exact sha, or an
// unambiguous prefix of exactly one sha.
func resolveCitation(candidate string, bundleSHAs []string) (string, bool) {
	var match string
	for _, sha := range bundleSHAs {
		if sha == candidate {
			return sha, true
		}
		if strings.HasPrefix(sha, candidate) {
			if match != "" {
				return "", false // ambiguous prefix
			}
			match = sha
		}
	}
	return match, match != ""
}
