package score

import "strings"

// Component caps. The four components top out at 30+30+25+15 = 100.
const (
	maxConfidenceComponent = 30.0
	maxCountComponent      = 30.0
	maxTagComponent        = 25.0
	specialEventBonus      = 15.0
)

// specialKeywords mark events that are almost always worth surfacing,
// independent of classifier confidence. Matching is case-insensitive
// substring, so "Birthday Party" hits "birthday".
var specialKeywords = []string{
	"wedding",
	"birthday",
	"graduation",
	"anniversary",
	"christmas",
	"holiday",
	"concert",
	"festival",
	"party",
	"vacation",
	"travel",
	"trip",
}

// Relevance computes a 0..100 importance score for an album from its
// tags, the best classifier confidence, and its asset count. It is a
// pure function; an empty tag list reduces the score to the count
// component alone.
func Relevance(tags []string, topConfidence float64, assetCount int) float64 {
	s := min(maxConfidenceComponent, topConfidence*100)
	s += min(maxCountComponent, float64(assetCount)/2)
	s += min(maxTagComponent, float64(uniqueTagCount(tags))*8)
	if hasSpecialKeyword(tags) {
		s += specialEventBonus
	}

	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func uniqueTagCount(tags []string) int {
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		key := strings.ToLower(strings.TrimSpace(tag))
		if key != "" {
			seen[key] = true
		}
	}
	return len(seen)
}

func hasSpecialKeyword(tags []string) bool {
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		for _, kw := range specialKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
