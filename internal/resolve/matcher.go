package resolve

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultPatternCacheSize bounds the compiled word-boundary patterns kept
// by a WordMatcher.
const DefaultPatternCacheSize = 512

// WordMatcher tests whether a name occurs in text on word boundaries,
// case-insensitively. Compiled patterns are cached.
type WordMatcher struct {
	cache *lru.Cache[string, *regexp.Regexp]
}

// NewWordMatcher creates a matcher caching up to size patterns.
func NewWordMatcher(size int) *WordMatcher {
	if size <= 0 {
		size = DefaultPatternCacheSize
	}
	cache, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &WordMatcher{cache: cache}
}

// Pattern returns the compiled `\bname\b` pattern for name.
func (m *WordMatcher) Pattern(name string) *regexp.Regexp {
	if re, ok := m.cache.Get(name); ok {
		return re
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
	m.cache.Add(name, re)
	return re
}

// Match reports whether name occurs in text as a whole word.
func (m *WordMatcher) Match(name, text string) bool {
	if name == "" {
		return false
	}
	return m.Pattern(name).MatchString(text)
}

// MatchAny returns the first of names found in text, if any.
func (m *WordMatcher) MatchAny(names []string, text string) (string, bool) {
	for _, n := range names {
		if m.Match(n, text) {
			return n, true
		}
	}
	return "", false
}
