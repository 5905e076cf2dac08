// Package streets canonicalizes street names: whole-token abbreviation
// expansion followed by title-casing.
package streets

import (
	"strings"
	"unicode"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultCacheSize is the number of distinct street strings memoised by an
// Expander when no size is given.
const DefaultCacheSize = 4096

// Expander expands street names and memoises the results. Address files
// repeat the same street thousands of times, so most lookups hit the cache.
// Safe for concurrent use.
type Expander struct {
	cache *lru.Cache[string, string]
}

// NewExpander creates an Expander holding up to size results.
func NewExpander(size int) (*Expander, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &Expander{cache: cache}, nil
}

// Expand returns the canonical form of s.
func (e *Expander) Expand(s string) string {
	if e == nil || e.cache == nil {
		return Expand(s)
	}
	if v, ok := e.cache.Get(s); ok {
		return v
	}
	v := Expand(s)
	e.cache.Add(s, v)
	return v
}

// Expand expands directional and street-type abbreviations in s and
// title-cases every token. Matching is per whole token and ignores case and
// a trailing period, so "OAK DR." becomes "Oak Drive" while "DRIVEWAY" is
// left alone. Runs of whitespace collapse to a single space.
func Expand(s string) string {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return ""
	}

	title := cases.Title(language.Und)
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		key := strings.ToLower(strings.TrimSuffix(tok, "."))

		// "ST JAMES ST": a leading St followed by more words is Saint.
		if key == "st" && i == 0 && len(tokens) > 1 {
			out[i] = "Saint"
			continue
		}
		if full, ok := abbreviations[key]; ok {
			out[i] = full
			continue
		}
		out[i] = titleToken(title, tok)
	}
	return strings.Join(out, " ")
}

// titleToken title-cases one token. Ordinals keep lower-case suffixes
// ("3RD" is "3rd") and one-letter prefixes before an apostrophe keep the
// next letter upper-case ("O'NEIL" is "O'Neil").
func titleToken(title cases.Caser, tok string) string {
	digits := strings.IndexFunc(tok, func(r rune) bool { return !unicode.IsDigit(r) })
	if digits > 0 {
		return tok[:digits] + strings.ToLower(tok[digits:])
	}

	s := title.String(tok)
	if len(s) > 2 && s[1] == '\'' {
		r, size := utf8.DecodeRuneInString(s[2:])
		s = s[:2] + string(unicode.ToUpper(r)) + s[2+size:]
	}
	return s
}
