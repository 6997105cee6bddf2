// Package slug turns display text into anchor identifiers.
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Make returns the anchor identifier for text. The result is lowercase,
// uses single dashes between words and never begins or ends with a dash.
func Make(text string) string {
	if text == "" {
		return ""
	}

	folded := fold(text)

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingDash = true
	}

	return b.String()
}

// fold strips combining marks so "Résumé" and "Resume" share a slug.
func fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

// Unique hands out slugs that are unique within one document. The zero
// value is ready to use.
type Unique struct {
	seen map[string]int
}

// Next returns Make(text), suffixed with -1, -2, ... when the base slug has
// already been handed out. Empty text yields "section".
func (u *Unique) Next(text string) string {
	base := Make(text)
	if base == "" {
		base = "section"
	}
	return u.claim(base)
}

// Reserve marks id as taken without deriving it from text.
func (u *Unique) Reserve(id string) {
	if id == "" {
		return
	}
	u.claim(id)
}

func (u *Unique) claim(base string) string {
	if u.seen == nil {
		u.seen = make(map[string]int)
	}

	n, taken := u.seen[base]
	if !taken {
		u.seen[base] = 0
		return base
	}

	for {
		n++
		candidate := base + "-" + strconv.Itoa(n)
		if _, exists := u.seen[candidate]; !exists {
			u.seen[base] = n
			u.seen[candidate] = 0
			return candidate
		}
	}
}
