package usecase

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NameNormalizer turns a display name into the lossy key used to match
// people across sources. Keys are never shown to users.
type NameNormalizer struct {
	// KeepHyphens treats "-" as part of a word, so "Jean-Pierre" stays one
	// token. When false a hyphen separates tokens like a space does.
	KeepHyphens bool
}

// NewNameNormalizer creates a normalizer with the given hyphen policy.
func NewNameNormalizer(keepHyphens bool) *NameNormalizer {
	return &NameNormalizer{KeepHyphens: keepHyphens}
}

// Normalize lowercases name, folds accents, strips everything but a-z, spaces
// (and hyphens when kept), collapses whitespace and reduces names of more than
// two tokens to "first last". The remaining tokens are sorted so "Doe Jane"
// and "Jane Doe" share a key. An empty result means the row cannot be matched.
func (n *NameNormalizer) Normalize(name string) string {
	if name == "" {
		return ""
	}

	folded, _, err := transform.String(foldAccents(), name)
	if err != nil {
		folded = name
	}
	folded = cases.Lower(language.Und).String(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r == '-' && n.KeepHyphens:
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	parts := strings.Fields(b.String())
	if n.KeepHyphens {
		parts = trimHyphens(parts)
	}
	if len(parts) > 2 {
		parts = []string{parts[0], parts[len(parts)-1]}
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

// trimHyphens drops dangling hyphens ("Doe -" or "-Jane") and tokens made only of them.
func trimHyphens(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p = strings.Trim(p, "-"); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// foldAccents decomposes runes and drops combining marks: "é" becomes "e".
// Transformers are stateful, so a fresh chain is built per call.
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
