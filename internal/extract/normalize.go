package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = runes.Remove(runes.In(unicode.Mn))

var reSpaces = regexp.MustCompile(`\s+`)

// Normalize folds diacritics to their base letters and lower-cases the text.
// Digits, punctuation and whitespace are left untouched.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	t := transform.Chain(norm.NFD, stripMarks, norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		// transform only fails on malformed input; fall back to the rune-wise fold
		return Fold(s).Canonical
	}
	return strings.ToLower(out)
}

// CollapseSpaces trims and squeezes whitespace runs to one space. It changes
// offsets, so extractors only apply it to captured values.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// Folded is a canonical (accent-free, lower-case) view of a text that can
// map byte offsets back onto the original.
type Folded struct {
	Original  string
	Canonical string
	// offsets[i] is the byte offset in Original of the rune that produced
	// Canonical[i]; offsets[len(Canonical)] == len(Original).
	offsets []int
}

// Fold builds the canonical view rune by rune so that every canonical byte
// keeps a link to its source position.
func Fold(s string) Folded {
	var b strings.Builder
	b.Grow(len(s))
	offsets := make([]int, 0, len(s)+1)

	for i, r := range s {
		if r == utf8.RuneError {
			b.WriteRune(r)
			for n := utf8.RuneLen(r); n > 0; n-- {
				offsets = append(offsets, i)
			}
			continue
		}
		folded := foldRune(r)
		b.WriteString(folded)
		for n := len(folded); n > 0; n-- {
			offsets = append(offsets, i)
		}
	}
	offsets = append(offsets, len(s))
	return Folded{Original: s, Canonical: b.String(), offsets: offsets}
}

// OriginalOffset maps a byte offset in Canonical to the matching offset in Original.
func (f Folded) OriginalOffset(i int) int {
	switch {
	case i <= 0:
		return 0
	case i >= len(f.offsets):
		return len(f.Original)
	default:
		return f.offsets[i]
	}
}

func foldRune(r rune) string {
	if r < utf8.RuneSelf {
		return string(unicode.ToLower(r))
	}
	if unicode.Is(unicode.Mn, r) {
		return ""
	}
	var out []rune
	for _, d := range norm.NFD.String(string(r)) {
		if !unicode.Is(unicode.Mn, d) {
			out = append(out, unicode.ToLower(d))
		}
	}
	return string(out)
}
