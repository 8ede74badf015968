package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldLetters covers letters that carry no combining mark to strip, so NFD
// decomposition alone would leave them in place.
var foldLetters = strings.NewReplacer(
	"ı", "i",
	"ß", "ss",
	"æ", "ae",
	"œ", "oe",
	"ø", "o",
	"đ", "d",
	"ł", "l",
)

// Slugify turns a post title into its URL slug.
//
// The title is lowercased and decomposed (NFD) so that accents become separate
// combining marks, which are then dropped: "Güzel Şehir" → "guzel sehir".
// Every run of characters outside [a-z0-9] becomes a single "-" and leading or
// trailing dashes are trimmed. A title with no usable characters yields "".
func Slugify(title string) string {
	lower := foldLetters.Replace(strings.ToLower(title))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, lower)
	if err != nil {
		folded = lower
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
