// Package slug derives URL-safe article identifiers from listing titles.
//
// Titles arrive in Ukrainian (sometimes mixed with Czech or Russian), so
// non-ASCII letters are transliterated through a fixed character map before
// the usual lowercase/hyphenate/trim treatment. A suffix derived from the
// source post's unique code is appended so two identical titles never
// collapse to the same slug.
package slug

import (
	"strings"
)

// maxBaseLen caps the transliterated portion of a slug, before the
// disambiguating suffix is appended.
const maxBaseLen = 80

// translit maps Cyrillic (Ukrainian and Russian) and Czech/Slovak
// accented letters to ASCII. Unmapped runes fall through to the
// hyphen-collapse step.
var translit = map[rune]string{
	// Ukrainian / Russian Cyrillic.
	'а': "a", 'б': "b", 'в': "v", 'г': "h", 'ґ': "g", 'д': "d",
	'е': "e", 'є': "ie", 'ж': "zh", 'з': "z", 'и': "y", 'і': "i",
	'ї': "i", 'й': "i", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch",
	'ь': "", 'ю': "iu", 'я': "ia", 'ъ': "", 'ы': "y", 'э': "e",
	'ё': "e",
	// Czech / Slovak diacritics.
	'á': "a", 'č': "c", 'ď': "d", 'é': "e", 'ě': "e", 'í': "i",
	'ň': "n", 'ó': "o", 'ř': "r", 'š': "s", 'ť': "t", 'ú': "u",
	'ů': "u", 'ý': "y", 'ž': "z", 'ľ': "l", 'ĺ': "l", 'ŕ': "r",
	'ä': "a", 'ô': "o",
}

// Make builds a slug from a title and the source post's unique code.
// The result contains only [a-z0-9-], has no leading or trailing hyphen,
// and always ends in the lowercased code.
func Make(title, code string) string {
	base := Slugify(title)
	suffix := Slugify(code)

	if base == "" {
		return suffix
	}
	if suffix == "" {
		return base
	}
	return base + "-" + suffix
}

// Slugify transliterates and normalizes a single string without appending
// a suffix. Exposed separately so callers can slugify the code part with
// the same rules.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			if mapped, ok := translit[r]; ok {
				b.WriteString(mapped)
			} else {
				// Unmapped runes (punctuation, spaces, foreign letters)
				// become separators rather than leaking into the slug.
				b.WriteByte('-')
			}
		}
	}

	collapsed := collapseHyphens(b.String())
	if len(collapsed) > maxBaseLen {
		collapsed = strings.Trim(collapsed[:maxBaseLen], "-")
	}
	return collapsed
}

func collapseHyphens(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevHyphen := true // Swallows leading hyphens.
	for _, r := range s {
		if r == '-' {
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
			continue
		}
		b.WriteRune(r)
		prevHyphen = false
	}
	return strings.TrimRight(b.String(), "-")
}
