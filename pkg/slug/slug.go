package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from the given name. Accented letters
// are folded to ASCII ("Relógio Clássico" becomes "relogio-classico").
func Generate(name string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		strings.ToLower(strings.TrimSpace(name)),
	)
	if err != nil {
		folded = strings.ToLower(name)
	}

	return strings.Trim(nonAlnum.ReplaceAllString(folded, "-"), "-")
}
