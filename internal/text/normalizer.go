package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// cjkPunct maps ideographic punctuation to ASCII equivalents. Fullwidth forms
// (ＡＢＣ１２３， etc.) are already folded by NFKC; these code points are not.
var cjkPunct = strings.NewReplacer(
	"，", ",",
	"。", ".",
	"（", "(",
	"）", ")",
	"；", ";",
	"：", ":",
	"！", "!",
	"？", "?",
)

// Normalize cleans raw extracted text before chunking or triple extraction:
// compatibility normalization (fullwidth letters, digits and punctuation to
// halfwidth), removal of all whitespace including the ideographic space, and
// a fixed ideographic punctuation table. Blank input yields "".
func Normalize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	s = norm.NFKC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}

	return cjkPunct.Replace(b.String())
}
