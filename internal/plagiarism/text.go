package plagiarism

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ContentHash is the hex SHA-256 digest used for exact-copy detection
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Normalize lowercases text, folds accents and reduces everything that is
// not a letter or digit to single spaces.
func Normalize(text string) string {
	decomposed := norm.NFKD.String(text)

	var b strings.Builder
	b.Grow(len(decomposed))
	pendingSpace := false

	for _, r := range decomposed {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.Is(unicode.Mn, r):
			// accents split off by NFKD
		default:
			pendingSpace = true
		}
	}
	return b.String()
}

// Tokenize splits normalized text into words
func Tokenize(normalized string) []string {
	return strings.Fields(normalized)
}
