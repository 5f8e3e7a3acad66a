// Package sanitize turns caller-supplied names into strings that are safe to
// use as file names, mutex names and pipe names.
//
// The transformations are deterministic, so every process that sanitizes the
// same identity arrives at the same lock and endpoint name.
package sanitize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Component maps raw to a name made of [A-Za-z0-9._-].
// Other characters become '_'. When the mapping had to change anything, a short
// hash of the original is appended so that distinct identities such as "a/b"
// and "a_b" do not collide. Blank input yields fallback.
func Component(raw, fallback string) string {
	cleaned := SanitizeField(raw)
	if cleaned == "" {
		return fallback
	}

	var b strings.Builder
	b.Grow(len(cleaned))
	for _, r := range cleaned {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	normalized := strings.Trim(b.String(), "_-.")
	if normalized == "" {
		normalized = fallback
	}
	if normalized != raw {
		normalized += "-" + ShortHash(raw)
	}
	return normalized
}

// ShortHash returns the first 8 bytes of the SHA-256 of s, hex encoded.
func ShortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}

// removeInvisibleChars removes zero-width and other invisible Unicode characters
func removeInvisibleChars(s string) string {
	// List of invisible characters to remove
	invisibleChars := []string{
		"\u200B", // Zero-width space
		"\u200C", // Zero-width non-joiner
		"\u200D", // Zero-width joiner
		"\uFEFF", // Zero-width no-break space (BOM)
		"\u00AD", // Soft hyphen
		"\u2060", // Word joiner
		"\u180E", // Mongolian vowel separator
	}

	for _, char := range invisibleChars {
		s = strings.ReplaceAll(s, char, "")
	}

	return s
}

// SanitizeField strips invisible characters and surrounding whitespace from a
// configuration value.
func SanitizeField(field string) string {
	if field == "" {
		return field
	}

	field = removeInvisibleChars(field)

	return strings.TrimSpace(field)
}
