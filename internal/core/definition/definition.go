// Package definition contains the pure logic for canonicalizing and hashing
// object definitions. This is part of the Functional Core - no I/O, only
// pure functions.
//
// Hash equality is the comparison primitive for the whole merge engine:
// two definitions are "the same" if and only if their hashes match. The
// merge engine never re-diffs raw definition strings.
package definition

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// DefaultHashVersion is the current hash format version. It is folded into
// every digest so a future change to the normalization rules can coexist
// with hashes computed under the old rules.
const DefaultHashVersion = "1"

// Normalize canonicalizes a definition string: runs of whitespace collapse
// to a single space, leading/trailing whitespace is trimmed, and a single
// trailing statement separator is stripped.
func Normalize(def string) string {
	var b strings.Builder
	b.Grow(len(def))

	inSpace := false
	for _, r := range def {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}

	out := b.String()
	out = strings.TrimSuffix(out, ";")
	return strings.TrimSpace(out)
}

// Hash computes the deterministic content hash of a definition under the
// given hash format version. The digest covers the lowercased normalized
// form, so definitions differing only in whitespace or keyword case hash
// identically on every branch.
func Hash(def, version string) string {
	normalized := strings.ToLower(Normalize(def))
	sum := sha256.Sum256([]byte(version + ":" + normalized))
	return hex.EncodeToString(sum[:])
}

// HashDefault computes the content hash under DefaultHashVersion.
func HashDefault(def string) string {
	return Hash(def, DefaultHashVersion)
}

// Equal reports whether two definitions are logically identical under the
// current hash format version.
func Equal(a, b string) bool {
	return HashDefault(a) == HashDefault(b)
}
