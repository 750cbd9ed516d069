// Package secret implements the legacy reversible encoding applied to login
// secrets before they are compared with the credential store.
//
// The encoding is obfuscation, not encryption: a two-digit length prefix
// followed by every UTF-16 code unit shifted by a fixed offset. Stored values
// depend on the exact arithmetic, so it must not change.
package secret

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// shift is added to every UTF-16 code unit on encode and removed on decode.
const shift = 5

// MaxLength is the longest secret, in UTF-16 code units, whose length fits
// the two-digit prefix.
const MaxLength = 99

// Encode trims s and returns its encoded form, or "" for an empty secret.
// The prefix counts UTF-16 code units, so a character outside the BMP
// counts twice and each of its surrogates is shifted separately.
// Secrets longer than MaxLength produce a prefix wider than two digits; see
// EncodedLengthOverflows. Secrets whose shifted units are not valid UTF-16
// cannot be represented exactly; see Lossy.
func Encode(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}

	units := utf16.Encode([]rune(trimmed))
	shifted := make([]uint16, len(units))
	for i, u := range units {
		shifted[i] = u + shift
	}
	return fmt.Sprintf("%02d", len(units)) + string(utf16.Decode(shifted))
}

// Decode reverses Encode. Values shorter than the prefix decode to "".
// The prefix is skipped, not trusted: everything after it is shifted back.
func Decode(encoded string) string {
	units := utf16.Encode([]rune(encoded))
	if len(units) < 2 {
		return ""
	}

	unshifted := make([]uint16, 0, len(units)-2)
	for _, u := range units[2:] {
		unshifted = append(unshifted, u-shift)
	}
	return string(utf16.Decode(unshifted))
}

// EncodedLengthOverflows reports whether the trimmed secret is too long for the
// two-digit length prefix. Such secrets still encode, but the result cannot
// be decoded back.
func EncodedLengthOverflows(s string) bool {
	return len(utf16.Encode([]rune(strings.TrimSpace(s)))) > MaxLength
}

// Lossy reports whether shifting the trimmed secret produces a lone
// surrogate or otherwise unpaired UTF-16 sequence. Go strings cannot hold
// those, so Encode substitutes U+FFFD and the value neither matches the
// stored legacy form nor decodes back.
func Lossy(s string) bool {
	units := utf16.Encode([]rune(strings.TrimSpace(s)))
	for i := 0; i < len(units); i++ {
		u := units[i] + shift
		switch {
		case utf16.IsSurrogate(rune(u)) && u < 0xdc00:
			if i+1 >= len(units) {
				return true
			}
			next := units[i+1] + shift
			if r := utf16.DecodeRune(rune(u), rune(next)); r == utf8.RuneError {
				return true
			}
			i++
		case utf16.IsSurrogate(rune(u)):
			return true
		}
	}
	return false
}
