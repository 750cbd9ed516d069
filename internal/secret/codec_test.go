package secret

import (
	"strings"
	"testing"
	"unicode/utf16"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{name: "empty", secret: "", want: ""},
		{name: "blank", secret: "   ", want: ""},
		{name: "simple", secret: "abc", want: "03fgh"},
		{name: "trims surrounding space", secret: "  wrk \t", want: "03|w"},
		{name: "digits", secret: "1234567890", want: "106789:;<=>5"},
		{name: "non-ascii", secret: "пароль", want: "06" + string([]rune{'п' + 5, 'а' + 5, 'р' + 5, 'о' + 5, 'л' + 5, 'ь' + 5})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.secret); got != tt.want {
				t.Errorf("Encode(%q) = %q, want %q", tt.secret, got, tt.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		want    string
	}{
		{name: "empty", encoded: "", want: ""},
		{name: "shorter than prefix", encoded: "0", want: ""},
		{name: "prefix only", encoded: "00", want: ""},
		{name: "simple", encoded: "03fgh", want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decode(tt.encoded); got != tt.want {
				t.Errorf("Decode(%q) = %q, want %q", tt.encoded, got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	secrets := []string{
		"a",
		"all",
		" padded secret ",
		"with spaces inside",
		"!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~",
		strings.Repeat("x", MaxLength),
	}

	for _, s := range secrets {
		if got := Decode(Encode(s)); got != strings.TrimSpace(s) {
			t.Errorf("Decode(Encode(%q)) = %q, want %q", s, got, strings.TrimSpace(s))
		}
	}
}

func TestEncodedLengthOverflows(t *testing.T) {
	if EncodedLengthOverflows(strings.Repeat("x", MaxLength)) {
		t.Errorf("EncodedLengthOverflows() = true for %d characters, want false", MaxLength)
	}

	long := strings.Repeat("x", MaxLength+1)
	if !EncodedLengthOverflows(long) {
		t.Errorf("EncodedLengthOverflows() = false for %d characters, want true", MaxLength+1)
	}

	// The prefix grows to three digits and decoding no longer round-trips.
	encoded := Encode(long)
	if !strings.HasPrefix(encoded, "100") {
		t.Errorf("Encode() prefix = %q, want %q", encoded[:3], "100")
	}
	if Decode(encoded) == long {
		t.Error("Decode(Encode()) round-tripped an overflowing secret")
	}
}

func TestEncode_UTF16Units(t *testing.T) {
	// U+1F600 is the surrogate pair D83D DE00; each half shifts on its own.
	got := Encode("😀x")
	want := "03" + string(utf16.Decode([]uint16{0xd83d + shift, 0xde00 + shift, 'x' + shift}))
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
	if Decode(got) != "😀x" {
		t.Errorf("Decode(Encode()) = %q, want %q", Decode(got), "😀x")
	}

	// U+FFFF wraps to U+0004 like the 16-bit legacy arithmetic.
	if got := Encode("\uffff"); got != "01\u0004" {
		t.Errorf("Encode(U+FFFF) = %q, want %q", got, "01\u0004")
	}
}

func TestLossy(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   bool
	}{
		{name: "ascii", secret: "correct horse", want: false},
		{name: "cyrillic", secret: "пароль", want: false},
		{name: "emoji", secret: "😀x", want: false},
		{name: "shifts into high surrogate", secret: "\ud7fb", want: true},
		{name: "trailing unpaired surrogate", secret: "a\ud7ff", want: true},
		{name: "high half leaves surrogate range", secret: "\U0010fc00", want: true},
		{name: "low half leaves surrogate range", secret: "\U0001f7ff", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lossy(tt.secret); got != tt.want {
				t.Errorf("Lossy(%q) = %v, want %v", tt.secret, got, tt.want)
			}
			if !tt.want {
				if got := Decode(Encode(tt.secret)); got != tt.secret {
					t.Errorf("Decode(Encode(%q)) = %q", tt.secret, got)
				}
			}
		})
	}

	// Lossy secrets encode to the replacement character.
	if got := Encode("\ud7fb"); got != "01\ufffd" {
		t.Errorf("Encode(U+D7FB) = %q, want %q", got, "01\ufffd")
	}
}
