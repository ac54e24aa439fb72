package util

import (
	"regexp"
	"strings"
	"testing"
)

func TestGenerateSecretFormat(t *testing.T) {
	re := regexp.MustCompile(`^dandi-prod-[A-Za-z0-9]{24}$`)

	for i := 0; i < 50; i++ {
		s, err := GenerateSecret("prod")
		if err != nil {
			t.Fatalf("generate secret: %v", err)
		}
		if !re.MatchString(s) {
			t.Fatalf("unexpected secret format: %q", s)
		}
	}
}

func TestGenerateSecretRejectsUnknownType(t *testing.T) {
	if _, err := GenerateSecret("staging"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestSanitizeSecret(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{name: "trimmed", raw: "  dandi-dev-abc \n", want: "dandi-dev-abc", ok: true},
		{name: "empty", raw: "", want: "", ok: false},
		{name: "whitespace", raw: " \t ", want: "", ok: false},
		{name: "exactly 100", raw: strings.Repeat("a", 100), want: strings.Repeat("a", 100), ok: true},
		{name: "101 after trim", raw: " " + strings.Repeat("a", 101) + " ", want: strings.Repeat("a", 101), ok: false},
		{name: "byte order mark trimmed", raw: "\uFEFFdandi-dev-abc\u00A0", want: "dandi-dev-abc", ok: true},
		{name: "next line kept", raw: "dandi-dev-abc\u0085", want: "dandi-dev-abc\u0085", ok: true},
		{name: "100 code units with astral", raw: strings.Repeat("a", 98) + "😀", want: strings.Repeat("a", 98) + "😀", ok: true},
		{name: "101 code units with astral", raw: strings.Repeat("a", 99) + "😀", want: strings.Repeat("a", 99) + "😀", ok: false},
		{name: "100 non-ascii runes", raw: strings.Repeat("é", 100), want: strings.Repeat("é", 100), ok: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := SanitizeSecret(tc.raw)
			if got != tc.want || ok != tc.ok {
				t.Fatalf("SanitizeSecret(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.ok)
			}
		})
	}
}
