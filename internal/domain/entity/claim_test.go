package entity

import (
	"errors"
	"strings"
	"testing"
)

func TestNewClaim_Valid(t *testing.T) {
	c, err := NewClaim("The Eiffel Tower is in Paris.", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Text != "The Eiffel Tower is in Paris." {
		t.Errorf("claim text not preserved: %q", c.Text)
	}
}

func TestNewClaim_Empty(t *testing.T) {
	_, err := NewClaim("   ", nil)
	if err == nil {
		t.Fatal("expected error for empty claim")
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewClaim_TooLong(t *testing.T) {
	_, err := NewClaim(strings.Repeat("a", MaxClaimLength+1), nil)
	if err == nil {
		t.Fatal("expected error for oversized claim")
	}
}

func TestClaim_Normalized(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "The SKY is Blue", "the sky is blue"},
		{"whitespace collapsed", "  the\tsky   is\nblue  ", "the sky is blue"},
		{"already normal", "the sky is blue", "the sky is blue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Claim{Text: tt.in}
			if got := c.Normalized(); got != tt.want {
				t.Errorf("Normalized() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClaim_Fingerprint_Stable(t *testing.T) {
	a := Claim{Text: "Water boils at 100C", Params: map[string]string{"lang": "en", "region": "eu"}}
	b := Claim{Text: "  water BOILS at 100c ", Params: map[string]string{"region": "eu", "lang": "en"}}

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("equivalent claims should share a fingerprint")
	}
}

func TestClaim_Fingerprint_ParamsMatter(t *testing.T) {
	a := Claim{Text: "water boils at 100c"}
	b := Claim{Text: "water boils at 100c", Params: map[string]string{"lang": "de"}}

	if a.Fingerprint() == b.Fingerprint() {
		t.Error("different params should produce different fingerprints")
	}
}
