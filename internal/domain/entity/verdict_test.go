package entity

import (
	"testing"
	"time"
)

func TestVerdict_Valid(t *testing.T) {
	for _, v := range []Verdict{VerdictTrue, VerdictFalse, VerdictMisleading, VerdictUnverifiable, VerdictError} {
		if !v.Valid() {
			t.Errorf("expected %s to be valid", v)
		}
	}
	if Verdict("MAYBE").Valid() {
		t.Error("unknown verdict should not be valid")
	}
}

func TestVerdict_Votable(t *testing.T) {
	tests := []struct {
		verdict Verdict
		want    bool
	}{
		{VerdictTrue, true},
		{VerdictFalse, true},
		{VerdictMisleading, true},
		{VerdictUnverifiable, false},
		{VerdictError, false},
	}

	for _, tt := range tests {
		if got := tt.verdict.Votable(); got != tt.want {
			t.Errorf("%s.Votable() = %v, want %v", tt.verdict, got, tt.want)
		}
	}
}

func TestErrorResult(t *testing.T) {
	r := ErrorResult("snopes", "connection refused", 120*time.Millisecond)

	if r.Verdict != VerdictError {
		t.Errorf("expected ERROR verdict, got %s", r.Verdict)
	}
	if r.Confidence != 0 {
		t.Errorf("expected confidence 0, got %f", r.Confidence)
	}
	if r.Provider != "snopes" {
		t.Errorf("expected provider snopes, got %s", r.Provider)
	}
}
