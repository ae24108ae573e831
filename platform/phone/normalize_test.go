package phone

import "testing"

func TestNormalizeE164_USNumber(t *testing.T) {
	got := NormalizeE164("(415) 555-2671")
	if got != "+14155552671" {
		t.Fatalf("expected +14155552671, got %q", got)
	}
}

func TestNormalizeE164_AlreadyE164(t *testing.T) {
	got := NormalizeE164("+14155552671")
	if got != "+14155552671" {
		t.Fatalf("expected +14155552671, got %q", got)
	}
}

func TestNormalizeE164_InvalidReturnsTrimmedInput(t *testing.T) {
	got := NormalizeE164("  not-a-number ")
	if got != "not-a-number" {
		t.Fatalf("expected trimmed input back, got %q", got)
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("+14155552671") {
		t.Fatal("expected valid number")
	}
	if IsValid("12") {
		t.Fatal("expected invalid number")
	}
	if IsValid("") {
		t.Fatal("expected empty input to be invalid")
	}
}
