package token

import "testing"

func TestGenerate(t *testing.T) {
	first, err := Generate(32)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := Generate(32)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first == second {
		t.Fatal("two generated tokens must differ")
	}
	if len(first) == 0 {
		t.Fatal("token must not be empty")
	}
}

func TestFingerprintIsDeterministic(t *testing.T) {
	a := Fingerprint("refresh-token-value")
	b := Fingerprint("refresh-token-value")
	if a != b {
		t.Fatal("fingerprinting the same token must be stable")
	}
	if a == "refresh-token-value" {
		t.Fatal("fingerprint must not equal the input")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}
