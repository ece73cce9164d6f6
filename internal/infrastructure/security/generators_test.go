package security

import "testing"

func TestGenerateSecureKeyLength(t *testing.T) {
	key, err := GenerateSecureKey(64)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	if len(key) != 64 {
		t.Fatalf("key length = %d, want 64", len(key))
	}

	other, err := GenerateSecureKey(64)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	if key == other {
		t.Fatal("keys must not repeat")
	}
}

func TestGenerateSecureTokenIsURLSafe(t *testing.T) {
	token, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '=':
		default:
			t.Fatalf("unexpected character %q in token", r)
		}
	}
}
