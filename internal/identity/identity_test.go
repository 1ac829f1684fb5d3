package identity

import "testing"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain lowercase", "bobsmith", "bobsmith"},
		{"mixed case", "BobSmith", "bobsmith"},
		{"inner space dropped", "Bob Smith", "bobsmith"},
		{"surrounding whitespace", "  bob smith  ", "bobsmith"},
		{"allowed punctuation kept", "bob.smith_jr-2", "bob.smith_jr-2"},
		{"disallowed punctuation dropped", "bob!@#smith", "bobsmith"},
		{"unicode dropped", "bób smith", "bbsmith"},
		{"digits kept", "agent007", "agent007"},
		{"empty input", "", ""},
		{"only invalid characters", " !!! ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.raw); got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// The same stored profile must be reachable from every spelling of the
// identity, so canonicalization has to be idempotent and case/space
// insensitive.
func TestCanonicalize_Idempotent(t *testing.T) {
	inputs := []string{"Bob Smith", "bobsmith", "BOBSMITH", " bob  smith "}
	for _, in := range inputs {
		once := Canonicalize(in)
		if once != "bobsmith" {
			t.Errorf("Canonicalize(%q) = %q, want bobsmith", in, once)
		}
		if twice := Canonicalize(once); twice != once {
			t.Errorf("Canonicalize not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}
