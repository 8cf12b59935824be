package identity

import "testing"

func TestNewSessionID(t *testing.T) {
	id := NewSessionID()
	if !IsSessionID(id) {
		t.Fatalf("generated id %q does not validate", id)
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestIsSessionID(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"user_0123456789ab", true},
		{"user_0123456789AB", false}, // uppercase hex not minted
		{"user_0123456789", false},   // too short
		{"anon_0123456789ab", false}, // wrong prefix
		{"", false},
	}
	for _, c := range cases {
		if got := IsSessionID(c.in); got != c.want {
			t.Errorf("IsSessionID(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
