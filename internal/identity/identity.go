// Package identity generates the per-session learner identifier.
//
// The identifier is a correlation token, not a credential: the backend uses
// it to key progress and lab ownership for the lifetime of one client
// session. It is never persisted, so a restart is a fresh learner.
package identity

import (
	"strings"

	"github.com/google/uuid"
)

// Prefix marks identifiers minted by this client.
const Prefix = "user_"

// NewSessionID returns a fresh opaque session identifier.
// Called exactly once per session; every other component receives the
// resulting value and must never mint a replacement mid-session.
func NewSessionID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return Prefix + raw[:12]
}

// IsSessionID reports whether s looks like an identifier minted by
// NewSessionID. Used by the stub backend to reject malformed requests.
func IsSessionID(s string) bool {
	if !strings.HasPrefix(s, Prefix) {
		return false
	}
	rest := s[len(Prefix):]
	if len(rest) != 12 {
		return false
	}
	for _, r := range rest {
		ok := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		if !ok {
			return false
		}
	}
	return true
}
