package clickid

import (
	"crypto/rand"
	"strings"
)

// Prefix makes click identifiers recognizable in partner dashboards and logs.
const Prefix = "CLID-"

const (
	suffixLen = 12
	alphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567" // base32, no lookalikes beyond 0/1
)

// Generate returns a fresh click identifier. It is pure apart from reading
// the system entropy source: no storage, no network, so it can be called on
// every redirect even when no partner integration exists.
//
// 12 base32 characters carry 60 bits of entropy, enough that collisions are
// negligible at any plausible click volume.
func Generate() string {
	buf := make([]byte, suffixLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic("clickid: entropy source unavailable: " + err.Error())
	}

	var b strings.Builder
	b.Grow(len(Prefix) + suffixLen)
	b.WriteString(Prefix)
	for _, c := range buf {
		b.WriteByte(alphabet[int(c)%len(alphabet)])
	}
	return b.String()
}

// IsValid reports whether s has the shape of a locally generated identifier.
// Matching is case-sensitive on purpose: inbound postbacks are normalized by
// the matcher, not here.
func IsValid(s string) bool {
	if !strings.HasPrefix(s, Prefix) {
		return false
	}
	suffix := s[len(Prefix):]
	if len(suffix) != suffixLen {
		return false
	}
	for i := 0; i < len(suffix); i++ {
		if !strings.ContainsRune(alphabet, rune(suffix[i])) {
			return false
		}
	}
	return true
}
