package provision

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// Project IDs are limited to 30 characters of lowercase letters, digits and
// hyphens, and must start with a letter.
const (
	maxProjectIDLen = 30
	projectIDInfix  = "-cmek-"
	randomSuffixLen = 8
)

// GeneratedProjectID returns a fresh test project ID of the form
// {prefix}-cmek-{random-hex}, never longer than 30 characters.
func GeneratedProjectID(prefix string) string {
	suffix := randomHex(randomSuffixLen)

	prefix = sanitizePrefix(prefix)
	maxPrefix := maxProjectIDLen - len(projectIDInfix) - len(suffix)
	if len(prefix) > maxPrefix {
		prefix = strings.TrimRight(prefix[:maxPrefix], "-")
	}

	return prefix + projectIDInfix + suffix
}

// sanitizePrefix lowercases the prefix and strips everything a project ID
// cannot carry. An unusable prefix falls back to "logtest".
func sanitizePrefix(prefix string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(prefix) {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9', r == '-':
			// Project IDs must start with a letter
			if b.Len() > 0 {
				b.WriteRune(r)
			}
		}
	}

	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "logtest"
	}
	return out
}

func randomHex(n int) string {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; keep the ID
		// deterministic rather than panicking in a CLI path.
		return strings.Repeat("0", n)
	}
	return hex.EncodeToString(buf)[:n]
}
