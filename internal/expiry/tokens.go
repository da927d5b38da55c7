package expiry

import "strings"

// ValidToken reports whether a stored device token is usable. Clients have
// been seen storing empty strings and the literals "null" and "undefined".
func ValidToken(token string) bool {
	switch strings.TrimSpace(token) {
	case "", "null", "undefined":
		return false
	}
	return true
}

// CleanTokens drops unusable tokens, keeping order and duplicates.
func CleanTokens(raw []string) []string {
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		if ValidToken(t) {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// maskToken keeps the tail of a token for logs.
func maskToken(token string) string {
	const keep = 8
	if len(token) <= keep {
		return token
	}
	return "…" + token[len(token)-keep:]
}
