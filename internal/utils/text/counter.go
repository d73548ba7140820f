// Package text provides small text processing helpers shared across claim
// validation and provider prompt construction.
package text

// CountRunes counts the Unicode characters (runes) in the given text.
// Claims arrive in many scripts, so limits are enforced on runes rather
// than bytes: a 2000-character Japanese claim is as acceptable as a
// 2000-character English one.
//
// Examples:
//
//	CountRunes("hello")     // 5
//	CountRunes("こんにちは")  // 5
//	CountRunes("")          // 0
func CountRunes(text string) int {
	return len([]rune(text))
}

// Truncate shortens text to at most max runes, appending an ellipsis when
// truncation occurred. Used when embedding long claims in log output.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
