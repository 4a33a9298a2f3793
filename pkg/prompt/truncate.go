package prompt

import "strings"

const ellipsis = "..."

// SafeTruncate shortens text to at most maxChars runes, preferring a word boundary.
// Text that already fits is returned unchanged.
func SafeTruncate(text string, maxChars int) (truncated string) {
	runes := []rune(text)
	if len(runes) <= maxChars {
		truncated = text
		return truncated
	}

	if maxChars < len(ellipsis) {
		truncated = string(runes[:max(maxChars, 0)])
		return truncated
	}

	cut := maxChars - len(ellipsis)

	head := string(runes[:cut])
	if lastSpace := strings.LastIndex(head, " "); lastSpace >= 0 {
		// LastIndex is a byte offset; compare in runes.
		if len([]rune(head[:lastSpace])) > maxChars/2 {
			head = head[:lastSpace]
		}
	}

	truncated = head + ellipsis
	return truncated
}
