package label

import (
	"strconv"
	"strings"
)

// FinalText joins a configured prefix and the user text with a single space.
// The prefix is dropped when text is empty so a bare prefix never prints.
func FinalText(prefix, text string) string {
	prefix = strings.TrimSpace(prefix)
	text = strings.TrimSpace(text)
	if prefix == "" || text == "" {
		return text
	}
	return prefix + " " + text
}

// Increment advances a label value for quick sequential printing.
// A trailing number is incremented ("Box 9" -> "Box 10", "A-07" -> "A-8").
// Text without a trailing number becomes "1" when a prefix is configured,
// otherwise " 2" is appended. Empty text without a prefix stays empty.
func Increment(text string, hasPrefix bool) string {
	text = strings.TrimSpace(text)
	if text == "" && !hasPrefix {
		return ""
	}
	head, digits := splitTrailingDigits(text)
	if digits != "" {
		return head + bump(digits)
	}
	if hasPrefix {
		return "1"
	}
	return text + " 2"
}

func splitTrailingDigits(s string) (string, string) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	return s[:i], s[i:]
}

func bump(digits string) string {
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return digits
	}
	return strconv.FormatUint(n+1, 10)
}
