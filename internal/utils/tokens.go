package utils

import (
	"strings"
	"unicode/utf8"
)

// CountTokens approximates a BPE token count: one token per four characters or
// per three quarters of a word, whichever is larger.
func CountTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	byChars := (n + 3) / 4
	byWords := (len(strings.Fields(text))*4 + 2) / 3
	return max(byChars, byWords)
}
