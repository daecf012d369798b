package search

import "strings"

// parseLeadingInt reads an optional sign followed by the run of ASCII digits
// at the start of s, ignoring whatever follows. ok is false when s has no
// leading digit. The value is a float64 so long digit runs cannot overflow.
func parseLeadingInt(s string) (float64, bool) {
	i := 0
	negative := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		negative = s[i] == '-'
		i++
	}

	start := i
	n := 0.0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		n = n*10 + float64(s[i]-'0')
		i++
	}
	if i == start {
		return 0, false
	}
	if negative {
		n = -n
	}
	return n, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func stripChars(s, cutset string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(cutset, r) {
			return -1
		}
		return r
	}, s)
}
