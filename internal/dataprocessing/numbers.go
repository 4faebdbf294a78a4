package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount reads a money cell. It parses the longest numeric prefix
// ("1500.50 INR" is 1500.5) and returns 0 for anything that is not a finite,
// non-negative number.
func ParseAmount(s string) float64 {
	v := ParseNumber(s)
	if v < 0 {
		return 0
	}
	return v
}

// ParseNumber is ParseAmount without the sign restriction. Used for the
// running balance cells, which may go negative.
func ParseNumber(s string) float64 {
	v, ok := parseLeadingFloat(s)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// parseLeadingFloat parses the longest prefix of s that forms a decimal
// number after leading whitespace.
func parseLeadingFloat(s string) (float64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}

	digits := 0
	for end < len(s) && isDigit(s[end]) {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}

	// Exponent only counts when followed by at least one digit
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		if exp < len(s) && isDigit(s[exp]) {
			for exp < len(s) && isDigit(s[exp]) {
				exp++
			}
			end = exp
		}
	}

	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		// Out of range: ParseFloat still returns ±Inf
		return v, false
	}
	return v, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
