// Package similarity provides the normalized string-similarity measure used
// for comparing transaction descriptions. The implementation is a Sorensen-Dice
// coefficient over character bigrams: symmetric, 1.0 for identical strings and
// 0.0 for strings sharing no bigrams.
package similarity

import "strings"

// Compare returns the Dice coefficient of the two strings in [0, 1].
// Whitespace is ignored so that formatting differences between bank feeds
// and statement exports do not depress the score.
func Compare(a, b string) float64 {
	a = stripWhitespace(a)
	b = stripWhitespace(b)

	if a == b {
		return 1.0
	}

	// Single characters carry no bigrams to compare.
	if len(a) < 2 || len(b) < 2 {
		return 0.0
	}

	bigrams := make(map[string]int)
	for i := 0; i < len(a)-1; i++ {
		bigrams[a[i:i+2]]++
	}

	intersection := 0
	for i := 0; i < len(b)-1; i++ {
		gram := b[i : i+2]
		if bigrams[gram] > 0 {
			bigrams[gram]--
			intersection++
		}
	}

	return 2.0 * float64(intersection) / float64(len(a)+len(b)-2)
}

// CompareFold compares the two strings case-insensitively
func CompareFold(a, b string) float64 {
	return Compare(strings.ToLower(a), strings.ToLower(b))
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
