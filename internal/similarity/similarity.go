// Package similarity computes title-match confidence between a query string
// and a candidate title. Scores are in [0,1] and deterministic; the package
// performs no I/O.
package similarity

import (
	"strings"
	"unicode"
)

// Normalize lowercases s, strips all non-alphanumeric/non-space runes, and
// collapses runs of whitespace into single spaces.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			lastSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}

// Score returns a 0-1 match confidence between query and candidate.
//
// Equal normalized strings score 1.0. If one normalized string contains the
// other, the score is len(shorter)/len(longer) * 0.95, which rewards a
// subtitle-qualified title fully containing a shorter query while staying
// below an exact match. Otherwise the score is derived from Levenshtein
// distance: max(0, 1 - d/max(len1,len2)).
func Score(query, candidate string) float64 {
	a := Normalize(query)
	b := Normalize(candidate)

	if a == b {
		return 1.0
	}

	ra := []rune(a)
	rb := []rune(b)
	la := len(ra)
	lb := len(rb)

	if la == 0 || lb == 0 {
		return 0
	}

	if strings.Contains(a, b) || strings.Contains(b, a) {
		shorter, longer := la, lb
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		return float64(shorter) / float64(longer) * 0.95
	}

	d := levenshtein(ra, rb)
	longer := la
	if lb > longer {
		longer = lb
	}

	score := 1.0 - float64(d)/float64(longer)
	if score < 0 {
		return 0
	}
	return score
}

// levenshtein computes the classic edit distance using two rolling rows.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost

			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
