// Package strutil holds small string helpers shared by the CLI and the target registry.
package strutil

import (
	"strings"
)

// LevenshteinDistance returns the case-insensitive edit distance between s1 and s2.
func LevenshteinDistance(s1, s2 string) int {
	a := []rune(strings.ToLower(s1))
	b := []rune(strings.ToLower(s2))

	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Two rows instead of the full matrix
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				curr[j-1]+1,    // insertion
				prev[j]+1,      // deletion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// FindClosest returns the candidate nearest to input and its distance.
// The returned name is empty when nothing is within maxDistance; ties keep the
// earliest candidate.
func FindClosest(input string, candidates []string, maxDistance int) (string, int) {
	if len(candidates) == 0 {
		return "", -1
	}

	closest := ""
	minDistance := maxDistance + 1

	for _, candidate := range candidates {
		distance := LevenshteinDistance(input, candidate)
		if distance < minDistance {
			minDistance = distance
			closest = candidate
		}
	}

	if minDistance <= maxDistance {
		return closest, minDistance
	}

	return "", minDistance
}

// SuggestionMaxDistance is the edit distance used for "did you mean" hints.
const SuggestionMaxDistance = 2
