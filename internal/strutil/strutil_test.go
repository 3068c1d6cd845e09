package strutil

import (
	"testing"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		s1       string
		s2       string
		expected int
	}{
		{
			name:     "identical strings",
			s1:       "TEST",
			s2:       "TEST",
			expected: 0,
		},
		{
			name:     "case insensitive",
			s1:       "test",
			s2:       "TEST",
			expected: 0,
		},
		{
			name:     "one character insertion",
			s1:       "TST",
			s2:       "TEST",
			expected: 1,
		},
		{
			name:     "one character deletion",
			s1:       "TESTT",
			s2:       "TEST",
			expected: 1,
		},
		{
			name:     "one character substitution",
			s1:       "TEXT",
			s2:       "TEST",
			expected: 1,
		},
		{
			name:     "suffix added",
			s1:       "TESTAfter",
			s2:       "TEST",
			expected: 5,
		},
		{
			name:     "empty string",
			s1:       "",
			s2:       "run",
			expected: 3,
		},
		{
			name:     "both empty",
			s1:       "",
			s2:       "",
			expected: 0,
		},
		{
			name:     "multibyte runes count once",
			s1:       "café",
			s2:       "cafe",
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			distance := LevenshteinDistance(tt.s1, tt.s2)
			if distance != tt.expected {
				t.Errorf("LevenshteinDistance(%q, %q) = %d; want %d",
					tt.s1, tt.s2, distance, tt.expected)
			}
		})
	}
}

func TestFindClosest(t *testing.T) {
	candidates := []string{"TEST", "TESTAfter", "staging"}

	tests := []struct {
		name        string
		input       string
		maxDistance int
		expected    string
	}{
		{
			name:        "exact match",
			input:       "TEST",
			maxDistance: 2,
			expected:    "TEST",
		},
		{
			name:        "typo",
			input:       "TETS",
			maxDistance: 2,
			expected:    "TEST",
		},
		{
			name:        "longer target",
			input:       "TESTAftr",
			maxDistance: 2,
			expected:    "TESTAfter",
		},
		{
			name:        "lowercase input",
			input:       "stagin",
			maxDistance: 2,
			expected:    "staging",
		},
		{
			name:        "too far",
			input:       "production",
			maxDistance: 2,
			expected:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := FindClosest(tt.input, candidates, tt.maxDistance)
			if got != tt.expected {
				t.Errorf("FindClosest(%q) = %q; want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFindClosestNoCandidates(t *testing.T) {
	got, distance := FindClosest("TEST", nil, 2)
	if got != "" || distance != -1 {
		t.Errorf("FindClosest with no candidates = (%q, %d); want (\"\", -1)", got, distance)
	}
}
