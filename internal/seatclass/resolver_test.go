package seatclass

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOf(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"SC-A1", Sofa},
		{"SC-B12", Sofa},
		{"PL-3", Platinum},
		{"P-7", Premium},
		{"G-10", Gold},
		{"S-1", Silver},
		{"X-9", Default},  // unknown prefix is lenient
		{"A1", Default},   // no separator at all
		{"", Default},     // empty label
		{"SCX-1", Default}, // code must be the whole segment
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Of(tc.label), "label %q", tc.label)
	}
}

// Longer codes must win over their one-letter prefixes: SC before S,
// PL before P.
func TestOfPrefixPriority(t *testing.T) {
	assert.Equal(t, Sofa, Of("SC-1"))
	assert.Equal(t, Silver, Of("S-1"))
	assert.Equal(t, Platinum, Of("PL-1"))
	assert.Equal(t, Premium, Of("P-1"))
}

func TestOfDeterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.Equal(t, Sofa, Of("SC-A1"))
	}
}

func TestOfAll(t *testing.T) {
	got := OfAll([]string{"SC-A1", "G-2", "B1"})
	assert.Equal(t, map[string]string{
		"SC-A1": Sofa,
		"G-2":   Gold,
		"B1":    Default,
	}, got)
}
