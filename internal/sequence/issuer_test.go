package sequence

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	iss, err := Load(filepath.Join(t.TempDir(), "sequence.json"), "SKY", 6)
	require.NoError(t, err)
	return iss
}

func TestNextIsStrictlyIncreasing(t *testing.T) {
	iss := newTestIssuer(t)
	for n := 1; n <= 10; n++ {
		assert.Equal(t, fmt.Sprintf("SKY%06d", n), iss.Next())
	}
	assert.Equal(t, "SKY000010", iss.Current())
}

func TestCurrentDoesNotAdvance(t *testing.T) {
	iss := newTestIssuer(t)
	assert.Equal(t, "SKY000000", iss.Current())
	assert.Equal(t, "SKY000000", iss.Current())
	assert.Equal(t, "SKY000001", iss.Next())
}

func TestSequenceSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sequence.json")
	iss, err := Load(path, "SKY", 6)
	require.NoError(t, err)
	iss.Next()
	iss.Next()

	reloaded, err := Load(path, "SKY", 6)
	require.NoError(t, err)
	assert.Equal(t, "SKY000002", reloaded.Current())
	assert.Equal(t, "SKY000003", reloaded.Next())
}

func TestResetRejectsNegative(t *testing.T) {
	iss := newTestIssuer(t)
	assert.ErrorIs(t, iss.Reset(-1), ErrNegativeValue)
}

func TestResetThenNext(t *testing.T) {
	iss := newTestIssuer(t)
	require.NoError(t, iss.Reset(500))
	assert.Equal(t, "SKY000501", iss.Next())
}

func TestConfigSnapshot(t *testing.T) {
	iss := newTestIssuer(t)
	iss.Next()
	cfg := iss.Config()
	assert.Equal(t, int64(1), cfg.CurrentID)
	assert.Equal(t, "SKY", cfg.Prefix)
	assert.Equal(t, 6, cfg.Padding)
}

func TestConcurrentNextNoDuplicates(t *testing.T) {
	iss := newTestIssuer(t)
	const n = 50
	results := make(chan string, n)
	for i := 0; i < n; i++ {
		go func() { results <- iss.Next() }()
	}
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		tk := <-results
		assert.False(t, seen[tk], "duplicate ticket %s", tk)
		seen[tk] = true
	}
}
