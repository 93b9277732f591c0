package feedback

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratal/graphite/internal/vector"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), log.New(io.Discard))
	require.NoError(t, err)
	return store
}

func readEntries(t *testing.T, dir string) []Entry {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, feedbackFile))
	require.NoError(t, err)
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Entry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestSaveAppendsEntries(t *testing.T) {
	store := newTestStore(t)
	res := vector.Result{
		Answer: "Refunds take 14 days.",
		Sources: []vector.Source{
			{Text: strings.Repeat("x", 150), Metadata: map[string]any{"source": "policy.txt"}},
		},
	}

	require.NoError(t, store.Save("What is the refund policy?", res, 4, "helpful"))
	require.NoError(t, store.Save("What is the refund policy?", res, 2, ""))

	entries := readEntries(t, store.dir)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, entries[1].ID)
	assert.False(t, first.Timestamp.IsZero())
	assert.Equal(t, "What is the refund policy?", first.Query)
	assert.Equal(t, "Refunds take 14 days.", first.Response)
	assert.Equal(t, 4, first.Rating)
	assert.Equal(t, "helpful", first.Comment)

	require.Len(t, first.Sources, 1)
	assert.Equal(t, strings.Repeat("x", snippetChars), first.Sources[0].TextSnippet)
	assert.Equal(t, "policy.txt", first.Sources[0].Metadata["source"])
}

func TestSaveRejectsOutOfRangeRating(t *testing.T) {
	store := newTestStore(t)

	assert.Error(t, store.Save("q", vector.Result{}, 0, ""))
	assert.Error(t, store.Save("q", vector.Result{}, 6, ""))

	_, err := os.Stat(filepath.Join(store.dir, feedbackFile))
	assert.True(t, os.IsNotExist(err))
}

func TestAnalyticsAggregates(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("What is the refund policy?", vector.Result{}, 5, ""))
	require.NoError(t, store.Save("How long do refund payments take?", vector.Result{}, 4, ""))
	require.NoError(t, store.Save("Can I change my plan?", vector.Result{}, 1, "wrong answer"))

	a, err := store.Analytics()
	require.NoError(t, err)

	assert.Equal(t, 3, a.TotalQueries)
	assert.Equal(t, 10, a.TotalRatingSum)
	assert.InDelta(t, 10.0/3.0, a.AverageRating, 1e-9)
	assert.Equal(t, map[string]int{"1": 1, "2": 0, "3": 0, "4": 1, "5": 1}, a.RatingDistribution)

	// Short words are not counted as terms.
	assert.Equal(t, 2, a.CommonQueryTerms["refund"])
	assert.Equal(t, 1, a.CommonQueryTerms["policy?"])
	assert.NotContains(t, a.CommonQueryTerms, "the")
	assert.False(t, a.LastUpdated.IsZero())
}

func TestAnalyticsEmptyStore(t *testing.T) {
	store := newTestStore(t)

	a, err := store.Analytics()
	require.NoError(t, err)
	assert.Equal(t, 0, a.TotalQueries)
	assert.Equal(t, map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}, a.RatingDistribution)
}

func TestFailedQueries(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save("first", vector.Result{}, 1, ""))
	require.NoError(t, store.Save("second", vector.Result{}, 2, ""))
	require.NoError(t, store.Save("third", vector.Result{}, 3, ""))
	require.NoError(t, store.Save("fourth", vector.Result{}, 5, ""))

	failed, err := store.FailedQueries(0)
	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.Equal(t, "first", failed[0].Query)
	assert.Equal(t, "second", failed[1].Query)

	all, err := store.FailedQueries(5)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestFailedQueriesNoFile(t *testing.T) {
	store := newTestStore(t)

	failed, err := store.FailedQueries(0)
	require.NoError(t, err)
	assert.Empty(t, failed)
}
