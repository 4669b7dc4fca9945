package feedback

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAppendAndLoad(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "feedback.csv"))

	first := Record{
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		UserName:   "Ada",
		Rating:     5,
		ReviewText: "Lovely evening, \"top\" service",
		Response:   "Thanks Ada!",
	}
	require.NoError(t, store.Append(first))
	require.NoError(t, store.Append(Record{
		Timestamp:  time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		Rating:     2,
		ReviewText: "Cold food, long wait",
	}))

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, first, records[0])
	assert.Equal(t, "", records[1].UserName)
	assert.Equal(t, 2, records[1].Rating)
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope.csv"))
	records, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStoreAppendSetsTimestamp(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "feedback.csv"))

	require.NoError(t, store.Append(Record{Rating: 4, ReviewText: "nice"}))

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.WithinDuration(t, time.Now().UTC(), records[0].Timestamp, time.Minute)
}

func TestStoreAppendRejectsInvalidRecords(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "feedback.csv"))

	assert.Error(t, store.Append(Record{Rating: 4, ReviewText: "  "}))
	assert.Error(t, store.Append(Record{Rating: 0, ReviewText: "x"}))
	assert.Error(t, store.Append(Record{Rating: 6, ReviewText: "x"}))
}

func TestComputeStats(t *testing.T) {
	latest := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	records := []Record{
		{Timestamp: latest.Add(-time.Hour), Rating: 5, ReviewText: "a"},
		{Timestamp: latest, Rating: 2, ReviewText: "b"},
		{Timestamp: latest.Add(-2 * time.Hour), Rating: 4, ReviewText: "c"},
	}

	stats := ComputeStats(records)
	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 11.0/3.0, stats.AverageRating, 0.0001)
	assert.Equal(t, latest, stats.LatestAt)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Equal(t, 0, stats.Count)
	assert.Equal(t, 0.0, stats.AverageRating)
}
