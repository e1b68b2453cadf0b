package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSetAndGet(t *testing.T) {
	c := NewCache()

	require.NoError(t, c.Set("datasets:enriched", snapshot{Name: "entraves", Count: 42}, time.Minute, "opendata"))

	var got snapshot
	found, err := c.Get("datasets:enriched", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "entraves", got.Name)
	assert.Equal(t, 42, got.Count)
}

func TestGetMissingKey(t *testing.T) {
	c := NewCache()

	var got snapshot
	found, err := c.Get("absent", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStaleEntryNotServedByGet(t *testing.T) {
	c := NewCache()

	require.NoError(t, c.Set("key", snapshot{Count: 1}, 10*time.Millisecond, "opendata"))
	time.Sleep(20 * time.Millisecond)

	var got snapshot
	found, err := c.Get("key", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, c.IsStale("key"))
}

func TestStaleButNotVeryStale(t *testing.T) {
	c := NewCache()

	require.NoError(t, c.Set("key", snapshot{Count: 1}, 50*time.Millisecond, "opendata"))
	time.Sleep(60 * time.Millisecond)

	// Past the refresh interval but inside the 2x fallback window
	assert.True(t, c.IsStale("key"))
	assert.False(t, c.IsVeryStale("key"))

	// Metadata access still reaches the stale data
	var got snapshot
	entry, exists, err := c.GetWithMetadata("key", &got)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, "opendata", entry.Source)
}

func TestVeryStaleAfterTwiceRefreshInterval(t *testing.T) {
	c := NewCache()

	require.NoError(t, c.Set("key", snapshot{}, 20*time.Millisecond, "opendata"))
	time.Sleep(50 * time.Millisecond)
	assert.True(t, c.IsVeryStale("key"))
}

func TestMissingKeyIsStale(t *testing.T) {
	c := NewCache()
	assert.True(t, c.IsStale("absent"))
	assert.True(t, c.IsVeryStale("absent"))
}

func TestCleanupStaleRemovesOnlyVeryStale(t *testing.T) {
	c := NewCache()

	require.NoError(t, c.Set("dead", snapshot{}, 10*time.Millisecond, "opendata"))
	require.NoError(t, c.Set("fallback", snapshot{}, 50*time.Millisecond, "opendata"))
	require.NoError(t, c.Set("fresh", snapshot{}, time.Minute, "opendata"))
	time.Sleep(60 * time.Millisecond)

	// "fallback" is stale but inside its 2x window and must survive: it is
	// still servable when a refresh fails
	assert.Equal(t, 1, c.CleanupStale())
	assert.Equal(t, 2, c.Stats().TotalEntries)
	assert.False(t, c.IsVeryStale("fallback"))
	assert.True(t, c.IsVeryStale("dead"))
}

func TestStats(t *testing.T) {
	c := NewCache()

	require.NoError(t, c.Set("old", snapshot{}, 10*time.Millisecond, "opendata"))
	require.NoError(t, c.Set("fresh", snapshot{}, time.Minute, "route"))
	time.Sleep(20 * time.Millisecond)

	stats := c.Stats()
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.FreshEntries)
	assert.Equal(t, 1, stats.StaleEntries)
	assert.False(t, stats.OldestEntry.IsZero())
}

func TestOverwriteResetsExpiry(t *testing.T) {
	c := NewCache()

	require.NoError(t, c.Set("key", snapshot{Count: 1}, 10*time.Millisecond, "opendata"))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c.Set("key", snapshot{Count: 2}, time.Minute, "opendata"))

	var got snapshot
	found, err := c.Get("key", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, got.Count)
}
