package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/epi-report-service/internal/domain"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newLRUCache(2)
	v := fileVersion{modTime: time.Unix(1, 0), size: 10}
	a, b, d := &domain.Report{Name: "a"}, &domain.Report{Name: "b"}, &domain.Report{Name: "d"}

	c.put("a", v, a)
	c.put("b", v, b)
	_, ok := c.get("a", v) // a becomes most recent
	require.True(t, ok)
	c.put("d", v, d)

	_, ok = c.get("b", v)
	assert.False(t, ok, "b should have been evicted")
	got, ok := c.get("a", v)
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_StaleVersionIsDropped(t *testing.T) {
	c := newLRUCache(4)
	old := fileVersion{modTime: time.Unix(1, 0), size: 10}
	c.put("a", old, &domain.Report{Name: "a"})

	_, ok := c.get("a", fileVersion{modTime: time.Unix(2, 0), size: 10})
	assert.False(t, ok)
	assert.Zero(t, c.len())
}

func TestCacheKey_SeparatesOptions(t *testing.T) {
	assert.NotEqual(t, cacheKey("x.csv", Indexed), cacheKey("x.csv", Labeled))
	assert.NotEqual(t, cacheKey("x.csv", Labeled), cacheKey("x.csv", Raw))
}
