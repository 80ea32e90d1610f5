package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetPut(t *testing.T) {
	c := NewMemory()

	_, ok, err := c.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put("k", []byte("v"), 0))
	v, ok, err := c.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestMemoryExpiry(t *testing.T) {
	c := NewMemory()
	require.NoError(t, c.Put("short", []byte("v"), time.Millisecond))
	require.NoError(t, c.Put("forever", []byte("v"), 0))

	time.Sleep(5 * time.Millisecond)

	_, ok, err := c.Get("short")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must be a miss")

	_, ok, err = c.Get("forever")
	require.NoError(t, err)
	assert.True(t, ok, "ttl 0 means no expiry")
}

func TestOverride(t *testing.T) {
	under := NewMemory()
	require.NoError(t, under.Put("both", []byte("under"), 0))
	require.NoError(t, under.Put("only-under", []byte("under"), 0))

	c := &Override{
		Overrides:  map[string][]byte{"both": []byte("over")},
		Underlying: under,
	}

	v, ok, err := c.Get("both")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("over"), v, "override wins over the underlying cache")

	v, ok, err = c.Get("only-under")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("under"), v)

	// Puts go through to the underlying cache, never to the overrides.
	require.NoError(t, c.Put("both", []byte("written"), 0))
	v, _, _ = under.Get("both")
	assert.Equal(t, []byte("written"), v)
	v, _, _ = c.Get("both")
	assert.Equal(t, []byte("over"), v)
}

func TestNull(t *testing.T) {
	var c Null
	require.NoError(t, c.Put("k", []byte("v"), 0))
	_, ok, err := c.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := OpenSQLite(path)
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put("k", []byte(`{"v":1}`), 0))
	v, ok, err := c.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"v":1}`), v)

	// Overwrite is last-write-wins.
	require.NoError(t, c.Put("k", []byte(`{"v":2}`), 0))
	v, _, _ = c.Get("k")
	assert.Equal(t, []byte(`{"v":2}`), v)
}

func TestSQLiteExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := OpenSQLite(path)
	require.NoError(t, err)
	defer c.Close()

	// Already-expired entry: expires_at is stored with second granularity,
	// so use a ttl well in the past instead of sleeping.
	require.NoError(t, c.Put("gone", []byte("v"), -2*time.Second))
	_, ok, err := c.Get("gone")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put("kept", []byte("v"), time.Hour))
	_, ok, err = c.Get("kept")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := c.Sweep()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "sweep removes only the expired row")
}
