package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clausewise/internal/model"
)

func TestKey(t *testing.T) {
	k := Key("excerpt", "profiles")
	assert.True(t, strings.HasPrefix(k, KeyPrefix))
	assert.Len(t, k, len(KeyPrefix)+64)

	assert.Equal(t, k, Key("excerpt", "profiles"))
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	value := []byte("answer")
	require.NoError(t, c.Set("k", value, 0))
	value[0] = 'X'

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "answer", string(got))

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)

	require.NoError(t, c.Set("a", []byte("1"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok, "expired entry")

	require.NoError(t, c.Set("b", []byte("2"), 0))
	require.NoError(t, c.Clear())
	_, ok = c.Get("b")
	assert.False(t, ok, "cleared entry")
}

func TestDiskCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir, time.Hour)

	key := Key("doc")
	require.NoError(t, c.Set(key, []byte(`{"pack_id":"msa"}`), 0))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.JSONEq(t, `{"pack_id":"msa"}`, string(got))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.NotContains(t, files[0].Name(), ":")

	require.NoError(t, c.Delete(key))
	require.NoError(t, c.Delete(key), "deleting twice is fine")
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func TestDiskCache_Expiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("k", []byte("v"), 0))
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)

	_, err := os.Stat(c.path("k"))
	assert.True(t, os.IsNotExist(err), "expired entry is removed")
}

func TestDiskCache_ClearKeepsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	require.NoError(t, c.Set("a", []byte("1"), 0))
	require.NoError(t, c.Set("b", []byte("2"), 0))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("keep"), 0o644))

	require.NoError(t, c.Clear())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "README", files[0].Name())

	assert.NoError(t, NewDiskCache(filepath.Join(dir, "nope"), 0).Clear())
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	require.NoError(t, os.WriteFile(c.path("k"), []byte("not json"), 0o644))

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	first := NewLayeredCache(time.Hour, dir, time.Hour)
	require.NoError(t, first.Set("k", []byte("v"), 0))

	// a fresh process sees only the disk layer
	second := NewLayeredCache(time.Hour, dir, time.Hour)
	got, ok := second.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	_, ok = second.memory.Get("k")
	assert.True(t, ok, "disk hit promoted to memory")

	require.NoError(t, second.Delete("k"))
	_, ok = second.Get("k")
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	assert.IsType(t, Nop{}, New(model.CacheConfig{Enabled: false}))
	assert.IsType(t, &MemoryCache{}, New(model.CacheConfig{Enabled: true}))
	assert.IsType(t, &LayeredCache{}, New(model.CacheConfig{Enabled: true, Dir: t.TempDir()}))

	var n Nop
	require.NoError(t, n.Set("k", []byte("v"), 0))
	_, ok := n.Get("k")
	assert.False(t, ok)
}
