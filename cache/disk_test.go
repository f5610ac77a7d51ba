package cache

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morkit/eigo/vector"
)

func TestDiskPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	key := Key{Provider: "p", Index: 3}
	var calls atomic.Int64
	compute := func(ctx context.Context) (vector.Array, error) {
		calls.Add(1)
		return testArray(t, [][]float64{{1, 2, 3}, {4, 5, 6}}), nil
	}

	region1, err := NewDisk(DiskConfig{RootDir: dir})
	require.NoError(t, err)

	v, err := region1.GetOrCompute(context.Background(), key, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Len())

	// Close waits for the background write, so the entry is on disk now.
	require.NoError(t, region1.Close())
	_, err = os.Stat(filepath.Join(dir, "p", "3.evl"))
	require.NoError(t, err)

	region2, err := NewDisk(DiskConfig{RootDir: dir})
	require.NoError(t, err)
	defer region2.Close()

	v2, err := region2.GetOrCompute(context.Background(), key, compute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load(), "second instance must read the stored entry")
	assert.Equal(t, v.CopyAt(0), v2.CopyAt(0))
	assert.Equal(t, v.CopyAt(1), v2.CopyAt(1))

	hits, misses := region2.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(0), misses)
}

func TestDiskServesLoadedEntriesFromMemory(t *testing.T) {
	region, err := NewDisk(DiskConfig{RootDir: t.TempDir()})
	require.NoError(t, err)
	defer region.Close()

	key := Key{Provider: "p", Index: 0}
	var calls atomic.Int64
	compute := func(ctx context.Context) (vector.Array, error) {
		calls.Add(1)
		return testArray(t, [][]float64{{9}}), nil
	}

	_, err = region.GetOrCompute(context.Background(), key, compute)
	require.NoError(t, err)
	_, err = region.GetOrCompute(context.Background(), key, compute)
	require.NoError(t, err)

	assert.Equal(t, int64(1), calls.Load())
	hits, misses := region.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestDiskRecomputesCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	key := Key{Provider: "p", Index: 1}

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "p"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p", "1.evl"), []byte("not an entry"), 0o644))

	region, err := NewDisk(DiskConfig{RootDir: dir})
	require.NoError(t, err)
	defer region.Close()

	var calls atomic.Int64
	v, err := region.GetOrCompute(context.Background(), key, func(ctx context.Context) (vector.Array, error) {
		calls.Add(1)
		return testArray(t, [][]float64{{1}}), nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, 1, v.Len())
}
