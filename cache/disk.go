package cache

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/morkit/eigo/vector"
)

// DiskConfig holds configuration for a disk-backed region.
type DiskConfig struct {
	// RootDir is the directory where entries are stored.
	RootDir string
	// MaxConcurrentWrites limits background writes. Defaults to 4 if <= 0.
	MaxConcurrentWrites int64
}

// Disk is a filesystem-backed Region. Entries survive process restarts;
// decoded entries stay resident for the lifetime of the instance so repeat
// accesses never touch the disk twice.
//
// Writes happen in the background with a semaphore bound; a write slot that
// cannot be acquired means the entry is served from memory for this run and
// recomputed by the next process, which only costs time, never correctness.
type Disk struct {
	rootDir  string
	writeSem *semaphore.Weighted

	mu     sync.Mutex
	loaded map[Key]vector.Array
	group  singleflight.Group
	wg     sync.WaitGroup

	hits   atomic.Int64
	misses atomic.Int64
}

var _ Region = (*Disk)(nil)

// NewDisk creates a disk-backed region rooted at config.RootDir, creating
// the directory if needed.
func NewDisk(config DiskConfig) (*Disk, error) {
	if err := os.MkdirAll(config.RootDir, 0o755); err != nil {
		return nil, err
	}

	maxWrites := config.MaxConcurrentWrites
	if maxWrites <= 0 {
		maxWrites = 4
	}

	return &Disk{
		rootDir:  config.RootDir,
		writeSem: semaphore.NewWeighted(maxWrites),
		loaded:   make(map[Key]vector.Array),
	}, nil
}

func (d *Disk) entryPath(key Key) string {
	return filepath.Join(d.rootDir, key.Provider, strconv.Itoa(key.Index)+".evl")
}

func (d *Disk) GetOrCompute(ctx context.Context, key Key, compute ComputeFunc) (vector.Array, error) {
	d.mu.Lock()
	v, ok := d.loaded[key]
	d.mu.Unlock()
	if ok {
		d.hits.Add(1)
		return v, nil
	}

	res, err, _ := d.group.Do(key.String(), func() (any, error) {
		d.mu.Lock()
		v, ok := d.loaded[key]
		d.mu.Unlock()
		if ok {
			d.hits.Add(1)
			return v, nil
		}

		// A stored entry from an earlier run counts as a hit: the compute
		// was already paid for.
		if data, err := os.ReadFile(d.entryPath(key)); err == nil {
			if v, err := DecodeArray(data); err == nil {
				d.hits.Add(1)
				d.store(key, v)
				return v, nil
			}
			// Undecodable entry (corruption, format change): recompute.
			_ = os.Remove(d.entryPath(key))
		}

		d.misses.Add(1)
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		d.store(key, v)
		d.persist(key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(vector.Array), nil
}

func (d *Disk) store(key Key, v vector.Array) {
	d.mu.Lock()
	d.loaded[key] = v
	d.mu.Unlock()
}

// persist writes the entry in the background, atomically via tmp+rename.
func (d *Disk) persist(key Key, v vector.Array) {
	if !d.writeSem.TryAcquire(1) {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.writeSem.Release(1)

		data, err := EncodeArray(v)
		if err != nil {
			return
		}

		absPath := d.entryPath(key)
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return
		}

		tmpFile, err := os.CreateTemp(filepath.Dir(absPath), "tmp-evl-*")
		if err != nil {
			return
		}
		tmpName := tmpFile.Name()
		defer func() {
			if _, err := os.Stat(tmpName); err == nil {
				_ = os.Remove(tmpName)
			}
		}()

		if _, err := tmpFile.Write(data); err != nil {
			_ = tmpFile.Close()
			return
		}
		if err := tmpFile.Close(); err != nil {
			return
		}
		_ = os.Rename(tmpName, absPath)
	}()
}

func (d *Disk) Stats() (hits, misses int64) {
	return d.hits.Load(), d.misses.Load()
}

// Close waits for all background writes to complete.
func (d *Disk) Close() error {
	d.wg.Wait()
	return nil
}
