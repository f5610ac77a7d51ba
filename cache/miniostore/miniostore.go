// Package miniostore provides a cache region backed by MinIO or any
// S3-compatible object store, so expensive operator evaluations survive
// across machines and runs.
package miniostore

import (
	"bytes"
	"context"
	"io"
	"path"
	"sync"
	"sync/atomic"

	"github.com/minio/minio-go/v7"
	"golang.org/x/sync/singleflight"

	"github.com/morkit/eigo/cache"
	"github.com/morkit/eigo/vector"
)

// Region implements cache.Region on top of an S3-compatible bucket.
// Decoded entries stay resident for the lifetime of the instance.
type Region struct {
	client *minio.Client
	bucket string
	prefix string

	mu     sync.Mutex
	loaded map[cache.Key]vector.Array
	group  singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

var _ cache.Region = (*Region)(nil)

// New creates an object-store region. rootPrefix is prepended to all keys
// (e.g. "evaluations/").
func New(client *minio.Client, bucket, rootPrefix string) *Region {
	return &Region{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
		loaded: make(map[cache.Key]vector.Array),
	}
}

func (r *Region) objectKey(key cache.Key) string {
	return path.Join(r.prefix, key.String()+".evl")
}

func (r *Region) GetOrCompute(ctx context.Context, key cache.Key, compute cache.ComputeFunc) (vector.Array, error) {
	r.mu.Lock()
	v, ok := r.loaded[key]
	r.mu.Unlock()
	if ok {
		r.hits.Add(1)
		return v, nil
	}

	res, err, _ := r.group.Do(key.String(), func() (any, error) {
		r.mu.Lock()
		v, ok := r.loaded[key]
		r.mu.Unlock()
		if ok {
			r.hits.Add(1)
			return v, nil
		}

		if v, ok, err := r.fetch(ctx, key); err != nil {
			return nil, err
		} else if ok {
			r.hits.Add(1)
			r.store(key, v)
			return v, nil
		}

		r.misses.Add(1)
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		r.store(key, v)
		if err := r.put(ctx, key, v); err != nil {
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(vector.Array), nil
}

func (r *Region) store(key cache.Key, v vector.Array) {
	r.mu.Lock()
	r.loaded[key] = v
	r.mu.Unlock()
}

func (r *Region) fetch(ctx context.Context, key cache.Key) (vector.Array, bool, error) {
	obj, err := r.client.GetObject(ctx, r.bucket, r.objectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, false, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, false, nil
		}
		return nil, false, err
	}

	v, err := cache.DecodeArray(data)
	if err != nil {
		// Undecodable entry (format change): treat as missing.
		return nil, false, nil
	}
	return v, true, nil
}

func (r *Region) put(ctx context.Context, key cache.Key, v vector.Array) error {
	data, err := cache.EncodeArray(v)
	if err != nil {
		return err
	}
	_, err = r.client.PutObject(ctx, r.bucket, r.objectKey(key),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

func (r *Region) Stats() (hits, misses int64) {
	return r.hits.Load(), r.misses.Load()
}

func (r *Region) Close() error { return nil }
