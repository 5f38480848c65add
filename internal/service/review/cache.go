package review

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Cache stores review responses by key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, response string) error
	Close() error
}

// CacheKey hashes the parts of a request that determine the response.
func CacheKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

type cachedResponse struct {
	Response string    `json:"response"`
	StoredAt time.Time `json:"storedAt"`
}

func (c cachedResponse) expired(ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(c.StoredAt) > ttl
}

// MemoryCache keeps responses in process memory.
type MemoryCache struct {
	ttl     time.Duration
	entries sync.Map
	now     func() time.Time
}

// NewMemoryCache creates an in-memory cache. ttl <= 0 keeps entries forever.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	val, ok := c.entries.Load(key)
	if !ok {
		return "", false, nil
	}
	entry := val.(cachedResponse)
	if entry.expired(c.ttl, c.now()) {
		c.entries.Delete(key)
		return "", false, nil
	}
	return entry.Response, true, nil
}

func (c *MemoryCache) Put(_ context.Context, key, response string) error {
	c.entries.Store(key, cachedResponse{Response: response, StoredAt: c.now()})
	return nil
}

func (c *MemoryCache) Close() error {
	return nil
}

var reviewBucket = []byte("reviews")

// BoltCache keeps responses in a bbolt file so they survive restarts.
type BoltCache struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

// OpenBoltCache opens (or creates) the cache file at path.
func OpenBoltCache(path string, ttl time.Duration) (*BoltCache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open review cache %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(reviewBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create review bucket: %w", err)
	}

	return &BoltCache{db: db, ttl: ttl, now: time.Now}, nil
}

func (c *BoltCache) Get(_ context.Context, key string) (string, bool, error) {
	var raw []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(reviewBucket).Get([]byte(key)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("read review cache: %w", err)
	}
	if raw == nil {
		return "", false, nil
	}

	var entry cachedResponse
	if err := json.Unmarshal(raw, &entry); err != nil {
		return "", false, fmt.Errorf("decode review cache entry: %w", err)
	}
	if entry.expired(c.ttl, c.now()) {
		err := c.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(reviewBucket).Delete([]byte(key))
		})
		return "", false, err
	}
	return entry.Response, true, nil
}

func (c *BoltCache) Put(_ context.Context, key, response string) error {
	raw, err := json.Marshal(cachedResponse{Response: response, StoredAt: c.now()})
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(reviewBucket).Put([]byte(key), raw)
	})
}

func (c *BoltCache) Close() error {
	return c.db.Close()
}
