package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/autotag/pkg/errors"
)

// FileCache stores one directive set per JSON file under dir, sharded by
// the first two hex digits of the key digest. The CLI uses it by default.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache opens (creating if needed) a file cache rooted at dir.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "cache directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create cache directory %s", dir)
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string {
	return c.dir
}

// fileEntry is the on-disk form of one directive set. Key is kept so that
// a digest collision reads as a miss rather than another snapshot's set.
type fileEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (e fileEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Get implements Cache. Unreadable, foreign and expired entries are
// removed and reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	e, corrupt, err := readEntry(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if corrupt || e.Key != key || e.expired(c.now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set implements Cache. The entry is written to a temp file and renamed,
// so concurrent runs on the same snapshot never see a torn file.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := c.now()
	e := fileEntry{Key: key, Data: data, StoredAt: now}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	buf, err := json.Marshal(e)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".set-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete implements Cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes every directive set and returns how many were removed.
func (c *FileCache) Clear() (int, error) {
	return c.sweep(func(string) bool { return true })
}

// Prune removes expired and unreadable directive sets and returns how many
// were removed. Live entries are kept.
func (c *FileCache) Prune() (int, error) {
	now := c.now()
	return c.sweep(func(path string) bool {
		e, corrupt, err := readEntry(path)
		return err == nil && (corrupt || e.expired(now))
	})
}

// sweep removes every entry file for which drop returns true, then any
// shard directory left empty.
func (c *FileCache) sweep(drop func(path string) bool) (int, error) {
	shards, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	count := 0
	for _, shard := range shards {
		if !shard.IsDir() {
			continue
		}
		sub := filepath.Join(c.dir, shard.Name())
		entries, err := os.ReadDir(sub)
		if err != nil {
			continue
		}
		for _, f := range entries {
			if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
				continue
			}
			path := filepath.Join(sub, f.Name())
			if drop(path) && os.Remove(path) == nil {
				count++
			}
		}
		_ = os.Remove(sub) // only succeeds when empty
	}
	return count, nil
}

// Close implements Cache.
func (c *FileCache) Close() error {
	return nil
}

func (c *FileCache) path(key string) string {
	sum := Hash([]byte(key))
	return filepath.Join(c.dir, sum[:2], sum[2:]+".json")
}

// readEntry decodes the entry at path. A file that is not a valid entry
// reports corrupt rather than an error.
func readEntry(path string) (e fileEntry, corrupt bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileEntry{}, false, err
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return fileEntry{}, true, nil
	}
	return e, false, nil
}

var _ Cache = (*FileCache)(nil)
