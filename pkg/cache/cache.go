// Package cache stores computed directive sets so that re-running the
// tagger on an unchanged snapshot skips the decision pass.
//
// All backends implement [Cache]. Values are opaque bytes; callers choose
// the encoding. Keys come from a [Keyer] so that every input that affects
// the result (snapshot contents, family names, offsets) is part of the key.
//
// Backends:
//   - [FileCache]: one JSON file per entry under the user cache directory
//   - [NoCache]: caching disabled, every run decides afresh
//   - [RedisCache]: shared cache for the HTTP server
//   - [MongoCache]: shared cache with server-side expiry
//
// Cache failures never abort a run; callers log and continue.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// NoCache disables directive caching. Every lookup misses and stored
// directive sets are dropped.
type NoCache struct{}

func (NoCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NoCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NoCache) Delete(context.Context, string) error                     { return nil }
func (NoCache) Close() error                                             { return nil }

// TTLDirectives is the default lifetime of a cached directive set.
const TTLDirectives = 24 * time.Hour

// Backend names a cache implementation.
type Backend string

const (
	BackendFile  Backend = "file"
	BackendNone  Backend = "none"
	BackendRedis Backend = "redis"
	BackendMongo Backend = "mongo"
)

// ParseBackend parses a backend name. The empty string selects the file
// backend.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendFile, nil
	case BackendFile, BackendNone, BackendRedis, BackendMongo:
		return b, nil
	default:
		return "", fmt.Errorf("unknown cache backend %q (want file, none, redis or mongo)", s)
	}
}

// Options configures [Open].
type Options struct {
	Backend       Backend
	Dir           string // file backend
	RedisAddr     string
	MongoURI      string
	MongoDatabase string
}

// Open connects to the configured backend.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case BackendNone:
		return NoCache{}, nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, opts.RedisAddr)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendMongo:
		c, err := NewMongoCache(ctx, opts.MongoURI, opts.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendFile, "":
		c, err := NewFileCache(opts.Dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}
