// Package config loads the autotag TOML configuration file.
//
// The file is optional. A missing file yields [Default]; every key left
// out keeps its default. Environment variables override the cache
// connection settings so that deployments need no file at all:
//
//	AUTOTAG_CACHE_BACKEND   file | none | redis | mongo
//	AUTOTAG_REDIS_ADDR      host:port
//	AUTOTAG_MONGO_URI       mongodb://...
//	AUTOTAG_CACHE_SCOPE     key namespace on a shared backend
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/autotag/pkg/cache"
	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/geom"
	"github.com/matzehuels/autotag/pkg/pipeline"
	"github.com/matzehuels/autotag/pkg/placement"
	"github.com/matzehuels/autotag/pkg/symbols"
	"github.com/matzehuels/autotag/pkg/tag"
)

const (
	appName  = "autotag"
	fileName = "config.toml"

	EnvCacheBackend = "AUTOTAG_CACHE_BACKEND"
	EnvRedisAddr    = "AUTOTAG_REDIS_ADDR"
	EnvMongoURI     = "AUTOTAG_MONGO_URI"
	EnvCacheScope   = "AUTOTAG_CACHE_SCOPE"
)

// Config mirrors the TOML file.
type Config struct {
	// Families maps a category (display name or slug) to a tag family.
	Families map[string]string `toml:"families"`
	Policy   Policy            `toml:"policy"`
	Run      Run               `toml:"run"`
	Cache    Cache             `toml:"cache"`
	Server   Server            `toml:"server"`
}

// Policy holds placement offsets as [x, y, z] triples.
type Policy struct {
	WindowOffset []float64 `toml:"window_offset"`
	SectionLift  []float64 `toml:"section_lift"`
}

type Run struct {
	Parallel               bool `toml:"parallel"`
	Workers                int  `toml:"workers"`
	AbortOnInvalidGeometry bool `toml:"abort_on_invalid_geometry"`
}

type Cache struct {
	Backend       string `toml:"backend"`
	TTL           string `toml:"ttl"`
	RedisAddr     string `toml:"redis_addr"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	// Scope namespaces keys, e.g. one scope per template library.
	Scope string `toml:"scope"`
}

type Server struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	p := placement.DefaultPolicy()
	return &Config{
		Families: map[string]string{},
		Policy: Policy{
			WindowOffset: triple(p.WindowOffset),
			SectionLift:  triple(p.SectionLift),
		},
		Run: Run{Workers: pipeline.DefaultWorkers},
		Cache: Cache{
			Backend:       string(cache.BackendFile),
			TTL:           cache.TTLDirectives.String(),
			RedisAddr:     "localhost:6379",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: appName,
		},
		Server: Server{Addr: ":8080"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/autotag/config.toml, falling back
// to ~/.config/autotag/config.toml.
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}

// Load reads the file at path, or the default path when path is empty,
// and applies environment overrides. A missing default file is not an
// error; a missing explicit path is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return FromEnv(Default(), os.Getenv)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case os.IsNotExist(err) && !explicit:
		return FromEnv(Default(), os.Getenv)
	case os.IsNotExist(err):
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	default:
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return FromEnv(c, os.Getenv)
}

// Parse decodes TOML on top of [Default] and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %v", keys)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// FromEnv applies environment overrides to c and revalidates it.
func FromEnv(c *Config, getenv func(string) string) (*Config, error) {
	if v := getenv(EnvCacheBackend); v != "" {
		c.Cache.Backend = v
	}
	if v := getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := getenv(EnvMongoURI); v != "" {
		c.Cache.MongoURI = v
	}
	if v := getenv(EnvCacheScope); v != "" {
		c.Cache.Scope = v
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := c.FamilyNames(); err != nil {
		return err
	}
	if _, err := c.PlacementPolicy(); err != nil {
		return err
	}
	if c.Run.Workers < 0 || c.Run.Workers > pipeline.MaxWorkers {
		return errors.New(errors.ErrCodeInvalidConfig, "run.workers must be between 1 and %d", pipeline.MaxWorkers)
	}
	if _, err := cache.ParseBackend(c.Cache.Backend); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache.backend")
	}
	if _, err := c.CacheTTL(); err != nil {
		return err
	}
	if _, err := c.Keyer(); err != nil {
		return err
	}
	return nil
}

// FamilyNames returns the family overrides keyed by category.
func (c *Config) FamilyNames() (symbols.FamilyNames, error) {
	out := make(symbols.FamilyNames, len(c.Families))
	for k, v := range c.Families {
		cat, err := tag.ParseCategory(k)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "families")
		}
		if err := errors.ValidateFamilyName(v); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "families.%s", k)
		}
		out[cat] = v
	}
	return out, nil
}

// PlacementPolicy returns the configured offsets.
func (c *Config) PlacementPolicy() (placement.Policy, error) {
	wo, err := vector("policy.window_offset", c.Policy.WindowOffset)
	if err != nil {
		return placement.Policy{}, err
	}
	sl, err := vector("policy.section_lift", c.Policy.SectionLift)
	if err != nil {
		return placement.Policy{}, err
	}
	p := placement.Policy{WindowOffset: wo, SectionLift: sl}
	return p, p.Validate()
}

// CacheTTL parses cache.ttl.
func (c *Config) CacheTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache.ttl")
	}
	if d <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must be positive, got %s", d)
	}
	return d, nil
}

// Keyer returns the directive-set keyer. A non-empty cache.scope prefixes
// every key with "scope:<name>:".
func (c *Config) Keyer() (cache.Keyer, error) {
	scope := strings.TrimSpace(c.Cache.Scope)
	if scope == "" {
		return cache.NewDefaultKeyer(), nil
	}
	if strings.ContainsAny(scope, ": \t\n") {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "cache.scope %q must not contain colons or whitespace", scope)
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), "scope:"+scope+":"), nil
}

// CacheOptions returns options for cache.Open. dir is used by the file
// backend.
func (c *Config) CacheOptions(dir string) cache.Options {
	b, _ := cache.ParseBackend(c.Cache.Backend)
	return cache.Options{
		Backend:       b,
		Dir:           dir,
		RedisAddr:     c.Cache.RedisAddr,
		MongoURI:      c.Cache.MongoURI,
		MongoDatabase: c.Cache.MongoDatabase,
	}
}

// PipelineOptions returns run options for a validated config.
func (c *Config) PipelineOptions() pipeline.Options {
	families, _ := c.FamilyNames()
	policy, _ := c.PlacementPolicy()
	ttl, _ := c.CacheTTL()
	return pipeline.Options{
		Families:               families,
		Policy:                 &policy,
		Parallel:               c.Run.Parallel,
		Workers:                c.Run.Workers,
		AbortOnInvalidGeometry: c.Run.AbortOnInvalidGeometry,
		CacheTTL:               ttl,
	}
}

func vector(key string, xs []float64) (geom.Vector3D, error) {
	if len(xs) != 3 {
		return geom.Vector3D{}, errors.New(errors.ErrCodeInvalidConfig, "%s: want 3 components, got %d", key, len(xs))
	}
	return geom.Vec(xs[0], xs[1], xs[2]), nil
}

func triple(v geom.Vector3D) []float64 {
	return []float64{v.X, v.Y, v.Z}
}
