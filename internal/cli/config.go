package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/tierplan/internal/server"
	"github.com/matzehuels/tierplan/pkg/cache"
	"github.com/matzehuels/tierplan/pkg/pipeline"
)

// Cache backends selectable in the config file.
const (
	backendFile   = "file"
	backendMemory = "memory"
	backendRedis  = "redis"
	backendNone   = "none"
)

// Config is the on-disk configuration. Every field has a working default, so
// a missing file is not an error.
type Config struct {
	LogLevel string       `toml:"log_level"`
	Catalog  string       `toml:"catalog"`
	Cache    CacheConfig  `toml:"cache"`
	Server   ServerConfig `toml:"server"`
}

// CacheConfig selects and tunes the plan cache.
type CacheConfig struct {
	Backend string   `toml:"backend"`
	TTL     duration `toml:"ttl"`
	Dir     string   `toml:"dir"`
	Entries int      `toml:"entries"`
	Redis   struct {
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
		Prefix   string `toml:"prefix"`
	} `toml:"redis"`
}

// ServerConfig configures `tierplan serve`.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	JobRetention duration `toml:"job_retention"`
}

// duration reads Go duration strings such as "36h" from TOML.
type duration struct{ time.Duration }

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func defaultConfig() *Config {
	cfg := &Config{LogLevel: "info"}
	cfg.Cache.Backend = backendFile
	cfg.Cache.TTL = duration{pipeline.DefaultTTL}
	cfg.Cache.Entries = cache.DefaultMemoryEntries
	cfg.Server.Addr = server.DefaultAddr
	cfg.Server.JobRetention = duration{server.DefaultJobRetention}
	return cfg
}

// loadConfig reads path over the defaults. When explicit is false a missing
// file yields the defaults.
func loadConfig(path string, explicit bool) (*Config, error) {
	cfg := defaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch c.Cache.Backend {
	case backendFile, backendMemory, backendRedis, backendNone:
	default:
		return fmt.Errorf("cache.backend: unknown backend %q (want file, memory, redis or none)", c.Cache.Backend)
	}
	if c.Cache.Backend == backendRedis && c.Cache.Redis.Addr == "" {
		return errors.New("cache.redis.addr is required for the redis backend")
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New("cache.ttl must not be negative")
	}
	return nil
}

// level returns the configured log level, raised to debug by --verbose.
func (c *Config) level(verbose bool) log.Level {
	if verbose {
		return log.DebugLevel
	}
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// catalogPath resolves the catalog to use: the flag value, else the config
// value, else the default database under the data dir.
func (c *Config) catalogPath(flag string) (string, error) {
	if flag != "" {
		return expandHome(flag)
	}
	if c.Catalog != "" {
		return expandHome(c.Catalog)
	}
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "catalog.db"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
