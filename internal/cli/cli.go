package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tierplan/pkg/buildinfo"
	"github.com/matzehuels/tierplan/pkg/cache"
	"github.com/matzehuels/tierplan/pkg/catalog"
	errs "github.com/matzehuels/tierplan/pkg/errors"
	"github.com/matzehuels/tierplan/pkg/pipeline"
)

const appName = "tierplan"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds state shared by all commands.
type CLI struct {
	Logger *log.Logger
	Config *Config

	configPath string
	verbose    bool
}

// New creates a CLI logging to w. The config file is read when a command runs.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: defaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Tierplan computes cost-optimal, tiered production plans",
		Long: `Tierplan picks which recipes to run, and how fast, to produce target amounts of
goods at minimum cost. The chosen recipes are grouped into tiers so that every
tier only depends on earlier tiers and on freely available root goods.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/tierplan/config.toml)")

	root.AddCommand(c.solveCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the config and attaches the logger to the command context.
func (c *CLI) setup(cmd *cobra.Command) error {
	path, explicit := c.configPath, c.configPath != ""
	if !explicit {
		dir, err := configDir()
		if err == nil {
			path = filepath.Join(dir, "config.toml")
		}
	}
	if path != "" {
		cfg, err := loadConfig(path, explicit)
		if err != nil {
			return err
		}
		c.Config = cfg
	}
	c.SetLogLevel(c.Config.level(c.verbose))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// Execute runs the root command and prints failures the way users should
// see them: the coded message, not the wrapped chain.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.RootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil && !errs.Is(err, errs.ErrCodeCanceled) {
		printError("%s", errs.UserMessage(err))
	}
	return err
}

// newRunner creates a pipeline runner over the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, nil, c.Logger)
	if ttl := c.Config.Cache.TTL.Duration; ttl > 0 {
		r.TTL = ttl
	}
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case backendNone:
		return cache.NewNullCache(), nil
	case backendMemory:
		mc, err := cache.NewMemoryCache(cfg.Entries)
		if err != nil {
			return nil, err
		}
		return mc, nil
	case backendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return rc, nil
	default:
		dir := cfg.Dir
		if dir == "" {
			var err error
			if dir, err = cacheDir(); err != nil {
				c.Logger.Warn("no cache directory, caching disabled", "err", err)
				return cache.NewNullCache(), nil
			}
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	}
}

// openCatalog loads a catalog from a TOML file or a SQLite store, picking by
// extension.
func (c *CLI) openCatalog(ctx context.Context, flag string) (*catalog.Catalog, error) {
	path, err := c.Config.catalogPath(flag)
	if err != nil {
		return nil, err
	}
	st := startStage(c.Logger, "load catalog")
	var cat *catalog.Catalog
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		cat, err = catalog.LoadTOML(path)
	default:
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, errs.Wrap(errs.ErrCodeNotFound, statErr, "catalog %s (import one with `%s catalog import`)", path, appName)
		}
		var store *catalog.Store
		if store, err = catalog.OpenStore(path); err != nil {
			return nil, err
		}
		defer store.Close()
		cat, err = store.Load(ctx)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidCatalog, err, "load catalog %s", path)
	}
	st.done("path", path, "goods", cat.GoodCount(), "recipes", cat.RecipeCount())
	return cat, nil
}

// cacheDir returns the cache directory (~/.cache/tierplan or
// $XDG_CACHE_HOME/tierplan).
func cacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// configDir returns the config directory (~/.config/tierplan or
// $XDG_CONFIG_HOME/tierplan).
func configDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// dataDir returns the data directory (~/.local/share/tierplan or
// $XDG_DATA_HOME/tierplan).
func dataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}
