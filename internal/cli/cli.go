// Package cli implements the flowsankey command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowsankey/pkg/buildinfo"
	"github.com/matzehuels/flowsankey/pkg/cache"
	"github.com/matzehuels/flowsankey/pkg/config"
	ferrors "github.com/matzehuels/flowsankey/pkg/errors"
	"github.com/matzehuels/flowsankey/pkg/flow"
	"github.com/matzehuels/flowsankey/pkg/httputil"
	"github.com/matzehuels/flowsankey/pkg/pipeline"
	"github.com/matzehuels/flowsankey/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "flowsankey"

	// sqliteFile is the database name used when the sqlite backend has no path.
	sqliteFile = "state.db"

	// imageTTL is how long downloaded images are reused.
	imageTTL = 7 * 24 * time.Hour
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	stdin      io.Reader
}

// New creates a new CLI instance with a default logger and the built-in
// configuration. The configuration file is read when a command runs.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
		stdin:  os.Stdin,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Flowsankey draws financial statements as Sankey diagrams",
		Long:          `Flowsankey turns income-statement flows (source, target, current and previous period values) into a Sankey diagram with manual node placement, sibling ordering, images and a balance check.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/flowsankey/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.rowsCommand())
	root.AddCommand(c.nodeCommand())
	root.AddCommand(c.imageCommand())
	root.AddCommand(c.stateCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	return nil
}

// vocabulary returns the configured vocabulary, or nil when the file adds
// nothing to the defaults.
func (c *CLI) vocabulary() *flow.Vocabulary {
	v := c.Config.Vocabulary
	if len(v.Misc) == 0 && len(v.Income) == 0 && len(v.Profit) == 0 {
		return nil
	}
	return &v
}

// classifier returns the default classifier extended with the configured
// vocabulary.
func (c *CLI) classifier() *flow.Classifier {
	v := flow.DefaultVocabulary()
	if extra := c.vocabulary(); extra != nil {
		v = v.Merge(*extra)
	}
	return flow.NewClassifier(v)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(cache, cacheKeyer(), c.Logger)
	runner.Images = newFetcher(noCache)
	return runner, nil
}

// newFetcher returns the downloader for remote images. Downloads are
// cached next to the artifacts unless caching is off.
func newFetcher(noCache bool) *httputil.Fetcher {
	if noCache {
		return httputil.NewFetcher(nil)
	}
	dir, err := cacheDir()
	if err != nil {
		return httputil.NewFetcher(nil)
	}
	images, err := httputil.NewCache(filepath.Join(dir, "images"), imageTTL)
	if err != nil {
		return httputil.NewFetcher(nil)
	}
	return httputil.NewFetcher(images)
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheKeyer scopes artifact keys to the build so an upgrade never serves
// output drawn by older code.
func cacheKeyer() cache.Keyer {
	return cache.NewScopedKeyer(nil, buildinfo.CacheScope())
}

// =============================================================================
// Store Factory
// =============================================================================

// openStore opens the configured state backend.
func (c *CLI) openStore() (*store.Port, error) {
	var (
		blobs store.Blobs
		err   error
	)
	switch c.Config.Store.Backend {
	case config.BackendSQLite:
		blobs, err = openSQLite(c.Config.Store.Path)
	case config.BackendMemory:
		blobs = store.NewMemoryBlobs()
	default:
		blobs, err = store.NewFileBlobs(c.Config.Store.Path)
	}
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeStorage, err, "open %s store", c.Config.Store.Backend)
	}
	return store.NewPort(blobs, store.WithLogger(c.Logger)), nil
}

func openSQLite(path string) (*store.SQLiteBlobs, error) {
	if path == "" {
		dir, err := store.DefaultDir()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
		path = filepath.Join(dir, sqliteFile)
	}
	return store.OpenSQLite(path)
}

// storePath describes where the configured backend keeps its data.
func (c *CLI) storePath() (string, error) {
	p := c.Config.Store.Path
	switch c.Config.Store.Backend {
	case config.BackendMemory:
		return "(memory)", nil
	case config.BackendSQLite:
		if p != "" {
			return p, nil
		}
		dir, err := store.DefaultDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, sqliteFile), nil
	}
	if p != "" {
		return p, nil
	}
	return store.DefaultDir()
}

// loadState opens the store and loads rows and settings.
func (c *CLI) loadState(ctx context.Context) (*store.Port, store.Loaded, error) {
	port, err := c.openStore()
	if err != nil {
		return nil, store.Loaded{}, err
	}
	st, err := port.Load(ctx)
	if err != nil {
		port.Close()
		return nil, store.Loaded{}, err
	}
	if st.RowsSource == store.FromDefaults {
		c.Logger.Debug("no stored rows, using sample statement")
	}
	if st.Migrated {
		c.Logger.Info("migrated legacy sibling order")
	}
	return port, st, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/flowsankey/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
