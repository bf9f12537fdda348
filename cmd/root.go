package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/bugtrack/internal/bugs"
	"github.com/joescharf/bugtrack/internal/output"
	"github.com/joescharf/bugtrack/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "bugtrack",
	Short: "Bug tracker - a REST API, web UI and CLI for bug reports",
	Long: `bugtrack records bug reports and serves them over a REST API with a
small embedded web client. The same operations are available from the
command line and as MCP tools.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.Execute()
	closeStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/bugtrack/config.yaml)")
}

func initConfig() {
	// .env in the working directory feeds the environment before viper reads it.
	_ = godotenv.Load()

	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDirFunc()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BUGTRACK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	defaultDir, _ := configDirFunc()
	setDefaults(defaultDir)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

// setDefaults registers every config key with its default, rooted at stateDir.
func setDefaults(stateDir string) {
	viper.SetDefault("state_dir", stateDir)

	viper.SetDefault("store.driver", string(store.DriverSQLite))
	viper.SetDefault("store.sqlite_path", filepath.Join(stateDir, "bugtrack.db"))
	viper.SetDefault("store.postgres_dsn", "")
	viper.SetDefault("store.redis_addr", "localhost:6379")
	viper.SetDefault("store.redis_db", 0)
	viper.SetDefault("store.badger_path", filepath.Join(stateDir, "badger"))

	viper.SetDefault("server.host", "")
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.metrics", true)
	viper.SetDefault("server.ui", true)
	viper.SetDefault("server.pid_file", filepath.Join(stateDir, "bugtrack-serve.pid"))

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	viper.SetDefault("export.s3_bucket", "")
	viper.SetDefault("export.s3_region", "us-east-1")
	viper.SetDefault("export.s3_endpoint", "")
	viper.SetDefault("export.s3_path_style", false)
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	// Store is opened lazily, so config/version commands run without one.
	slog.SetDefault(newLogger(os.Stderr))
}

// newLogger builds the slog logger described by log.level and log.format.
// --verbose forces debug level.
func newLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log.level"))); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(viper.GetString("log.format"), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func storeConfig() store.Config {
	return store.Config{
		Driver:      store.Driver(viper.GetString("store.driver")),
		SQLitePath:  viper.GetString("store.sqlite_path"),
		PostgresDSN: viper.GetString("store.postgres_dsn"),
		RedisAddr:   viper.GetString("store.redis_addr"),
		RedisDB:     viper.GetInt("store.redis_db"),
		BadgerPath:  viper.GetString("store.badger_path"),
	}
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	ctx := rootCmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := storeConfig()
	s, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// getService wraps the shared store in a bug service.
func getService() (*bugs.Service, error) {
	s, err := getStore()
	if err != nil {
		return nil, err
	}
	return bugs.NewService(s, slog.Default()), nil
}

func closeStore() {
	if dataStore == nil {
		return
	}
	if err := dataStore.Close(); err != nil {
		slog.Warn("close store", "error", err)
	}
	dataStore = nil
}
