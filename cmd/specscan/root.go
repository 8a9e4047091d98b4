package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/specscan/internal/cache"
	"github.com/dgallion1/specscan/internal/catalog"
	"github.com/dgallion1/specscan/internal/parser"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "specscan",
	Short: "Locate CSI divisions in large construction specifications",
	Long: `specscan reads a construction specification (PDF, DOCX, HTML, Markdown
or text), recovers its division map from the table of contents or headings,
and extracts the text that belongs to one division.

Settings come from flags, SPECSCAN_* environment variables, or a YAML
config file. Model keys may also be given as ANTHROPIC_API_KEY and
OPENAI_API_KEY.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./specscan.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.String("cache-backend", cache.BackendSQLite, "document cache: memory, sqlite, postgres, redis or pathstore")
	pf.String("sqlite-path", "specscan-cache.db", "sqlite cache file")
	pf.String("database-url", "", "postgres cache DSN")
	pf.String("redis-url", "", "redis cache URL")
	pf.String("pathstore-url", "", "pathstore cache URL")
	pf.String("catalog", "", "YAML division catalog overriding the built-in one")
	pf.Bool("pdftotext", true, "fall back to pdftotext when the PDF reader fails")

	for _, name := range []string{"cache-backend", "sqlite-path", "database-url", "redis-url", "pathstore-url", "catalog", "pdftotext"} {
		_ = viper.BindPFlag(strings.ReplaceAll(name, "-", "_"), pf.Lookup(name))
	}

	rootCmd.AddCommand(structureCmd, tilesCmd, analyzeCmd, cacheCmd)
}

func initConfig() {
	viper.SetEnvPrefix("SPECSCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("anthropic_api_key", "SPECSCAN_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = viper.BindEnv("openai_api_key", "SPECSCAN_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = viper.BindEnv("pathstore_api_key", "SPECSCAN_PATHSTORE_API_KEY", "PATHSTORE_API_KEY")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("specscan")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "warning: reading config: %v\n", err)
		}
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadCatalog() (*catalog.Catalog, error) {
	path := viper.GetString("catalog")
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}

func openCache(ctx context.Context, log *slog.Logger) (*cache.Cache, error) {
	store, err := cache.OpenStore(ctx, cache.Options{
		Backend:         viper.GetString("cache_backend"),
		DatabaseURL:     viper.GetString("database_url"),
		SQLitePath:      viper.GetString("sqlite_path"),
		RedisURL:        viper.GetString("redis_url"),
		PathstoreURL:    viper.GetString("pathstore_url"),
		PathstoreAPIKey: viper.GetString("pathstore_api_key"),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return cache.New(store, log), nil
}

type document struct {
	name       string
	text       string
	totalPages int
	size       int64
}

// readDocument parses path into page-marked text.
func readDocument(path string) (*document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	text, pages, err := parser.ParseFile(f, path, parser.Options{FallbackPdftotext: viper.GetBool("pdftotext")})
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &document{name: info.Name(), text: text, totalPages: pages, size: info.Size()}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
