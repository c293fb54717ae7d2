package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/leaseup/internal/ai"
	cfgpkg "github.com/KaramelBytes/leaseup/internal/config"
	"github.com/KaramelBytes/leaseup/internal/dataset"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	flagData  string
	flagSheet string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "leaseup",
	Short: "Leaseup: explore property lease-up clusters and ask an LLM about them",
	Long: `Leaseup loads a clustered property delivery dataset, filters it by season,
plots the precomputed t-SNE embedding colored by cluster, summarizes each cluster
and asks a language model for a narrative insight about its lease-up behavior.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(setupLogging, loadConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.leaseup/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagData, "data", "", "dataset path, CSV/TSV or XLSX (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func setupLogging() {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands that need config call ensureConfig and fail there
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	applyOverrides(c)
	cfg = c

	if cfg.ModelsCatalog != "" {
		m, err := ai.LoadCatalogFromJSON(cfg.ModelsCatalog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: models catalog %s: %v\n", cfg.ModelsCatalog, err)
			return
		}
		ai.MergeCatalog(m)
		slog.Debug("merged model catalog", "path", cfg.ModelsCatalog, "entries", len(m))
	}
}

// applyOverrides copies explicitly set persistent flags onto c.
func applyOverrides(c *cfgpkg.Global) {
	f := rootCmd.PersistentFlags()
	if f.Changed("data") && flagData != "" {
		c.DatasetPath = flagData
	}
	if f.Changed("sheet") {
		c.Sheet = flagSheet
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		c.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		c.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		c.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		c.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
}

func ensureConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	applyOverrides(c)
	cfg = c
	return c, nil
}

// loadDataset reads the configured dataset and reports what cleaning kept on w.
func loadDataset(w io.Writer) (*dataset.Table, *dataset.LoadStats, error) {
	c, err := ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	opt := dataset.DefaultOptions()
	opt.Sheet = c.Sheet
	tbl, st, err := dataset.Load(c.DatasetPath, opt)
	if err != nil {
		return nil, nil, fmt.Errorf("load dataset: %w", err)
	}
	slog.Debug("dataset cleaned",
		"path", c.DatasetPath,
		"raw_rows", st.RawRows,
		"dropped_cluster", st.DroppedCluster,
		"dropped_coords", st.DroppedCoords,
	)
	fmt.Fprintf(w, "✓ Loaded %s properties from %s", humanize.Comma(int64(st.Kept)), st.Name)
	if st.Dropped() > 0 {
		fmt.Fprintf(w, " (%s rows dropped)", humanize.Comma(int64(st.Dropped())))
	}
	fmt.Fprintln(w)
	for _, s := range st.Seasons {
		name := s.Value
		if name == "" {
			name = "(blank)"
		}
		fmt.Fprintf(w, "  %-10s %s\n", name, humanize.Comma(int64(s.Count)))
	}
	return tbl, st, nil
}
