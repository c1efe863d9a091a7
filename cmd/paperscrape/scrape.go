package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/paperscrape/internal/app"
	"github.com/hyperifyio/paperscrape/internal/cache"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Fetch a listing page and write its paper records",
		Long: `Scrape fetches the listing page, extracts one record per paper and writes
<prefix>.csv, <prefix>.jsonl and <prefix>.json (plus <prefix>.pdf when
requested) and a <prefix>.manifest.json sidecar into the output directory.

Examples:
  # CVPR 2024, all days, into ./data
  paperscrape scrape --out ./data

  # Another CVF listing, JSON Lines only, also saved to SQLite
  paperscrape scrape --url "https://openaccess.thecvf.com/CVPR2023?day=all" \
    --format jsonl --db papers.db

  # Replay the last download without touching the network
  paperscrape scrape --cache.only

Exit status is 2 when the page yields no records and 1 on any other error.`,
		Args: cobra.NoArgs,
		RunE: runScrape,
	}
	bindScrapeFlags(cmd)
	return cmd
}

func bindScrapeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("url", "u", app.DefaultURL, "Listing page URL")
	f.StringP("out", "o", app.DefaultOutDir, "Output directory")
	f.String("prefix", app.DefaultPrefix, "Artifact file name prefix")
	f.StringSlice("format", []string{"csv", "jsonl", "json"}, "Artifact formats: csv, jsonl, json, pdf")
	f.String("pdf-heading", "", "Heading of the PDF listing (default: page title)")
	f.Int("preview", app.DefaultPreviewRows, "Records shown in the preview table (0 disables)")
	f.String("db", "", "SQLite database to append the run to")

	f.String("cache.dir", cache.DefaultDir(), "Page cache directory")
	f.Duration("cache.maxAge", 0, "Purge cache entries older than this before the run (0 disables)")
	f.Bool("cache.clear", false, "Clear the cache directory before the run")
	f.Bool("cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	f.Bool("cache.only", false, "Serve the page from cache only, never touch the network")
	f.Bool("no-cache", false, "Skip cache revalidation and fetch a fresh copy")

	f.Duration("timeout", app.DefaultTimeout, "Request timeout")
	f.String("user-agent", "", "User-Agent header (default: paperscrape/<version>)")
	f.Bool("robots.ignore", false, "Do not consult robots.txt")
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cmd.ErrOrStderr(), cfg.Verbose)
	cfg.Stdout = cmd.OutOrStdout()

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

// loadConfig layers defaults, config file, environment and explicitly set
// flags, in that order.
func loadConfig(cmd *cobra.Command) (app.Config, error) {
	f := cmd.Flags()
	envFiles, _ := f.GetStringSlice("env-file")
	if err := app.LoadEnvFiles(envFiles...); err != nil {
		return app.Config{}, fmt.Errorf("load env files: %w", err)
	}

	cfg := app.DefaultConfig()
	cfg.CacheDir = cache.DefaultDir()
	if path, _ := f.GetString("config"); path != "" {
		fc, err := app.LoadConfigFile(path)
		if err != nil {
			return app.Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	applyFlags(cmd, &cfg)
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *app.Config) {
	f := cmd.Flags()
	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	boolean := func(name string, dst *bool) {
		if f.Changed(name) {
			*dst, _ = f.GetBool(name)
		}
	}

	str("url", &cfg.URL)
	str("out", &cfg.OutDir)
	str("prefix", &cfg.Prefix)
	str("pdf-heading", &cfg.PDFHeading)
	str("db", &cfg.DBPath)
	str("cache.dir", &cfg.CacheDir)
	str("user-agent", &cfg.UserAgent)
	if f.Changed("format") {
		cfg.Formats, _ = f.GetStringSlice("format")
	}
	if f.Changed("preview") {
		cfg.PreviewRows, _ = f.GetInt("preview")
	}
	if f.Changed("cache.maxAge") {
		cfg.CacheMaxAge, _ = f.GetDuration("cache.maxAge")
	}
	if f.Changed("timeout") {
		cfg.Timeout, _ = f.GetDuration("timeout")
	}
	boolean("cache.clear", &cfg.CacheClear)
	boolean("cache.strictPerms", &cfg.CacheStrictPerms)
	boolean("cache.only", &cfg.CacheOnly)
	boolean("no-cache", &cfg.NoCache)
	boolean("robots.ignore", &cfg.RobotsIgnore)
	boolean("verbose", &cfg.Verbose)
}
