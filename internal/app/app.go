package app

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/paperscrape/internal/cache"
	"github.com/hyperifyio/paperscrape/internal/extract"
	"github.com/hyperifyio/paperscrape/internal/fetch"
	"github.com/hyperifyio/paperscrape/internal/output"
	"github.com/hyperifyio/paperscrape/internal/page"
	"github.com/hyperifyio/paperscrape/internal/robots"
	"github.com/hyperifyio/paperscrape/internal/store"
	"github.com/hyperifyio/paperscrape/internal/validate"
)

// ErrNoRecords is returned when the page yields zero records. The CLI exits
// with status 2 for it and no artifacts are written.
var ErrNoRecords = errors.New("no data was extracted")

type App struct {
	cfg     Config
	formats []output.Format
	fetcher *fetch.Client
	robots  *robots.Checker
	now     func() time.Time
}

// New validates cfg, applies cache invalidation and prepares the HTTP
// collaborators. It performs no network I/O.
func New(_ context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	formats, err := output.ParseFormats(cfg.Formats)
	if err != nil {
		return nil, err
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent()
	}

	a := &App{cfg: cfg, formats: formats, now: time.Now}

	var pc *cache.PageCache
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				return nil, fmt.Errorf("clear cache: %w", err)
			}
			log.Info().Str("dir", cfg.CacheDir).Msg("cache cleared")
		}
		if cfg.CacheMaxAge > 0 {
			n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge, a.now())
			if err != nil {
				// Purging is housekeeping; a stale entry only costs a refetch.
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Dur("maxAge", cfg.CacheMaxAge).Msg("purged cache entries")
			}
		}
		pc = &cache.PageCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	httpClient := newHTTPClient(cfg.Timeout)
	a.fetcher = &fetch.Client{
		HTTPClient:  httpClient,
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.Timeout,
		Cache:       pc,
		BypassCache: cfg.NoCache,
		CacheOnly:   cfg.CacheOnly,
	}
	a.robots = &robots.Checker{HTTPClient: httpClient, UserAgent: cfg.UserAgent}
	return a, nil
}

// Run fetches the listing, extracts records and writes every artifact.
func (a *App) Run(ctx context.Context) error {
	cfg := a.cfg

	if !cfg.RobotsIgnore && !cfg.CacheOnly {
		if err := a.robots.Check(ctx, cfg.URL); err != nil {
			return fmt.Errorf("robots: %w", err)
		}
	}

	start := a.now()
	resp, err := a.fetcher.Get(ctx, cfg.URL)
	if err != nil {
		return fmt.Errorf("fetch page: %w", err)
	}
	log.Info().
		Str("url", resp.URL).
		Int("bytes", len(resp.Body)).
		Bool("cache", resp.FromCache).
		Dur("took", a.now().Sub(start)).
		Msg("fetched page")

	doc, err := page.Parse(bytes.NewReader(resp.Body), resp.ContentType, resp.URL)
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}

	opts := cfg.Extract
	if opts.BaseURL == "" {
		opts.BaseURL = doc.BaseURL()
	}
	lines := doc.Lines()
	records := extract.Extract(lines, doc, opts)
	for _, r := range records {
		ev := log.Debug().Str("title", r.Title).Str("authors", r.Authors)
		for _, kind := range extract.LinkKinds {
			if u, ok := r.Link(kind); ok {
				ev = ev.Str(string(kind), u)
			}
		}
		ev.Msg("Found paper")
	}
	candidates := extract.CountTitleCandidates(lines, opts)
	log.Info().
		Int("lines", len(lines)).
		Int("anchors", doc.LinkCount()).
		Int("candidates", candidates).
		Int("records", len(records)).
		Msg("extracted records")

	if len(records) == 0 {
		log.Warn().Str("url", resp.URL).Msg("No data was extracted")
		return ErrNoRecords
	}

	report := validate.Records(records)
	log.Info().
		Int("missingAuthors", report.MissingAuthors).
		Int("missingPDF", report.MissingLinks[extract.LinkPDF]).
		Int("missingSupplementary", report.MissingLinks[extract.LinkSupplementary]).
		Int("missingArXiv", report.MissingLinks[extract.LinkExternalRef]).
		Msg("record completeness")
	if len(report.NonAbsolute) > 0 {
		log.Warn().Ints("records", report.NonAbsolute).Msg("links could not be made absolute")
	}

	heading := cfg.PDFHeading
	if heading == "" {
		heading = strings.TrimSpace(doc.Title())
	}
	w := &output.Writer{Dir: cfg.OutDir, Prefix: cfg.Prefix, Formats: a.formats, Heading: heading}
	artifacts, err := w.Write(records)
	if err != nil {
		return fmt.Errorf("write artifacts: %w", err)
	}
	for _, art := range artifacts {
		log.Info().Str("format", string(art.Format)).Str("path", art.Path).Msg("wrote artifact")
	}

	digest := computeSHA256Hex(resp.Body)
	generated := a.now().UTC()
	m := manifest{
		SourceURL:   resp.URL,
		PageTitle:   doc.Title(),
		BodySHA256:  digest,
		FromCache:   resp.FromCache,
		LineCount:   len(lines),
		Candidates:  candidates,
		RecordCount: len(records),
		GeneratedAt: generated,
		Version:     BuildVersion,
		Commit:      BuildCommit,
		Artifacts:   artifacts,
		Report:      report,
	}
	mp := manifestPath(cfg.OutDir, cfg.Prefix)
	if err := writeManifest(mp, m); err != nil {
		return err
	}
	log.Debug().Str("path", mp).Msg("wrote manifest")

	if cfg.DBPath != "" {
		if err := a.save(ctx, store.Run{
			SourceURL:  resp.URL,
			PageTitle:  doc.Title(),
			BodySHA256: digest,
			FetchedAt:  generated,
		}, records); err != nil {
			return err
		}
	}

	if cfg.PreviewRows > 0 {
		out := cfg.Stdout
		if out == nil {
			out = os.Stdout
		}
		output.Preview(out, records, cfg.PreviewRows)
	}
	return nil
}

func (a *App) save(ctx context.Context, run store.Run, records []extract.Record) error {
	db, err := store.Open(a.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()
	prev, err := db.LatestRun(ctx, run.SourceURL)
	switch {
	case err == nil && prev.BodySHA256 == run.BodySHA256:
		log.Info().Int64("run", prev.ID).Str("db", a.cfg.DBPath).Msg("listing unchanged; keeping stored run")
		return nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("latest run: %w", err)
	}
	id, err := db.SaveRun(ctx, run, records)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	log.Info().Int64("run", id).Str("db", a.cfg.DBPath).Msg("saved records")
	return nil
}
