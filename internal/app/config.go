package app

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperifyio/paperscrape/internal/extract"
	"github.com/hyperifyio/paperscrape/internal/output"
)

const (
	// DefaultURL is the CVPR 2024 all-days listing.
	DefaultURL         = "https://openaccess.thecvf.com/CVPR2024?day=all"
	DefaultOutDir      = "."
	DefaultPrefix      = "papers"
	DefaultTimeout     = 15 * time.Second
	DefaultPreviewRows = 5
)

// DefaultUserAgent identifies the tool to listing servers and robots.txt.
func DefaultUserAgent() string {
	return "paperscrape/" + BuildVersion + " (+https://github.com/hyperifyio/paperscrape)"
}

// Config holds runtime configuration for the application.
type Config struct {
	URL string

	// Output
	OutDir      string
	Prefix      string
	Formats     []string
	PDFHeading  string
	PreviewRows int

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	CacheOnly        bool
	NoCache          bool

	// Persistence
	DBPath string

	// HTTP
	UserAgent    string
	Timeout      time.Duration
	RobotsIgnore bool

	Extract extract.Options

	Verbose bool

	// Stdout receives the preview table. Nil means os.Stdout.
	Stdout io.Writer
}

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() Config {
	return Config{
		URL:         DefaultURL,
		OutDir:      DefaultOutDir,
		Prefix:      DefaultPrefix,
		PreviewRows: DefaultPreviewRows,
		UserAgent:   DefaultUserAgent(),
		Timeout:     DefaultTimeout,
		Extract:     extract.DefaultOptions(),
	}
}

// ValidateConfig performs minimal validation of required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.URL) == "" {
		return errors.New("config: url is required")
	}
	if strings.TrimSpace(cfg.OutDir) == "" {
		return errors.New("config: out dir is required")
	}
	if cfg.Timeout < 0 || cfg.CacheMaxAge < 0 || cfg.PreviewRows < 0 {
		return errors.New("config: negative durations or limits are not allowed")
	}
	if cfg.CacheOnly && cfg.NoCache {
		return errors.New("config: cache-only and no-cache are mutually exclusive")
	}
	if (cfg.CacheOnly || cfg.CacheClear || cfg.CacheMaxAge > 0) && strings.TrimSpace(cfg.CacheDir) == "" {
		return errors.New("config: cache options need a cache dir")
	}
	if _, err := output.ParseFormats(cfg.Formats); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Extract.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
