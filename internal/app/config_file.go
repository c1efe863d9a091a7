package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the YAML/JSON configuration schema. Zero values leave the
// corresponding setting untouched.
type FileConfig struct {
	URL     string `yaml:"url" json:"url"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
	DB      string `yaml:"db" json:"db"`

	Out struct {
		Dir        string   `yaml:"dir" json:"dir"`
		Prefix     string   `yaml:"prefix" json:"prefix"`
		Formats    []string `yaml:"formats" json:"formats"`
		PDFHeading string   `yaml:"pdfHeading" json:"pdfHeading"`
	} `yaml:"out" json:"out"`

	Preview struct {
		Rows *int `yaml:"rows" json:"rows"`
	} `yaml:"preview" json:"preview"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
		Only        bool          `yaml:"only" json:"only"`
		Disable     bool          `yaml:"disable" json:"disable"`
	} `yaml:"cache" json:"cache"`

	HTTP struct {
		UserAgent string        `yaml:"userAgent" json:"userAgent"`
		Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	} `yaml:"http" json:"http"`

	Robots struct {
		Ignore bool `yaml:"ignore" json:"ignore"`
	} `yaml:"robots" json:"robots"`

	Extract ExtractFileConfig `yaml:"extract" json:"extract"`
}

// ExtractFileConfig overrides the record heuristics for non-CVF listings.
type ExtractFileConfig struct {
	MinTitleLen       *int     `yaml:"minTitleLen" json:"minTitleLen"`
	AuthorWindow      int      `yaml:"authorWindow" json:"authorWindow"`
	BibWindow         int      `yaml:"bibWindow" json:"bibWindow"`
	LinkRadius        int      `yaml:"linkRadius" json:"linkRadius"`
	MinCommaAuthorLen *int     `yaml:"minCommaAuthorLen" json:"minCommaAuthorLen"`
	Denylist          []string `yaml:"denylist" json:"denylist"`
	ExcludedPrefixes  []string `yaml:"excludedPrefixes" json:"excludedPrefixes"`
	BibMarker         string   `yaml:"bibMarker" json:"bibMarker"`
	AuthorDelimiter   string   `yaml:"authorDelimiter" json:"authorDelimiter"`
	SupplementaryExts []string `yaml:"supplementaryExts" json:"supplementaryExts"`
	ExternalRefDomain string   `yaml:"externalRefDomain" json:"externalRefDomain"`
	BaseURL           string   `yaml:"baseURL" json:"baseURL"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value set in fc onto cfg. It runs before env
// and flag overrides.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setString(&cfg.URL, fc.URL)
	setString(&cfg.DBPath, fc.DB)
	cfg.Verbose = cfg.Verbose || fc.Verbose

	setString(&cfg.OutDir, fc.Out.Dir)
	setString(&cfg.Prefix, fc.Out.Prefix)
	setString(&cfg.PDFHeading, fc.Out.PDFHeading)
	if len(fc.Out.Formats) > 0 {
		cfg.Formats = append([]string(nil), fc.Out.Formats...)
	}
	if fc.Preview.Rows != nil {
		cfg.PreviewRows = *fc.Preview.Rows
	}

	setString(&cfg.CacheDir, fc.Cache.Dir)
	if fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	cfg.CacheClear = cfg.CacheClear || fc.Cache.Clear
	cfg.CacheStrictPerms = cfg.CacheStrictPerms || fc.Cache.StrictPerms
	cfg.CacheOnly = cfg.CacheOnly || fc.Cache.Only
	cfg.NoCache = cfg.NoCache || fc.Cache.Disable

	setString(&cfg.UserAgent, fc.HTTP.UserAgent)
	if fc.HTTP.Timeout > 0 {
		cfg.Timeout = fc.HTTP.Timeout
	}
	cfg.RobotsIgnore = cfg.RobotsIgnore || fc.Robots.Ignore

	applyExtractFileConfig(cfg, fc.Extract)
}

func applyExtractFileConfig(cfg *Config, fc ExtractFileConfig) {
	o := &cfg.Extract
	if fc.MinTitleLen != nil {
		o.MinTitleLen = *fc.MinTitleLen
	}
	if fc.MinCommaAuthorLen != nil {
		o.MinCommaAuthorLen = *fc.MinCommaAuthorLen
	}
	if fc.AuthorWindow != 0 {
		o.AuthorWindow = fc.AuthorWindow
	}
	if fc.BibWindow != 0 {
		o.BibWindow = fc.BibWindow
	}
	if fc.LinkRadius != 0 {
		o.LinkRadius = fc.LinkRadius
	}
	// A present list replaces the default, so an empty list clears it.
	if fc.Denylist != nil {
		o.Denylist = append([]string{}, fc.Denylist...)
	}
	if fc.ExcludedPrefixes != nil {
		o.ExcludedPrefixes = append([]string{}, fc.ExcludedPrefixes...)
	}
	if fc.SupplementaryExts != nil {
		o.SupplementaryExts = append([]string{}, fc.SupplementaryExts...)
	}
	setString(&o.BibMarker, fc.BibMarker)
	setString(&o.AuthorDelimiter, fc.AuthorDelimiter)
	setString(&o.ExternalRefDomain, fc.ExternalRefDomain)
	setString(&o.BaseURL, fc.BaseURL)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
