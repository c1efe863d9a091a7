package app

import (
	"os"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set. Env takes precedence over the config file; flags are applied after it.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	if v := os.Getenv("PAPERSCRAPE_URL"); v != "" {
		cfg.URL = v
	}
	if v := os.Getenv("PAPERSCRAPE_OUT_DIR"); v != "" {
		cfg.OutDir = v
	}
	if v := os.Getenv("PAPERSCRAPE_PREFIX"); v != "" {
		cfg.Prefix = v
	}
	if v := strings.TrimSpace(os.Getenv("PAPERSCRAPE_FORMATS")); v != "" {
		cfg.Formats = strings.Split(v, ",")
	}
	if v := os.Getenv("PAPERSCRAPE_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("PAPERSCRAPE_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	setDuration := func(dst *time.Duration, key string) {
		if s := strings.TrimSpace(os.Getenv(key)); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				*dst = d
			}
		}
	}
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")
	setDuration(&cfg.Timeout, "PAPERSCRAPE_TIMEOUT")

	// Booleans override only when the value is recognisably true or false.
	setBool := func(dst *bool, key string) {
		switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.CacheOnly, "HTTP_CACHE_ONLY")
	setBool(&cfg.RobotsIgnore, "ROBOTS_IGNORE")
}
