package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// AppName scopes the default cache location.
const AppName = "paperscrape"

// DefaultDir returns $XDG_CACHE_HOME/paperscrape.
func DefaultDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Entry is the metadata kept next to a cached page body. It carries the
// validators needed for conditional revalidation. FinalURL is where URL led
// after redirects and is the base for links in the cached body.
type Entry struct {
	URL          string    `json:"url"`
	FinalURL     string    `json:"final_url,omitempty"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	SavedAt      time.Time `json:"saved_at"`
}

// PageCache stores fetched pages on disk as <key>.meta.json and <key>.body,
// where key is sha256(url). There is no eviction besides PurgeByAge.
type PageCache struct {
	Dir string
	// StrictPerms restricts the directory to 0700 and files to 0600.
	StrictPerms bool
}

func (c *PageCache) dirMode() os.FileMode {
	if c.StrictPerms {
		return 0o700
	}
	return 0o755
}

func (c *PageCache) fileMode() os.FileMode {
	if c.StrictPerms {
		return 0o600
	}
	return 0o644
}

func (c *PageCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	if err := os.MkdirAll(c.Dir, c.dirMode()); err != nil {
		return err
	}
	if c.StrictPerms {
		if info, err := os.Stat(c.Dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(c.Dir, 0o700)
		}
	}
	return nil
}

// Key returns the file stem used for url.
func Key(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

func (c *PageCache) metaPath(key string) string { return filepath.Join(c.Dir, key+".meta.json") }
func (c *PageCache) bodyPath(key string) string { return filepath.Join(c.Dir, key+".body") }

// LoadMeta returns the entry for url, or an error wrapping os.ErrNotExist.
func (c *PageCache) LoadMeta(_ context.Context, url string) (*Entry, error) {
	if err := c.ensureDir(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(c.metaPath(Key(url)))
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	return &e, nil
}

// LoadBody returns the cached body for url.
func (c *PageCache) LoadBody(_ context.Context, url string) ([]byte, error) {
	if err := c.ensureDir(); err != nil {
		return nil, err
	}
	return os.ReadFile(c.bodyPath(Key(url)))
}

// ResolvedURL returns FinalURL, falling back to URL for entries saved
// without one.
func (e *Entry) ResolvedURL() string {
	if e.FinalURL != "" {
		return e.FinalURL
	}
	return e.URL
}

// Save writes body then meta; meta goes through a rename so a reader never
// sees metadata without its body.
func (c *PageCache) Save(_ context.Context, e Entry, body []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	key := Key(e.URL)
	if err := os.WriteFile(c.bodyPath(key), body, c.fileMode()); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now().UTC()
	}
	data, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	tmp := c.metaPath(key) + ".tmp"
	if err := os.WriteFile(tmp, data, c.fileMode()); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return os.Rename(tmp, c.metaPath(key))
}
