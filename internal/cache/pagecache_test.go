package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPageCache_SaveLoad(t *testing.T) {
	t.Parallel()
	c := &PageCache{Dir: filepath.Join(t.TempDir(), "pages")}
	ctx := context.Background()
	u := "https://openaccess.thecvf.com/CVPR2024?day=all"
	if err := c.Save(ctx, Entry{URL: u, ContentType: "text/html", ETag: `"v1"`}, []byte("<html></html>")); err != nil {
		t.Fatalf("save: %v", err)
	}
	meta, err := c.LoadMeta(ctx, u)
	if err != nil {
		t.Fatalf("load meta: %v", err)
	}
	if meta.ETag != `"v1"` || meta.URL != u || meta.SavedAt.IsZero() {
		t.Fatalf("unexpected meta %+v", meta)
	}
	body, err := c.LoadBody(ctx, u)
	if err != nil || string(body) != "<html></html>" {
		t.Fatalf("unexpected body %q (%v)", body, err)
	}
	if _, err := c.LoadMeta(ctx, u+"&x"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist for unknown url, got %v", err)
	}
}

func TestPageCache_StrictPerms(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "strict")
	c := &PageCache{Dir: dir, StrictPerms: true}
	u := "https://example.org/"
	if err := c.Save(context.Background(), Entry{URL: u}, []byte("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if got := info.Mode() & 0o777; got != 0o700 {
		t.Fatalf("dir mode = %o, want 0700", got)
	}
	for _, p := range []string{c.bodyPath(Key(u)), c.metaPath(Key(u))} {
		fi, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if got := fi.Mode() & 0o777; got != 0o600 {
			t.Fatalf("%s mode = %o, want 0600", filepath.Base(p), got)
		}
	}
}

func TestPurgeByAge(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	c := &PageCache{Dir: dir}
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	if err := c.Save(ctx, Entry{URL: "https://a/old", SavedAt: now.Add(-48 * time.Hour)}, []byte("old")); err != nil {
		t.Fatalf("save old: %v", err)
	}
	if err := c.Save(ctx, Entry{URL: "https://a/new", SavedAt: now.Add(-time.Hour)}, []byte("new")); err != nil {
		t.Fatalf("save new: %v", err)
	}
	removed, err := PurgeByAge(dir, 24*time.Hour, now)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := c.LoadBody(ctx, "https://a/old"); err == nil {
		t.Fatalf("old body should be gone")
	}
	if _, err := c.LoadBody(ctx, "https://a/new"); err != nil {
		t.Fatalf("new body should remain: %v", err)
	}
	if n, err := PurgeByAge(filepath.Join(dir, "missing"), time.Hour, now); err != nil || n != 0 {
		t.Fatalf("missing dir: n=%d err=%v", n, err)
	}
}

func TestClearDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "x.body"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ClearDir(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, got %d entries", len(entries))
	}
	if err := ClearDir("  "); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}
