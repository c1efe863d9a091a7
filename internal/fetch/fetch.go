package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperifyio/paperscrape/internal/cache"
)

// ErrNotCached is returned in cache-only mode when the page was never stored.
var ErrNotCached = errors.New("page not in cache")

const (
	defaultTimeout      = 15 * time.Second
	defaultRedirectHops = 5
	defaultMaxBodyBytes = 32 << 20
)

// Client performs a single GET per page with a timeout, a redirect cap,
// content-type gating and conditional revalidation against the page cache.
// It does not retry.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// Timeout bounds the whole request including the body read. Zero means 15s.
	Timeout time.Duration
	// Optional on-disk page cache.
	Cache *cache.PageCache
	// BypassCache skips conditional headers and cached bodies but still
	// stores the fresh response.
	BypassCache bool
	// CacheOnly serves from Cache and never touches the network.
	CacheOnly bool
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// MaxBodyBytes caps the body size. Zero means 32 MiB.
	MaxBodyBytes int64
}

// Response is a fetched page.
type Response struct {
	URL         string
	Body        []byte
	ContentType string
	FromCache   bool
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Copy so the redirect policy does not leak into the caller's client.
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{CheckRedirect: c.checkRedirectFunc()}
}

// Get fetches rawURL, consulting the cache when one is configured.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return nil, fmt.Errorf("unsupported URL scheme: %q", rawURL)
	}

	if c.CacheOnly {
		return c.fromCache(ctx, rawURL)
	}

	var meta *cache.Entry
	if c.Cache != nil && !c.BypassCache {
		if m, err := c.Cache.LoadMeta(ctx, rawURL); err == nil {
			meta = m
		}
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if meta != nil {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && meta != nil {
		body, err := c.Cache.LoadBody(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("load cached body: %w", err)
		}
		return &Response{URL: meta.ResolvedURL(), Body: body, ContentType: meta.ContentType, FromCache: true}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !isAllowedHTMLContentType(contentType) {
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}

	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("body exceeds %d bytes", limit)
	}

	finalURL := resp.Request.URL.String()
	if c.Cache != nil {
		// A failed cache write must not fail the fetch.
		_ = c.Cache.Save(ctx, cache.Entry{
			URL:          rawURL,
			FinalURL:     finalURL,
			ContentType:  contentType,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}, body)
	}
	return &Response{URL: finalURL, Body: body, ContentType: contentType}, nil
}

func (c *Client) fromCache(ctx context.Context, rawURL string) (*Response, error) {
	if c.Cache == nil {
		return nil, fmt.Errorf("%w: no cache configured", ErrNotCached)
	}
	meta, err := c.Cache.LoadMeta(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotCached, rawURL)
	}
	body, err := c.Cache.LoadBody(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotCached, rawURL)
	}
	return &Response{URL: meta.ResolvedURL(), Body: body, ContentType: meta.ContentType, FromCache: true}, nil
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = defaultRedirectHops
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
