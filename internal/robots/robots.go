package robots

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// ErrDisallowed is returned by Check when robots.txt forbids the page.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Rules is a parsed robots.txt.
type Rules struct {
	Groups []Group
}

// Group is one user-agent block.
type Group struct {
	Agents   []string
	Allow    []string
	Disallow []string
}

// Checker fetches robots.txt for a page's host and evaluates it.
type Checker struct {
	HTTPClient *http.Client
	UserAgent  string
}

// Check returns nil when pageURL may be fetched, ErrDisallowed when the rules
// forbid it, and another error when robots.txt could not be evaluated.
// A missing robots.txt (any 4xx) allows everything; 5xx is treated as a
// temporary full disallow.
func (c *Checker) Check(ctx context.Context, pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	rules, err := c.fetch(ctx, u)
	if err != nil {
		return err
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	if !rules.IsAllowed(c.UserAgent, path) {
		return fmt.Errorf("%w: %s", ErrDisallowed, pageURL)
	}
	return nil
}

func (c *Checker) fetch(ctx context.Context, page *url.URL) (Rules, error) {
	robotsURL := (&url.URL{Scheme: page.Scheme, Host: page.Host, Path: "/robots.txt"}).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Rules{}, fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Rules{}, fmt.Errorf("fetch robots: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode <= 499:
		return Rules{}, nil
	case resp.StatusCode >= 500:
		return Rules{Groups: []Group{{Agents: []string{"*"}, Disallow: []string{"/"}}}}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Rules{}, fmt.Errorf("robots: unexpected status: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return Rules{}, fmt.Errorf("read robots: %w", err)
	}
	return Parse(string(data)), nil
}

// Parse reads robots.txt text. Unknown directives are ignored.
func Parse(text string) Rules {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var groups []Group
	current := Group{}
	flush := func() {
		if len(current.Agents) == 0 {
			current = Group{}
			return
		}
		groups = append(groups, current)
		current = Group{}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:colon]))
		val := strings.TrimSpace(line[colon+1:])
		switch key {
		case "user-agent":
			// Consecutive user-agent lines share one group.
			if len(current.Allow) > 0 || len(current.Disallow) > 0 {
				flush()
			}
			current.Agents = append(current.Agents, strings.ToLower(val))
		case "allow":
			current.Allow = append(current.Allow, val)
		case "disallow":
			current.Disallow = append(current.Disallow, val)
		}
	}
	flush()
	return Rules{Groups: groups}
}

// IsAllowed picks the group whose agent token is the longest substring of the
// product token of userAgent ('*' as fallback) and applies its most specific matching rule.
// Allow wins ties; no matching rule allows.
func (r Rules) IsAllowed(userAgent, path string) bool {
	idx := r.groupFor(userAgent)
	if idx < 0 {
		return true
	}
	g := r.Groups[idx]
	bestScore := -1
	bestAllow := true
	evaluate := func(patterns []string, allow bool) {
		for _, p := range patterns {
			if p == "" || !patternMatches(p, path) {
				continue
			}
			score := len(strings.ReplaceAll(strings.TrimSuffix(p, "$"), "*", ""))
			if score > bestScore || (score == bestScore && allow && !bestAllow) {
				bestScore = score
				bestAllow = allow
			}
		}
	}
	evaluate(g.Disallow, false)
	evaluate(g.Allow, true)
	return bestAllow
}

func (r Rules) groupFor(userAgent string) int {
	ua := productToken(userAgent)
	best, bestScore := -1, -1
	for i, g := range r.Groups {
		for _, a := range g.Agents {
			score := -1
			switch {
			case a == "*":
				score = 0
			case a != "" && strings.Contains(ua, a):
				score = len(a)
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}
	}
	return best
}

// productToken returns the lowercased name before the first '/' or space, so
// "paperscrape/1.0 (+https://github.com/...)" yields "paperscrape".
func productToken(userAgent string) string {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	if i := strings.IndexAny(ua, "/ \t"); i >= 0 {
		ua = ua[:i]
	}
	return ua
}

// patternMatches supports '*' wildcards and a trailing '$' anchor; matching
// is anchored at the start of the path.
func patternMatches(pattern, path string) bool {
	anchorEnd := strings.HasSuffix(pattern, "$")
	p := strings.TrimSuffix(pattern, "$")
	var b strings.Builder
	b.WriteString("^")
	for i, part := range strings.Split(p, "*") {
		if i > 0 {
			b.WriteString(".*")
		}
		b.WriteString(regexp.QuoteMeta(part))
	}
	if anchorEnd {
		b.WriteString("$")
	}
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(path)
}
