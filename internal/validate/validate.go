// Package validate reports best-effort field presence for extracted records.
// It never rejects a record; the report feeds the run summary and manifest.
package validate

import (
	"net/url"
	"strings"

	"github.com/hyperifyio/paperscrape/internal/extract"
)

// Report counts records lacking optional fields.
type Report struct {
	Total          int                      `json:"total"`
	MissingAuthors int                      `json:"missing_authors"`
	MissingLinks   map[extract.LinkKind]int `json:"missing_links"`
	// NonAbsolute lists 1-based record positions with a link that is not an
	// absolute http(s) URL, which happens when no base URL was known.
	NonAbsolute []int `json:"non_absolute,omitempty"`
	// Incomplete lists 1-based positions of records with neither authors nor
	// any link.
	Incomplete []int `json:"incomplete,omitempty"`
}

// Records inspects records in order.
func Records(records []extract.Record) Report {
	rep := Report{Total: len(records), MissingLinks: make(map[extract.LinkKind]int, len(extract.LinkKinds))}
	for _, kind := range extract.LinkKinds {
		rep.MissingLinks[kind] = 0
	}
	for i, r := range records {
		pos := i + 1
		if strings.TrimSpace(r.Authors) == "" {
			rep.MissingAuthors++
		}
		var links int
		relative := false
		for _, kind := range extract.LinkKinds {
			href, ok := r.Link(kind)
			if !ok {
				rep.MissingLinks[kind]++
				continue
			}
			links++
			if !isAbsoluteHTTP(href) {
				relative = true
			}
		}
		if relative {
			rep.NonAbsolute = append(rep.NonAbsolute, pos)
		}
		if links == 0 && strings.TrimSpace(r.Authors) == "" {
			rep.Incomplete = append(rep.Incomplete, pos)
		}
	}
	return rep
}

func isAbsoluteHTTP(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
