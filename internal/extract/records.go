package extract

import (
	"net/url"
	"path"
	"strings"
	"unicode/utf8"
)

// LinkKind names a link field of a Record.
type LinkKind string

const (
	LinkPDF           LinkKind = "pdf"
	LinkSupplementary LinkKind = "supplementary"
	LinkExternalRef   LinkKind = "external-reference"
)

// LinkKinds lists the kinds in column order.
var LinkKinds = []LinkKind{LinkPDF, LinkSupplementary, LinkExternalRef}

// Tag returns the bracket tag that announces the link kind in page text.
func (k LinkKind) Tag() string {
	switch k {
	case LinkPDF:
		return PDFTag
	case LinkSupplementary:
		return SupplementaryTag
	case LinkExternalRef:
		return ExternalRefTag
	}
	return ""
}

// Record is one paper entry recovered from a page. Title is never empty.
// Authors is empty when no author lines were found; Links only holds kinds
// that resolved to an absolute URL.
type Record struct {
	Title   string              `json:"title"`
	Authors string              `json:"authors,omitempty"`
	Links   map[LinkKind]string `json:"links,omitempty"`
}

// Link returns the URL for kind and whether it is present.
func (r Record) Link(kind LinkKind) (string, bool) {
	u, ok := r.Links[kind]
	return u, ok
}

// LinkFinder gives access to the anchors of the fetched document.
type LinkFinder interface {
	// FirstLink returns the first href in document order accepted by match.
	FirstLink(match func(href string) bool) (string, bool)
}

// StaticLinks is a LinkFinder over a fixed list of hrefs in document order.
type StaticLinks []string

func (s StaticLinks) FirstLink(match func(href string) bool) (string, bool) {
	for _, href := range s {
		if match(href) {
			return href, true
		}
	}
	return "", false
}

const (
	linkMarkerPrefix = "["
	bibEntryPrefix   = "@"
)

// Extract scans lines forward and reconstructs paper records from their
// position: a long line opens a record, the short lines after it are authors,
// and link tags near the following bibliographic entry are resolved through
// links. links may be nil, in which case no link fields are filled.
//
// Extract holds no state and never fails; odd input yields fewer or emptier
// records.
func Extract(lines []string, links LinkFinder, opts Options) []Record {
	records := make([]Record, 0)
	n := len(lines)
	i := 0
	for i < n {
		line := strings.TrimSpace(lines[i])
		if line == "" || opts.denied(line) || !opts.isTitle(line) {
			i++
			continue
		}

		rec := Record{Title: line}
		var authors []string
		j := i + 1
		for ; j < n && j < i+opts.AuthorWindow; j++ {
			next := strings.TrimSpace(lines[j])
			if opts.isTitle(next) {
				break
			}
			if opts.isAuthorLine(next) {
				authors = append(authors, next)
			}
		}
		if len(authors) > 0 {
			rec.Authors = strings.Join(authors, opts.AuthorDelimiter)
		}
		if links != nil {
			rec.Links = resolveLinks(lines, i, links, opts)
		}
		records = append(records, rec)

		// The author window is consumed; resume at the line that closed it.
		i = j
	}
	return records
}

// CountTitleCandidates returns how many lines satisfy the title predicate.
func CountTitleCandidates(lines []string, opts Options) int {
	count := 0
	for _, l := range lines {
		if opts.isTitle(strings.TrimSpace(l)) {
			count++
		}
	}
	return count
}

func (o Options) isTitle(line string) bool {
	if utf8.RuneCountInString(line) <= o.MinTitleLen {
		return false
	}
	for _, p := range o.ExcludedPrefixes {
		if strings.HasPrefix(line, p) {
			return false
		}
	}
	return true
}

func (o Options) isAuthorLine(line string) bool {
	if strings.Contains(line, ",") && utf8.RuneCountInString(line) > o.MinCommaAuthorLen {
		return true
	}
	return line != "" && !strings.HasPrefix(line, linkMarkerPrefix) && !strings.HasPrefix(line, bibEntryPrefix)
}

func resolveLinks(lines []string, title int, links LinkFinder, opts Options) map[LinkKind]string {
	bib := -1
	for k := title; k < len(lines) && k < title+opts.BibWindow; k++ {
		if strings.HasPrefix(strings.TrimSpace(lines[k]), opts.BibMarker) {
			bib = k
			break
		}
	}
	if bib < 0 {
		return nil
	}

	found := make(map[LinkKind]string)
	lo := max(0, bib-opts.LinkRadius)
	hi := min(len(lines), bib+opts.LinkRadius)
	for k := lo; k < hi; k++ {
		lower := strings.ToLower(strings.TrimSpace(lines[k]))
		for _, kind := range LinkKinds {
			if _, ok := found[kind]; ok {
				continue
			}
			if !strings.Contains(lower, kind.Tag()) {
				continue
			}
			href, ok := links.FirstLink(opts.matcher(kind))
			if !ok {
				continue
			}
			if abs, ok := absoluteURL(opts.BaseURL, href); ok {
				found[kind] = abs
			}
		}
	}
	if len(found) == 0 {
		return nil
	}
	return found
}

// matcher returns the href predicate for a link kind.
func (o Options) matcher(kind LinkKind) func(string) bool {
	switch kind {
	case LinkPDF:
		return func(href string) bool {
			return strings.EqualFold(hrefExt(href), "pdf")
		}
	case LinkSupplementary:
		return func(href string) bool {
			ext := hrefExt(href)
			for _, e := range o.SupplementaryExts {
				if ext != "" && strings.EqualFold(ext, e) {
					return true
				}
			}
			return false
		}
	case LinkExternalRef:
		domain := strings.ToLower(o.ExternalRefDomain)
		return func(href string) bool {
			if domain == "" {
				return false
			}
			host, _ := hrefParts(href)
			return strings.Contains(strings.ToLower(host), domain)
		}
	}
	return func(string) bool { return false }
}

// hrefExt returns the extension of the href's path without the dot.
func hrefExt(href string) string {
	_, p := hrefParts(href)
	return strings.TrimPrefix(path.Ext(p), ".")
}

// hrefParts returns the host and path of href. An href that does not parse
// even after escaping stray '%' is split by hand: query and fragment are cut
// and the host is whatever follows "//" up to the next '/'.
func hrefParts(href string) (host, p string) {
	if u, err := parseHref(href); err == nil {
		return u.Host, u.Path
	}
	s := strings.TrimSpace(href)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "//"); i >= 0 {
		rest := s[i+2:]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			return rest[:j], rest[j:]
		}
		return rest, ""
	}
	return "", s
}

// parseHref parses href, retrying with stray '%' signs escaped as "%25".
// Listing pages carry hrefs such as "100%_recall.pdf" that browsers accept.
func parseHref(href string) (*url.URL, error) {
	href = strings.TrimSpace(href)
	u, err := url.Parse(href)
	if err == nil {
		return u, nil
	}
	return url.Parse(escapeStrayPercent(href))
}

func escapeStrayPercent(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && (i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2])) {
			b.WriteString("%25")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func absoluteURL(base, href string) (string, bool) {
	ref, err := parseHref(href)
	if err != nil {
		return "", false
	}
	if strings.TrimSpace(base) != "" {
		b, err := url.Parse(base)
		if err != nil {
			return "", false
		}
		ref = b.ResolveReference(ref)
	}
	if !ref.IsAbs() {
		return "", false
	}
	return ref.String(), true
}
