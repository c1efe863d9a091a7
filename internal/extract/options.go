package extract

import (
	"errors"
	"strings"
)

// Default heuristic constants. They match the layout of the CVF open access
// listing pages; the config file can override every one of them.
const (
	DefaultMinTitleLen       = 20
	DefaultAuthorWindow      = 10
	DefaultBibWindow         = 50
	DefaultLinkRadius        = 10
	DefaultMinCommaAuthorLen = 5
	DefaultBibMarker         = "@InProceedings"
	DefaultAuthorDelimiter   = "; "

	PDFTag           = "[pdf]"
	SupplementaryTag = "[supp]"
	ExternalRefTag   = "[arxiv]"

	DefaultExternalRefDomain = "arxiv.org"
)

var (
	// DefaultDenylist holds navigation strings that are skipped on exact match.
	DefaultDenylist = []string{
		"Back",
		"Papers",
		"CVPR 2024 CVF",
		"CVPR 2024 open access",
	}

	// DefaultExcludedPrefixes disqualify a line from being a title.
	DefaultExcludedPrefixes = []string{
		"@",
		"[",
		"Powered by:",
		"Sponsored by:",
		"These CVPR",
		"Except for",
		"This material",
		"Copyright",
		"All persons",
		"Microsoft",
		"Amazon",
		"Facebook",
		"Google",
	}

	// DefaultSupplementaryExts are the archive and video extensions accepted
	// for supplementary material links.
	DefaultSupplementaryExts = []string{"zip", "gz", "tgz", "rar", "mp4", "mov", "avi", "gif"}
)

// Options carries every tunable of the record heuristic.
type Options struct {
	// MinTitleLen is exclusive: a title must be strictly longer.
	MinTitleLen int
	// AuthorWindow counts the title line itself, so at most AuthorWindow-1
	// following lines are inspected for authors.
	AuthorWindow int
	// BibWindow is the number of lines, starting at the title, searched for
	// the bibliographic marker.
	BibWindow int
	// LinkRadius bounds the link tag scan to [bib-LinkRadius, bib+LinkRadius).
	LinkRadius        int
	MinCommaAuthorLen int

	Denylist         []string
	ExcludedPrefixes []string
	BibMarker        string
	AuthorDelimiter  string

	SupplementaryExts []string
	ExternalRefDomain string

	// BaseURL resolves relative hrefs. Empty leaves hrefs as found.
	BaseURL string
}

// DefaultOptions returns the CVF listing heuristics.
func DefaultOptions() Options {
	return Options{
		MinTitleLen:       DefaultMinTitleLen,
		AuthorWindow:      DefaultAuthorWindow,
		BibWindow:         DefaultBibWindow,
		LinkRadius:        DefaultLinkRadius,
		MinCommaAuthorLen: DefaultMinCommaAuthorLen,
		Denylist:          append([]string(nil), DefaultDenylist...),
		ExcludedPrefixes:  append([]string(nil), DefaultExcludedPrefixes...),
		BibMarker:         DefaultBibMarker,
		AuthorDelimiter:   DefaultAuthorDelimiter,
		SupplementaryExts: append([]string(nil), DefaultSupplementaryExts...),
		ExternalRefDomain: DefaultExternalRefDomain,
	}
}

// Validate reports option values that would make the scan meaningless.
func (o Options) Validate() error {
	if o.MinTitleLen < 0 {
		return errors.New("extract: minTitleLen must not be negative")
	}
	if o.AuthorWindow <= 0 || o.BibWindow <= 0 || o.LinkRadius <= 0 {
		return errors.New("extract: window sizes must be positive")
	}
	if strings.TrimSpace(o.BibMarker) == "" {
		return errors.New("extract: bibMarker is required")
	}
	return nil
}

func (o Options) denied(line string) bool {
	for _, d := range o.Denylist {
		if line == d {
			return true
		}
	}
	return false
}
