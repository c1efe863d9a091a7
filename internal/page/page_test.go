package page

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hyperifyio/paperscrape/internal/extract"
)

const listing = `<!doctype html>
<html>
<head><title>CVPR 2024 Open Access Repository</title>
<script>var ignored = "A Script Line That Is Long Enough";</script>
<style>.also { ignored: yes }</style>
</head>
<body>
<div id="header">
<a href="/">CVPR 2024 CVF</a>
</div>
<dl>
<dt class="ptitle"><br><a href="/content/CVPR2024/html/Doe_Seeing_CVPR_2024_paper.html">Seeing Through the Fog of Diffusion</a></dt>
<dd>
<form class="authsearch"><a href="#">Jane Doe</a>,
<a href="#">Jürgen Müller</a></form>
</dd>
<dd>
[<a href="/content/CVPR2024/papers/Doe_Seeing_CVPR_2024_paper.pdf">pdf</a>]
[<a href="/content/CVPR2024/supplemental/Doe_Seeing_CVPR_2024_supplemental.zip">supp</a>]
[<a href="http://arxiv.org/abs/2401.12345">arXiv</a>]
<div class="bibref">
@InProceedings{Doe_2024_CVPR,
}
</div>
</dd>
</dl>
<script>document.write("A Body Script Line That Is Long Enough")</script>
<!-- A Comment Line That Is Long Enough -->
</body>
</html>`

func TestParse_LinesSkipScriptsAndComments(t *testing.T) {
	doc, err := Parse(strings.NewReader(listing), "text/html; charset=utf-8", "https://openaccess.thecvf.com/CVPR2024?day=all")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title() != "CVPR 2024 Open Access Repository" {
		t.Fatalf("unexpected title %q", doc.Title())
	}
	text := doc.text
	if strings.Contains(text, "Script Line That") || strings.Contains(text, "ignored: yes") {
		t.Fatalf("script/style content leaked into text")
	}
	if strings.Contains(text, "Comment Line") {
		t.Fatalf("comment leaked into text")
	}
	var sawTitle bool
	for _, l := range doc.Lines() {
		if strings.TrimSpace(l) == "Seeing Through the Fog of Diffusion" {
			sawTitle = true
		}
	}
	if !sawTitle {
		t.Fatalf("title line missing from %q", doc.Lines())
	}
	if doc.LinkCount() != 7 {
		t.Fatalf("expected 7 anchors, got %d", doc.LinkCount())
	}
}

func TestParse_HeadTitleIsNotAListingLine(t *testing.T) {
	doc, err := Parse(strings.NewReader(listing), "text/html", "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, l := range doc.Lines() {
		if strings.TrimSpace(l) == doc.Title() {
			t.Fatalf("head title must not appear among body lines")
		}
	}
}

func TestParse_FeedsExtractor(t *testing.T) {
	doc, err := Parse(strings.NewReader(listing), "text/html", "https://openaccess.thecvf.com/CVPR2024?day=all")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	opts := extract.DefaultOptions()
	opts.BaseURL = doc.BaseURL()
	recs := extract.Extract(doc.Lines(), doc, opts)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d: %+v", len(recs), recs)
	}
	r := recs[0]
	if r.Title != "Seeing Through the Fog of Diffusion" {
		t.Fatalf("unexpected title %q", r.Title)
	}
	if !strings.Contains(r.Authors, "Jane Doe") || !strings.Contains(r.Authors, "Jürgen Müller") {
		t.Fatalf("unexpected authors %q", r.Authors)
	}
	if u, _ := r.Link(extract.LinkPDF); u != "https://openaccess.thecvf.com/content/CVPR2024/papers/Doe_Seeing_CVPR_2024_paper.pdf" {
		t.Fatalf("unexpected pdf link %q", u)
	}
	if u, _ := r.Link(extract.LinkSupplementary); u != "https://openaccess.thecvf.com/content/CVPR2024/supplemental/Doe_Seeing_CVPR_2024_supplemental.zip" {
		t.Fatalf("unexpected supplementary link %q", u)
	}
	if u, _ := r.Link(extract.LinkExternalRef); u != "http://arxiv.org/abs/2401.12345" {
		t.Fatalf("unexpected arXiv link %q", u)
	}
}

func TestParse_DecodesLegacyCharset(t *testing.T) {
	// "Müller" in ISO-8859-1.
	body := []byte("<html><body><p>M\xfcller</p></body></html>")
	doc, err := Parse(bytes.NewReader(body), "text/html; charset=iso-8859-1", "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(doc.text, "Müller") {
		t.Fatalf("expected decoded text, got %q", doc.text)
	}
}

func TestParse_BaseElementOverridesPageURL(t *testing.T) {
	body := `<html><head><base href="/mirror/"></head><body><a href="x.pdf">pdf</a></body></html>`
	doc, err := Parse(strings.NewReader(body), "text/html", "https://example.org/list/index.html")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.BaseURL() != "https://example.org/mirror/" {
		t.Fatalf("unexpected base %q", doc.BaseURL())
	}
	href, ok := doc.FirstLink(func(h string) bool { return strings.HasSuffix(h, ".pdf") })
	if !ok || href != "x.pdf" {
		t.Fatalf("unexpected first link %q (%v)", href, ok)
	}
}

func TestParse_EmptyBody(t *testing.T) {
	doc, err := Parse(strings.NewReader(""), "", "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(extract.Extract(doc.Lines(), doc, extract.DefaultOptions())) != 0 {
		t.Fatalf("expected no records")
	}
}
