package page

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/unicode/norm"
)

// Document is a parsed page: its text as lines plus its anchors.
type Document struct {
	doc     *goquery.Document
	baseURL string
	text    string
}

// Parse decodes body according to contentType (falling back to <meta>
// charset sniffing) and parses it as HTML. pageURL is the address the body
// was fetched from; a <base href> in the document takes precedence for
// resolving relative links.
func Parse(body io.Reader, contentType string, pageURL string) (*Document, error) {
	utf8Body, err := charset.NewReader(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	d := &Document{doc: doc, baseURL: pageURL}
	if href, ok := doc.Find("head base[href]").First().Attr("href"); ok {
		d.baseURL = resolveBase(pageURL, href)
	}
	// Only body text counts; <head> carries metadata, not listing lines.
	root := doc.Find("body").First()
	if root.Length() == 0 {
		root = doc.Selection
	}
	var b strings.Builder
	for _, n := range root.Nodes {
		collectText(&b, n)
	}
	d.text = norm.NFC.String(b.String())
	return d, nil
}

// Lines splits the page text on newlines. Lines are not trimmed.
func (d *Document) Lines() []string {
	if d.text == "" {
		return nil
	}
	return strings.Split(d.text, "\n")
}

// BaseURL is the URL relative hrefs should be resolved against.
func (d *Document) BaseURL() string { return d.baseURL }

// Title returns the trimmed <title> text.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("head title").First().Text())
}

// FirstLink returns the href of the first anchor, in document order, that
// match accepts.
func (d *Document) FirstLink(match func(href string) bool) (string, bool) {
	var found string
	var ok bool
	d.doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if match(href) {
			found, ok = href, true
			return false
		}
		return true
	})
	return found, ok
}

// LinkCount returns the number of anchors carrying an href.
func (d *Document) LinkCount() int {
	return d.doc.Find("a[href]").Length()
}

// collectText appends text nodes in document order, skipping elements whose
// content is not page text.
func collectText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "template":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

func resolveBase(pageURL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return pageURL
	}
	base, err := url.Parse(pageURL)
	if err != nil || pageURL == "" {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
