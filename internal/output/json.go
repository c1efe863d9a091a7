package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperifyio/paperscrape/internal/extract"
)

// jsonRecord fixes key order and renders absent fields as null.
type jsonRecord struct {
	Title         string  `json:"title"`
	Authors       *string `json:"authors"`
	PDF           *string `json:"pdf"`
	Supplementary *string `json:"supplementary"`
	ExternalRef   *string `json:"external-reference"`
}

func toJSONRecord(r extract.Record) jsonRecord {
	opt := func(s string, ok bool) *string {
		if !ok || s == "" {
			return nil
		}
		return &s
	}
	jr := jsonRecord{Title: r.Title, Authors: opt(r.Authors, r.Authors != "")}
	jr.PDF = opt(r.Link(extract.LinkPDF))
	jr.Supplementary = opt(r.Link(extract.LinkSupplementary))
	jr.ExternalRef = opt(r.Link(extract.LinkExternalRef))
	return jr
}

// WriteJSONL writes one JSON object per line. Non-ASCII text is written as is.
func WriteJSONL(w io.Writer, records []extract.Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range records {
		if err := enc.Encode(toJSONRecord(r)); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}
	return nil
}

// WriteJSON writes all records as one indented array.
func WriteJSON(w io.Writer, records []extract.Record) error {
	out := make([]jsonRecord, 0, len(records))
	for _, r := range records {
		out = append(out, toJSONRecord(r))
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
