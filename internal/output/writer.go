package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperifyio/paperscrape/internal/extract"
)

// Format is an artifact kind.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
	FormatJSON  Format = "json"
	FormatPDF   Format = "pdf"
)

// DefaultFormats are written when none are configured.
var DefaultFormats = []Format{FormatCSV, FormatJSONL, FormatJSON}

// ParseFormats turns "csv,json" into formats, rejecting unknown names.
func ParseFormats(list []string) ([]Format, error) {
	var out []Format
	seen := map[Format]bool{}
	for _, s := range list {
		f := Format(strings.ToLower(strings.TrimSpace(s)))
		if f == "" {
			continue
		}
		switch f {
		case FormatCSV, FormatJSONL, FormatJSON, FormatPDF:
		default:
			return nil, fmt.Errorf("unknown output format %q", s)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return append([]Format(nil), DefaultFormats...), nil
	}
	return out, nil
}

// Artifact is a file written by Writer.
type Artifact struct {
	Format Format `json:"format"`
	Path   string `json:"path"`
}

// Writer writes records into Dir as <Prefix>.<ext> for each format.
type Writer struct {
	Dir     string
	Prefix  string
	Formats []Format
	// Heading is used as the PDF title.
	Heading string
}

// Write creates Dir if needed and writes every configured artifact.
func (w *Writer) Write(records []extract.Record) ([]Artifact, error) {
	if strings.TrimSpace(w.Dir) == "" {
		return nil, errors.New("output dir not configured")
	}
	prefix := strings.TrimSpace(w.Prefix)
	if prefix == "" {
		prefix = "papers"
	}
	formats := w.Formats
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	artifacts := make([]Artifact, 0, len(formats))
	for _, f := range formats {
		path := filepath.Join(w.Dir, prefix+"."+string(f))
		var err error
		switch f {
		case FormatCSV:
			err = writeFile(path, func(out io.Writer) error { return WriteCSV(out, records) })
		case FormatJSONL:
			err = writeFile(path, func(out io.Writer) error { return WriteJSONL(out, records) })
		case FormatJSON:
			err = writeFile(path, func(out io.Writer) error { return WriteJSON(out, records) })
		case FormatPDF:
			err = WritePDF(path, w.Heading, records)
		default:
			err = fmt.Errorf("unknown output format %q", f)
		}
		if err != nil {
			return artifacts, fmt.Errorf("write %s: %w", f, err)
		}
		artifacts = append(artifacts, Artifact{Format: f, Path: path})
	}
	return artifacts, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
