package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperifyio/paperscrape/internal/output"
	"github.com/hyperifyio/paperscrape/internal/validate"
)

// manifest is the machine-readable sidecar written next to the artifacts.
type manifest struct {
	SourceURL   string            `json:"source_url"`
	PageTitle   string            `json:"page_title"`
	BodySHA256  string            `json:"body_sha256"`
	FromCache   bool              `json:"from_cache"`
	LineCount   int               `json:"line_count"`
	Candidates  int               `json:"title_candidates"`
	RecordCount int               `json:"record_count"`
	GeneratedAt time.Time         `json:"generated_at"`
	Version     string            `json:"version"`
	Commit      string            `json:"commit"`
	Artifacts   []output.Artifact `json:"artifacts"`
	Report      validate.Report   `json:"completeness"`
}

func computeSHA256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// manifestPath returns <dir>/<prefix>.manifest.json.
func manifestPath(dir, prefix string) string {
	return filepath.Join(dir, prefix+".manifest.json")
}

func writeManifest(path string, m manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
