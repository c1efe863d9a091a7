package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/hyperifyio/paperscrape/internal/extract"
)

// DB keeps extraction runs and their records in a single SQLite file.
type DB struct {
	db *sql.DB
}

// Run describes one extraction of one page.
type Run struct {
	ID          int64
	SourceURL   string
	PageTitle   string
	BodySHA256  string
	FetchedAt   time.Time
	RecordCount int
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_url TEXT NOT NULL,
	page_title TEXT,
	body_sha256 TEXT,
	fetched_at DATETIME NOT NULL,
	record_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source_url);

CREATE TABLE IF NOT EXISTS records (
	run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	title TEXT NOT NULL,
	authors TEXT,
	pdf_url TEXT,
	supplementary_url TEXT,
	external_ref_url TEXT,
	PRIMARY KEY (run_id, position)
);
`

// Open opens or creates the database at path, creating parent directories.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer; the tool is single-threaded anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (s *DB) Close() error {
	return s.db.Close()
}

// SaveRun stores run and its records in one transaction and returns the run id.
func (s *DB) SaveRun(ctx context.Context, run Run, records []extract.Record) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	fetched := run.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (source_url, page_title, body_sha256, fetched_at, record_count) VALUES (?, ?, ?, ?, ?)`,
		run.SourceURL, run.PageTitle, run.BodySHA256, fetched.UTC().Format(time.RFC3339Nano), len(records))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (run_id, position, title, authors, pdf_url, supplementary_url, external_ref_url) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare record insert: %w", err)
	}
	defer stmt.Close()
	for i, r := range records {
		if _, err = stmt.ExecContext(ctx, id, i, r.Title,
			nullable(r.Authors),
			nullable(r.Links[extract.LinkPDF]),
			nullable(r.Links[extract.LinkSupplementary]),
			nullable(r.Links[extract.LinkExternalRef]),
		); err != nil {
			return 0, fmt.Errorf("insert record %d: %w", i, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// LatestRun returns the most recent run for sourceURL, or sql.ErrNoRows.
func (s *DB) LatestRun(ctx context.Context, sourceURL string) (Run, error) {
	var r Run
	var fetched string
	var title, digest sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_url, page_title, body_sha256, fetched_at, record_count FROM runs WHERE source_url = ? ORDER BY id DESC LIMIT 1`,
		sourceURL).Scan(&r.ID, &r.SourceURL, &title, &digest, &fetched, &r.RecordCount)
	if err != nil {
		return Run{}, err
	}
	r.PageTitle = title.String
	r.BodySHA256 = digest.String
	if t, perr := time.Parse(time.RFC3339Nano, fetched); perr == nil {
		r.FetchedAt = t
	}
	return r, nil
}

// Records returns the records of a run in extraction order.
func (s *DB) Records(ctx context.Context, runID int64) ([]extract.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, authors, pdf_url, supplementary_url, external_ref_url FROM records WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []extract.Record
	for rows.Next() {
		var r extract.Record
		var authors, pdf, supp, ext sql.NullString
		if err := rows.Scan(&r.Title, &authors, &pdf, &supp, &ext); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Authors = authors.String
		for kind, v := range map[extract.LinkKind]sql.NullString{
			extract.LinkPDF:           pdf,
			extract.LinkSupplementary: supp,
			extract.LinkExternalRef:   ext,
		} {
			if v.Valid {
				if r.Links == nil {
					r.Links = make(map[extract.LinkKind]string)
				}
				r.Links[kind] = v.String
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
