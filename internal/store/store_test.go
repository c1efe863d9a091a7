package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hyperifyio/paperscrape/internal/extract"
)

func TestDB_SaveAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "papers.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	records := []extract.Record{
		{
			Title:   "Seeing Through the Fog of Diffusion",
			Authors: "Jane Doe; Jürgen Müller",
			Links:   map[extract.LinkKind]string{extract.LinkPDF: "https://openaccess.thecvf.com/a.pdf"},
		},
		{Title: "A Paper With Nothing Else Attached"},
	}
	ctx := context.Background()
	fetched := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	id, err := db.SaveRun(ctx, Run{SourceURL: "https://openaccess.thecvf.com/CVPR2024?day=all", PageTitle: "CVPR 2024", BodySHA256: "abc", FetchedAt: fetched}, records)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := db.Records(ctx, id)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if diff := cmp.Diff(records, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}

	run, err := db.LatestRun(ctx, "https://openaccess.thecvf.com/CVPR2024?day=all")
	if err != nil {
		t.Fatalf("latest run: %v", err)
	}
	if run.ID != id || run.RecordCount != 2 || !run.FetchedAt.Equal(fetched) || run.PageTitle != "CVPR 2024" {
		t.Fatalf("unexpected run %+v", run)
	}
}

func TestDB_LatestRunPicksNewest(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "papers.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	u := "https://example.org/list"

	if _, err := db.LatestRun(ctx, u); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
	first, err := db.SaveRun(ctx, Run{SourceURL: u}, nil)
	if err != nil {
		t.Fatalf("save first: %v", err)
	}
	second, err := db.SaveRun(ctx, Run{SourceURL: u}, []extract.Record{{Title: "Only One Long Enough Title Here"}})
	if err != nil {
		t.Fatalf("save second: %v", err)
	}
	if second <= first {
		t.Fatalf("expected increasing ids, got %d then %d", first, second)
	}
	run, err := db.LatestRun(ctx, u)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if run.ID != second || run.RecordCount != 1 {
		t.Fatalf("unexpected latest run %+v", run)
	}
	if recs, err := db.Records(ctx, first); err != nil || len(recs) != 0 {
		t.Fatalf("expected empty first run, got %v (%v)", recs, err)
	}
}
