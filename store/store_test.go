//go:build cgo

package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ---------------------------------------------------------------------------
// Schema / construction
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	s := newTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil *sql.DB")
	}
	v, err := s.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("reading schema version: %v", err)
	}
	if v != len(migrations) {
		t.Fatalf("expected schema version %d, got %d", len(migrations), v)
	}
}

func TestNewCreatesParentDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sub", "dir")
	dbPath := filepath.Join(dir, "trace.db")
	s, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("creating store in nested dir: %v", err)
	}
	s.Close()
}

func TestReopenSkipsAppliedMigrations(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	s, err := New(dbPath, nil)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	s.Close()

	// Migration 2 is an ALTER TABLE; running it twice would fail.
	s, err = New(dbPath, nil)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	s.Close()
}

// ---------------------------------------------------------------------------
// Runs and traces
// ---------------------------------------------------------------------------

func TestRunRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.BeginRun(ctx, "corpus.txt", "qwen-turbo")
	if err != nil {
		t.Fatalf("beginning run: %v", err)
	}
	if id == "" {
		t.Fatal("expected run id")
	}

	run, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("getting run: %v", err)
	}
	if run.FinishedAt != "" {
		t.Fatalf("unfinished run has finished_at %q", run.FinishedAt)
	}

	if err := s.FinishRun(ctx, id, Totals{Sentences: 2, Words: 5, FailedWords: 1, FailedSentences: 0}); err != nil {
		t.Fatalf("finishing run: %v", err)
	}

	run, err = s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("getting run: %v", err)
	}
	if run.Input != "corpus.txt" || run.Model != "qwen-turbo" {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.Sentences != 2 || run.Words != 5 || run.FailedWords != 1 {
		t.Fatalf("unexpected totals %+v", run)
	}
	if run.FinishedAt == "" {
		t.Fatal("expected finished_at to be set")
	}

	runs, err := s.Runs(ctx)
	if err != nil {
		t.Fatalf("listing runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != id {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	s := newTestStore(t)
	err := s.FinishRun(context.Background(), "missing", Totals{})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestRowsInOutputOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.BeginRun(ctx, "corpus.txt", "qwen-max")
	if err != nil {
		t.Fatalf("beginning run: %v", err)
	}

	for idx, text := range []string{"ܐ ܒ", "ܓ"} {
		if err := s.AddSentence(ctx, id, idx, text); err != nil {
			t.Fatalf("adding sentence: %v", err)
		}
	}

	// Inserted out of order on purpose.
	in := []Row{
		{RunID: id, SentenceIdx: 1, Seq: 0, Depth: 0, Word: "ܓ"},
		{RunID: id, SentenceIdx: 0, Seq: 1, Depth: 1, Shape: "PrefixedAnalyticalWordResponse", Answer: "Prefix: ∅"},
		{RunID: id, SentenceIdx: 0, Seq: 0, Depth: 0, Word: "ܐ"},
	}
	for _, r := range in {
		if err := s.AddRow(ctx, r); err != nil {
			t.Fatalf("adding row: %v", err)
		}
	}

	rows, err := s.Rows(ctx, id)
	if err != nil {
		t.Fatalf("listing rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Word != "ܐ" || rows[1].Answer != "Prefix: ∅" || rows[2].Word != "ܓ" {
		t.Fatalf("unexpected order %+v", rows)
	}
	if rows[0].Shape != "" || rows[0].Answer != "" {
		t.Fatalf("word row carries answer fields: %+v", rows[0])
	}

	sentences, err := s.Sentences(ctx, id)
	if err != nil {
		t.Fatalf("listing sentences: %v", err)
	}
	if len(sentences) != 2 || sentences[1].Text != "ܓ" {
		t.Fatalf("unexpected sentences %+v", sentences)
	}

	if err := s.DeleteRun(ctx, id); err != nil {
		t.Fatalf("deleting run: %v", err)
	}
	rows, err = s.Rows(ctx, id)
	if err != nil {
		t.Fatalf("listing rows after delete: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected cascade delete, got %d rows", len(rows))
	}
}
