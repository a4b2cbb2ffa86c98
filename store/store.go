package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Run represents a row in the runs table.
type Run struct {
	ID              string `json:"id"`
	Input           string `json:"input"`
	Model           string `json:"model"`
	StartedAt       string `json:"started_at"`
	FinishedAt      string `json:"finished_at,omitempty"`
	Sentences       int    `json:"sentences"`
	Words           int    `json:"words"`
	FailedWords     int    `json:"failed_words"`
	FailedSentences int    `json:"failed_sentences"`
}

// Sentence represents a row in the sentences table.
type Sentence struct {
	RunID string `json:"run_id"`
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Row is one word or answer line of a trace.
type Row struct {
	RunID       string `json:"run_id"`
	SentenceIdx int    `json:"sentence_idx"`
	Seq         int    `json:"seq"`
	Depth       int    `json:"depth"`
	Word        string `json:"word,omitempty"`
	Shape       string `json:"shape,omitempty"`
	Answer      string `json:"answer,omitempty"`
}

// Totals are the counters recorded when a run finishes.
type Totals struct {
	Sentences       int
	Words           int
	FailedWords     int
	FailedSentences int
}

// Store wraps the SQLite database holding decomposition traces.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema.
func New(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, log: logger.Named("store")}

	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// --- Run operations ---

// BeginRun records a new run and returns its id.
func (s *Store) BeginRun(ctx context.Context, input, model string) (string, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, input, model) VALUES (?, ?, ?)",
		id, input, model); err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run as finished with its totals.
func (s *Store) FinishRun(ctx context.Context, runID string, t Totals) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = CURRENT_TIMESTAMP,
			sentences = ?,
			words = ?,
			failed_words = ?,
			failed_sentences = ?
		WHERE id = ?
	`, t.Sentences, t.Words, t.FailedWords, t.FailedSentences, runID)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing run %s: %w", runID, sql.ErrNoRows)
	}
	return nil
}

// GetRun retrieves a run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	r := &Run{}
	var finished sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, input, model, started_at, finished_at, sentences, words, failed_words, failed_sentences
		FROM runs WHERE id = ?
	`, runID).Scan(&r.ID, &r.Input, &r.Model, &r.StartedAt, &finished,
		&r.Sentences, &r.Words, &r.FailedWords, &r.FailedSentences)
	if err != nil {
		return nil, err
	}
	r.FinishedAt = finished.String
	return r, nil
}

// Runs returns all runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, input, model, started_at, finished_at, sentences, words, failed_words, failed_sentences
		FROM runs ORDER BY started_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finished sql.NullString
		if err := rows.Scan(&r.ID, &r.Input, &r.Model, &r.StartedAt, &finished,
			&r.Sentences, &r.Words, &r.FailedWords, &r.FailedSentences); err != nil {
			return nil, err
		}
		r.FinishedAt = finished.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and, by cascade, its sentences and rows.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", runID)
	return err
}

// --- Trace operations ---

// AddSentence records sentence idx of a run.
func (s *Store) AddSentence(ctx context.Context, runID string, idx int, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sentences (run_id, idx, text) VALUES (?, ?, ?)
		ON CONFLICT(run_id, idx) DO UPDATE SET text = excluded.text
	`, runID, idx, text)
	if err != nil {
		return fmt.Errorf("inserting sentence %d: %w", idx, err)
	}
	return nil
}

// Sentences returns the sentences of a run in corpus order.
func (s *Store) Sentences(ctx context.Context, runID string) ([]Sentence, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, idx, text FROM sentences WHERE run_id = ? ORDER BY idx", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sentence
	for rows.Next() {
		var st Sentence
		if err := rows.Scan(&st.RunID, &st.Index, &st.Text); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// AddRow inserts a trace row.
func (s *Store) AddRow(ctx context.Context, r Row) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trace_rows (run_id, sentence_idx, seq, depth, word, shape, answer)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.SentenceIdx, r.Seq, r.Depth, nullIfEmpty(r.Word), nullIfEmpty(r.Shape), nullIfEmpty(r.Answer))
	if err != nil {
		return fmt.Errorf("inserting trace row: %w", err)
	}
	return nil
}

// Rows returns the trace rows of a run in output order.
func (s *Store) Rows(ctx context.Context, runID string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, sentence_idx, seq, depth, word, shape, answer
		FROM trace_rows WHERE run_id = ?
		ORDER BY sentence_idx, seq
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var word, shape, answer sql.NullString
		if err := rows.Scan(&r.RunID, &r.SentenceIdx, &r.Seq, &r.Depth, &word, &shape, &answer); err != nil {
			return nil, err
		}
		r.Word, r.Shape, r.Answer = word.String, shape.String, answer.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
