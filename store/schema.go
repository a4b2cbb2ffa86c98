package store

// schemaSQL is the base DDL. Later changes go through migrations.
const schemaSQL = `
-- One row per parse invocation
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    input TEXT NOT NULL,
    model TEXT NOT NULL,
    started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    finished_at DATETIME,
    sentences INTEGER DEFAULT 0,
    words INTEGER DEFAULT 0,
    failed_words INTEGER DEFAULT 0
);

-- Sentences in corpus order
CREATE TABLE IF NOT EXISTS sentences (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    idx INTEGER NOT NULL,
    text TEXT NOT NULL,
    PRIMARY KEY (run_id, idx)
);

-- Word and answer lines of the trace
CREATE TABLE IF NOT EXISTS trace_rows (
    id INTEGER PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    sentence_idx INTEGER NOT NULL,
    seq INTEGER NOT NULL,
    depth INTEGER NOT NULL,
    word TEXT,
    shape TEXT,
    answer TEXT
);

CREATE INDEX IF NOT EXISTS idx_trace_rows_run ON trace_rows(run_id, sentence_idx, seq);
`
