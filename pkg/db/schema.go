package db

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- One row per merge invocation
CREATE TABLE IF NOT EXISTS merge_runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_uuid TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL,
    elapsed_ms INTEGER DEFAULT 0,
    output_path TEXT NOT NULL,
    output_size_bytes INTEGER DEFAULT 0,

    -- Requested property names as a JSON array, in request order
    properties TEXT NOT NULL,

    source_count INTEGER DEFAULT 0,
    success_count INTEGER DEFAULT 0,
    failed_count INTEGER DEFAULT 0,

    -- NULL when the merged result was written
    persist_error TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON merge_runs(created_at);

-- Source documents of a run, in the order they were read
CREATE TABLE IF NOT EXISTS merge_sources (
    source_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    path TEXT NOT NULL,
    status TEXT NOT NULL,         -- ok, failed
    error_message TEXT,
    FOREIGN KEY (run_id) REFERENCES merge_runs(run_id) ON DELETE CASCADE,
    UNIQUE(run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_sources_run ON merge_sources(run_id);
CREATE INDEX IF NOT EXISTS idx_sources_path ON merge_sources(path);
`
