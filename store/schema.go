package store

// Schema contains the complete DDL for the lector tables.
const Schema = `
-- Synthesized audio segments, keyed by content hash. Write-once: the
-- same key always maps to the same bytes, so inserts never overwrite.
CREATE TABLE IF NOT EXISTS segments (
    key        TEXT PRIMARY KEY,
    voice      TEXT NOT NULL,
    chars      INTEGER NOT NULL,
    size       INTEGER NOT NULL,
    audio      BLOB NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_segments_voice ON segments(voice);
CREATE INDEX IF NOT EXISTS idx_segments_created ON segments(created_at);

-- Conversion jobs
CREATE TABLE IF NOT EXISTS jobs (
    id           TEXT PRIMARY KEY,
    status       TEXT NOT NULL DEFAULT 'queued',
    stage        TEXT NOT NULL DEFAULT '',
    progress     REAL NOT NULL DEFAULT 0,
    title        TEXT NOT NULL DEFAULT '',
    source_name  TEXT NOT NULL DEFAULT '',
    voice        TEXT NOT NULL DEFAULT '',
    rate_percent INTEGER NOT NULL DEFAULT 0,
    pitch_hz     INTEGER NOT NULL DEFAULT 0,
    audio_path   TEXT NOT NULL DEFAULT '',
    text_path    TEXT NOT NULL DEFAULT '',
    error        TEXT NOT NULL DEFAULT '',
    stats        TEXT NOT NULL DEFAULT '{}',
    skipped      INTEGER NOT NULL DEFAULT 0,
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL,
    finished_at  INTEGER
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status, created_at DESC);

-- Fragments skipped during a conversion, kept for operator review
CREATE TABLE IF NOT EXISTS skips (
    job_id     TEXT NOT NULL,
    idx        INTEGER NOT NULL,
    reason     TEXT NOT NULL,
    excerpt    TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    PRIMARY KEY (job_id, idx),
    FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE
);

-- Voice catalog cache, refreshed from the engine when it can be queried
CREATE TABLE IF NOT EXISTS voices (
    id         TEXT PRIMARY KEY,
    locale     TEXT NOT NULL DEFAULT '',
    gender     TEXT NOT NULL DEFAULT '',
    fetched_at INTEGER NOT NULL
);
`
