package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS accounts (
    account_id   TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    currency     TEXT,
    timezone     TEXT,
    updated_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_spend (
    account_id   TEXT NOT NULL,
    day          TEXT NOT NULL,
    cost         REAL NOT NULL,
    source       TEXT NOT NULL DEFAULT 'api',
    updated_at   TEXT NOT NULL,
    PRIMARY KEY (account_id, day)
);

CREATE TABLE IF NOT EXISTS month_totals (
    account_id   TEXT NOT NULL,
    month        TEXT NOT NULL,
    spend_mtd    REAL NOT NULL,
    as_of        TEXT NOT NULL,
    PRIMARY KEY (account_id, month)
);

CREATE TABLE IF NOT EXISTS import_files (
    file_path    TEXT PRIMARY KEY,
    mtime_ns     INTEGER NOT NULL,
    size_bytes   INTEGER NOT NULL,
    imported_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
    run_id       TEXT PRIMARY KEY,
    kind         TEXT NOT NULL,
    started_at   TEXT NOT NULL,
    finished_at  TEXT NOT NULL,
    ok_count     INTEGER NOT NULL,
    fail_count   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_daily_spend_day ON daily_spend(day);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`
