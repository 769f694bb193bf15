package catalog

// Schema is applied on every open. The unique index on (source_id, url)
// is what makes GetOrCreate atomic per key under concurrent callers.
const schema = `
CREATE TABLE IF NOT EXISTS mangas (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    source_id      INTEGER NOT NULL,
    url            TEXT NOT NULL,
    title          TEXT NOT NULL,
    author         TEXT NOT NULL DEFAULT '',
    description    TEXT NOT NULL DEFAULT '',
    genres         TEXT NOT NULL DEFAULT '[]',
    status         INTEGER NOT NULL DEFAULT 0,
    thumbnail_url  TEXT NOT NULL DEFAULT '',
    favorite       INTEGER NOT NULL DEFAULT 0,
    initialized    INTEGER NOT NULL DEFAULT 0,
    added_at       INTEGER NOT NULL,
    UNIQUE(source_id, url)
);
CREATE INDEX IF NOT EXISTS idx_mangas_favorite ON mangas(favorite);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
