// Package catalog provides the local catalog store: a sqlite database
// mapping (source id, item URL) to locally persisted records, plus the
// settings table backing the preference store.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/yomuapp/yomu/pkg/source"
)

type Config struct {
	Path string `env:"CATALOG_DB_PATH,default=yomu.db" validate:"required"`
}

type Store struct {
	db     *sql.DB
	logger *zerolog.Logger
}

// Open opens (creating if needed) the catalog database and applies the
// schema. WAL and a busy timeout keep concurrent readers and the single
// writer from tripping over each other.
func Open(cfg *Config, logger *zerolog.Logger) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create catalog dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const mangaColumns = `id, source_id, url, title, author, description, genres,
	status, thumbnail_url, favorite, initialized, added_at`

// GetByKey returns the record for (sourceID, url), or nil when absent.
func (s *Store) GetByKey(ctx context.Context, sourceID int64, url string) (*Manga, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+mangaColumns+` FROM mangas WHERE source_id = ? AND url = ?`,
		sourceID, url)
	return scanManga(row)
}

// GetOrCreate returns the existing record for the key of m, inserting m
// first when no record exists. The unique index makes this safe for
// concurrent callers on different keys and a single winner on the same key.
func (s *Store) GetOrCreate(ctx context.Context, m *Manga) (*Manga, error) {
	if m.AddedAt.IsZero() {
		m.AddedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mangas (source_id, url, title, author, description, genres,
			status, thumbnail_url, favorite, initialized, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, url) DO NOTHING`,
		m.SourceID, m.URL, m.Title, m.Author, m.Description, encodeGenres(m.Genres),
		m.Status, m.ThumbnailURL, m.Favorite, m.Initialized, m.AddedAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert manga: %w", err)
	}

	existing, err := s.GetByKey(ctx, m.SourceID, m.URL)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("manga (%d, %s) missing after insert", m.SourceID, m.URL)
	}
	return existing, nil
}

// Upsert writes m, assigning its local ID when the key is new.
func (s *Store) Upsert(ctx context.Context, m *Manga) error {
	if m.AddedAt.IsZero() {
		m.AddedAt = time.Now()
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO mangas (source_id, url, title, author, description, genres,
			status, thumbnail_url, favorite, initialized, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, url) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			description = excluded.description,
			genres = excluded.genres,
			status = excluded.status,
			thumbnail_url = excluded.thumbnail_url,
			favorite = excluded.favorite,
			initialized = excluded.initialized
		RETURNING id`,
		m.SourceID, m.URL, m.Title, m.Author, m.Description, encodeGenres(m.Genres),
		m.Status, m.ThumbnailURL, m.Favorite, m.Initialized, m.AddedAt.UnixMilli(),
	)
	if err := row.Scan(&m.ID); err != nil {
		return fmt.Errorf("upsert manga: %w", err)
	}
	return nil
}

func (s *Store) SetFavorite(ctx context.Context, id int64, favorite bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE mangas SET favorite = ? WHERE id = ?`, favorite, id)
	return err
}

// ListFavorites returns the favorited records, ordered by title.
func (s *Store) ListFavorites(ctx context.Context) ([]*Manga, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+mangaColumns+` FROM mangas WHERE favorite = 1 ORDER BY title COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Manga
	for rows.Next() {
		m, err := scanMangaRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LoadSettings implements prefs.Backend.
func (s *Store) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// SaveSetting implements prefs.Backend.
func (s *Store) SaveSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanManga(row *sql.Row) (*Manga, error) {
	m, err := scanMangaRows(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func scanMangaRows(row rowScanner) (*Manga, error) {
	var m Manga
	var genres string
	var status int
	var addedAt int64

	err := row.Scan(&m.ID, &m.SourceID, &m.URL, &m.Title, &m.Author,
		&m.Description, &genres, &status, &m.ThumbnailURL,
		&m.Favorite, &m.Initialized, &addedAt)
	if err != nil {
		return nil, err
	}

	m.Genres = decodeGenres(genres)
	m.Status = source.Status(status)
	m.AddedAt = time.UnixMilli(addedAt)
	return &m, nil
}

func encodeGenres(genres []string) string {
	if len(genres) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(genres)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func decodeGenres(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
