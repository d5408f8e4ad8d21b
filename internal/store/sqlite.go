package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dusk-indust/pagecraft/internal/content"
)

// Compile-time assertions.
var (
	_ Store  = (*SQLiteStore)(nil)
	_ Writer = (*SQLiteStore)(nil)
)

// SQLiteStore implements Store and Writer on a single SQLite file. The
// driver is chosen at build time (see sqlite_native.go and sqlite_cgo.go).
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and migrates it.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create directory: %w", err)
		}
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}

	conn, err := openSQLite(dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// SQLite only supports one writer.
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn}
	if err := s.InitSchema(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS pages (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		page_type TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		meta_title TEXT NOT NULL DEFAULT '',
		meta_description TEXT NOT NULL DEFAULT '',
		og_image TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'draft',
		section_ids TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS sections (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		page_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		settings TEXT NOT NULL DEFAULT '',
		sort_order INTEGER NOT NULL DEFAULT 0,
		visible INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		featured INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL DEFAULT 0,
		data TEXT NOT NULL DEFAULT '{}',
		UNIQUE(collection, id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sections_page ON sections(page_id)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_collection ON entries(collection, position)`,
}

// InitSchema runs the idempotent migrations.
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := s.conn.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("sqlite: migrate: %w", err)
		}
	}
	return nil
}

// PutPage inserts or replaces a page.
func (s *SQLiteStore) PutPage(ctx context.Context, p content.Page) error {
	ids, err := json.Marshal(p.SectionIDs)
	if err != nil {
		return fmt.Errorf("sqlite: marshal section ids: %w", err)
	}
	now := time.Now().UTC()
	created, updated := p.CreatedAt, p.UpdatedAt
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = created
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO pages
			(id, slug, page_type, title, meta_title, meta_description, og_image, status, section_ids, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Slug, p.PageType, p.Title, p.MetaTitle, p.MetaDescription, p.OGImage,
		string(p.Status), string(ids), created.Format(time.RFC3339), updated.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("sqlite: put page %q: %w", p.Slug, err)
	}
	return nil
}

// PutSection inserts or replaces a section. Payloads are stored verbatim so
// string-encoded content survives the round trip.
func (s *SQLiteStore) PutSection(ctx context.Context, sec content.Section) error {
	var visible any
	if sec.Visible != nil {
		visible = boolToInt(*sec.Visible)
	}
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO sections (id, page_id, name, type, content, settings, sort_order, visible)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			page_id = excluded.page_id, name = excluded.name, type = excluded.type,
			content = excluded.content, settings = excluded.settings,
			sort_order = excluded.sort_order, visible = excluded.visible`,
		sec.ID, sec.PageID, sec.Name, sec.Type, string(sec.Content), string(sec.Settings), sec.Order, visible,
	)
	if err != nil {
		return fmt.Errorf("sqlite: put section %q: %w", sec.ID, err)
	}
	return nil
}

// PutRecord inserts or replaces a collection record.
func (s *SQLiteStore) PutRecord(ctx context.Context, c content.Collection, rec content.Record) error {
	if !c.Valid() {
		return fmt.Errorf("sqlite: unknown collection %q", c)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("sqlite: marshal record: %w", err)
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO entries (collection, id, featured, position, data)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO UPDATE SET
			featured = excluded.featured, position = excluded.position, data = excluded.data`,
		string(c), content.RecordID(rec), boolToInt(content.Featured(rec)), content.Position(rec), string(data),
	)
	if err != nil {
		return fmt.Errorf("sqlite: put %s record: %w", c, err)
	}
	return nil
}

const sectionColumns = `id, page_id, name, type, content, settings, sort_order, visible`

// GetPage returns the page for slug and its owned sections in insertion
// order.
func (s *SQLiteStore) GetPage(ctx context.Context, slug string) (*content.PageBundle, error) {
	var (
		p                content.Page
		status, ids      string
		created, updated string
	)
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, slug, page_type, title, meta_title, meta_description, og_image, status, section_ids, created_at, updated_at
		 FROM pages WHERE slug = ?`, slug,
	).Scan(&p.ID, &p.Slug, &p.PageType, &p.Title, &p.MetaTitle, &p.MetaDescription, &p.OGImage,
		&status, &ids, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get page %q: %w", slug, err)
	}
	p.Status = content.Status(status)
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	if err := json.Unmarshal([]byte(ids), &p.SectionIDs); err != nil {
		return nil, fmt.Errorf("sqlite: decode section ids for %q: %w", slug, err)
	}

	if p.ID == "" {
		return &content.PageBundle{Page: p, Sections: []content.Section{}}, nil
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE page_id = ? ORDER BY seq`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list sections for %q: %w", slug, err)
	}
	sections, err := scanSections(rows)
	if err != nil {
		return nil, err
	}
	return &content.PageBundle{Page: p, Sections: sections}, nil
}

// GetSections returns the sections with the given IDs in the order of ids.
func (s *SQLiteStore) GetSections(ctx context.Context, ids []string) ([]content.Section, error) {
	if len(ids) == 0 {
		return []content.Section{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get sections: %w", err)
	}
	found, err := scanSections(rows)
	if err != nil {
		return nil, err
	}
	return orderByIDs(found, ids), nil
}

// ListCollection returns the filtered records of c.
func (s *SQLiteStore) ListCollection(ctx context.Context, c content.Collection, f content.Filter) ([]content.Record, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("sqlite: unknown collection %q", c)
	}
	q := `SELECT data FROM entries WHERE collection = ?`
	args := []any{string(c)}
	if f.Featured {
		q += ` AND featured = 1`
	}
	q += ` ORDER BY position, seq`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list %s: %w", c, err)
	}
	defer rows.Close()

	out := []content.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("sqlite: scan %s: %w", c, err)
		}
		var rec content.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("sqlite: decode %s record: %w", c, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanSections(rows *sql.Rows) ([]content.Section, error) {
	defer rows.Close()
	out := []content.Section{}
	for rows.Next() {
		var (
			sec            content.Section
			body, settings string
			visible        sql.NullInt64
		)
		if err := rows.Scan(&sec.ID, &sec.PageID, &sec.Name, &sec.Type, &body, &settings, &sec.Order, &visible); err != nil {
			return nil, fmt.Errorf("sqlite: scan section: %w", err)
		}
		if body != "" {
			sec.Content = json.RawMessage(body)
		}
		if settings != "" {
			sec.Settings = json.RawMessage(settings)
		}
		if visible.Valid {
			v := visible.Int64 != 0
			sec.Visible = &v
		}
		out = append(out, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate sections: %w", err)
	}
	return out, nil
}

// orderByIDs arranges sections in the order of ids, dropping unknown IDs.
func orderByIDs(sections []content.Section, ids []string) []content.Section {
	byID := make(map[string]content.Section, len(sections))
	for _, s := range sections {
		byID[s.ID] = s
	}
	out := make([]content.Section, 0, len(ids))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
