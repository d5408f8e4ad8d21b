//go:build cgo

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dusk-indust/pagecraft/internal/content"
	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements Store and Writer on KuzuDB. Pages own sections
// through HAS_SECTION relationships; collection records are Entry nodes.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time checks.
var (
	_ Store  = (*KuzuStore)(nil)
	_ Writer = (*KuzuStore)(nil)
)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at
// dbPath. KuzuDB creates the leaf directory itself.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	db, err := kuzu.OpenDatabase(path, kuzu.DefaultSystemConfig())
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	s := &KuzuStore{db: db, conn: conn}
	if err := s.InitSchema(context.Background()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Page(
		id STRING,
		slug STRING,
		page_type STRING,
		title STRING,
		meta_title STRING,
		meta_description STRING,
		og_image STRING,
		status STRING,
		section_ids STRING,
		created_at STRING,
		updated_at STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Section(
		id STRING,
		page_id STRING,
		name STRING,
		type STRING,
		content STRING,
		settings STRING,
		sort_order INT64,
		visible STRING,
		seq INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Entry(
		key STRING,
		collection STRING,
		featured BOOLEAN,
		position INT64,
		seq INT64,
		data STRING,
		PRIMARY KEY(key)
	)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_SECTION(FROM Page TO Section)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// PutPage merges a Page node keyed by ID.
func (s *KuzuStore) PutPage(_ context.Context, p content.Page) error {
	ids, err := json.Marshal(p.SectionIDs)
	if err != nil {
		return fmt.Errorf("kuzu: marshal section ids: %w", err)
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	return s.exec(
		`MERGE (p:Page {id: $id})
		 SET p.slug = $slug, p.page_type = $type, p.title = $title,
			p.meta_title = $mt, p.meta_description = $md, p.og_image = $og,
			p.status = $status, p.section_ids = $ids,
			p.created_at = $created, p.updated_at = $updated`,
		map[string]any{
			"id":      p.ID,
			"slug":    p.Slug,
			"type":    p.PageType,
			"title":   p.Title,
			"mt":      p.MetaTitle,
			"md":      p.MetaDescription,
			"og":      p.OGImage,
			"status":  string(p.Status),
			"ids":     string(ids),
			"created": created.Format(time.RFC3339),
			"updated": updated.Format(time.RFC3339),
		},
	)
}

// PutSection inserts a Section node and links it to its owning page.
// Payloads are stored verbatim.
func (s *KuzuStore) PutSection(_ context.Context, sec content.Section) error {
	seq, err := s.countTable("Section")
	if err != nil {
		return err
	}
	visible := ""
	if sec.Visible != nil {
		visible = fmt.Sprintf("%t", *sec.Visible)
	}
	err = s.exec(
		`CREATE (s:Section {
			id: $id,
			page_id: $pid,
			name: $name,
			type: $type,
			content: $content,
			settings: $settings,
			sort_order: $order,
			visible: $visible,
			seq: $seq
		})`,
		map[string]any{
			"id":       sec.ID,
			"pid":      sec.PageID,
			"name":     sec.Name,
			"type":     sec.Type,
			"content":  string(sec.Content),
			"settings": string(sec.Settings),
			"order":    int64(sec.Order),
			"visible":  visible,
			"seq":      int64(seq),
		},
	)
	if err != nil {
		return err
	}
	if sec.PageID == "" {
		return nil
	}
	return s.exec(
		`MATCH (p:Page {id: $pid}), (s:Section {id: $sid})
		 CREATE (p)-[:HAS_SECTION]->(s)`,
		map[string]any{"pid": sec.PageID, "sid": sec.ID},
	)
}

// PutRecord inserts an Entry node keyed by "collection:id".
func (s *KuzuStore) PutRecord(_ context.Context, c content.Collection, rec content.Record) error {
	if !c.Valid() {
		return fmt.Errorf("kuzu: unknown collection %q", c)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("kuzu: marshal record: %w", err)
	}
	seq, err := s.countTable("Entry")
	if err != nil {
		return err
	}
	return s.exec(
		`CREATE (e:Entry {key: $key, collection: $c, featured: $f, position: $pos, seq: $seq, data: $data})`,
		map[string]any{
			"key":  entryKey(c, content.RecordID(rec)),
			"c":    string(c),
			"f":    content.Featured(rec),
			"pos":  int64(content.Position(rec)),
			"seq":  int64(seq),
			"data": string(data),
		},
	)
}

// ---------- Read operations ----------

const pageReturn = `p.id, p.slug, p.page_type, p.title, p.meta_title, p.meta_description,
	p.og_image, p.status, p.section_ids, p.created_at, p.updated_at`

const sectionReturn = `s.id, s.page_id, s.name, s.type, s.content, s.settings, s.sort_order, s.visible`

// GetPage returns the page for slug and the sections linked by HAS_SECTION,
// in insertion order.
func (s *KuzuStore) GetPage(_ context.Context, slug string) (*content.PageBundle, error) {
	rows, err := s.query(
		"MATCH (p:Page) WHERE p.slug = $slug RETURN "+pageReturn,
		map[string]any{"slug": slug},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	page, err := rowToPage(rows[0])
	if err != nil {
		return nil, err
	}

	secRows, err := s.query(
		`MATCH (p:Page {id: $id})-[:HAS_SECTION]->(s:Section)
		 RETURN `+sectionReturn+` ORDER BY s.seq`,
		map[string]any{"id": page.ID},
	)
	if err != nil {
		return nil, err
	}
	sections := make([]content.Section, 0, len(secRows))
	for _, r := range secRows {
		sections = append(sections, rowToSection(r))
	}
	return &content.PageBundle{Page: *page, Sections: sections}, nil
}

// GetSections returns the sections with the given IDs in the order of ids.
func (s *KuzuStore) GetSections(_ context.Context, ids []string) ([]content.Section, error) {
	found := make([]content.Section, 0, len(ids))
	for _, id := range ids {
		rows, err := s.query(
			"MATCH (s:Section {id: $id}) RETURN "+sectionReturn,
			map[string]any{"id": id},
		)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			found = append(found, rowToSection(r))
		}
	}
	return orderByIDs(found, ids), nil
}

// ListCollection returns the filtered records of c.
func (s *KuzuStore) ListCollection(_ context.Context, c content.Collection, f content.Filter) ([]content.Record, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("kuzu: unknown collection %q", c)
	}
	cypher := "MATCH (e:Entry) WHERE e.collection = $c"
	params := map[string]any{"c": string(c)}
	if f.Featured {
		cypher += " AND e.featured = true"
	}
	cypher += " RETURN e.data ORDER BY e.position, e.seq"
	if f.Limit > 0 {
		cypher += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]content.Record, 0, len(rows))
	for _, r := range rows {
		var rec content.Record
		if err := json.Unmarshal([]byte(toString(r[0])), &rec); err != nil {
			return nil, fmt.Errorf("kuzu: decode %s record: %w", c, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// countTable returns the number of rows in a node table.
func (s *KuzuStore) countTable(table string) (int, error) {
	// Table name is a fixed internal constant, not user input.
	rows, err := s.query(fmt.Sprintf("MATCH (n:%s) RETURN count(n)", table), nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

func entryKey(c content.Collection, id string) string {
	return string(c) + ":" + id
}

// rowToPage converts an 11-column result row into a Page.
func rowToPage(r []any) (*content.Page, error) {
	p := &content.Page{
		ID:              toString(r[0]),
		Slug:            toString(r[1]),
		PageType:        toString(r[2]),
		Title:           toString(r[3]),
		MetaTitle:       toString(r[4]),
		MetaDescription: toString(r[5]),
		OGImage:         toString(r[6]),
		Status:          content.Status(toString(r[7])),
		CreatedAt:       parseTime(toString(r[9])),
		UpdatedAt:       parseTime(toString(r[10])),
	}
	if ids := toString(r[8]); ids != "" {
		if err := json.Unmarshal([]byte(ids), &p.SectionIDs); err != nil {
			return nil, fmt.Errorf("kuzu: decode section ids for %q: %w", p.Slug, err)
		}
	}
	return p, nil
}

// rowToSection converts an 8-column result row into a Section.
// Column order: id, page_id, name, type, content, settings, sort_order, visible.
func rowToSection(r []any) content.Section {
	sec := content.Section{
		ID:     toString(r[0]),
		PageID: toString(r[1]),
		Name:   toString(r[2]),
		Type:   toString(r[3]),
		Order:  toInt(r[6]),
	}
	if body := toString(r[4]); body != "" {
		sec.Content = json.RawMessage(body)
	}
	if settings := toString(r[5]); settings != "" {
		sec.Settings = json.RawMessage(settings)
	}
	switch toString(r[7]) {
	case "true":
		v := true
		sec.Visible = &v
	case "false":
		v := false
		sec.Visible = &v
	}
	return sec
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
