// Package sqlite stores bundles in a single SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"contractqa/internal/domain"
	"contractqa/internal/embedding/tfidf"
	"contractqa/internal/indexstore"
	"contractqa/internal/indexstore/sqlite/migrations"
)

const (
	metaBundle  = "bundle_meta"
	metaOptions = "index_options"
	metaRows    = "row_count"
)

// Storage keeps one bundle per database file; Save replaces its contents.
type Storage struct {
	timeout time.Duration
}

func NewStorage() *Storage { return &Storage{timeout: 30 * time.Second} }

var _ indexstore.Storage = (*Storage)(nil)

func (s *Storage) Name() string { return "sqlite" }

func (s *Storage) open(location string) (*sql.DB, error) {
	if dir := filepath.Dir(location); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", location+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := migrate(db, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// migrate runs all pending up migrations in version order.
func migrate(db *sql.DB, fsys fs.FS) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}
	var current int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			upFiles = append(upFiles, e.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Save replaces the stored bundle inside one transaction.
func (s *Storage) Save(b indexstore.Bundle, location string) error {
	if err := indexstore.Validate(b); err != nil {
		return err
	}
	db, err := s.open(location)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, table := range []string{"meta", "segments", "terms", "weights"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	metaJSON, err := json.Marshal(b.Meta)
	if err != nil {
		return fmt.Errorf("marshalling meta: %w", err)
	}
	optsJSON, err := json.Marshal(b.Index.Options)
	if err != nil {
		return fmt.Errorf("marshalling options: %w", err)
	}
	for name, value := range map[string]string{
		metaBundle:  string(metaJSON),
		metaOptions: string(optsJSON),
		metaRows:    strconv.Itoa(len(b.Index.Rows)),
	} {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (name, value) VALUES (?, ?)", name, value); err != nil {
			return fmt.Errorf("saving meta %s: %w", name, err)
		}
	}

	segStmt, err := tx.PrepareContext(ctx, "INSERT INTO segments (position, id, title, body, level) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing segments: %w", err)
	}
	defer segStmt.Close()
	for i, seg := range b.Segments {
		if _, err := segStmt.ExecContext(ctx, i, seg.ID, seg.Title, seg.Text, seg.Level); err != nil {
			return fmt.Errorf("saving segment %s: %w", seg.ID, err)
		}
	}

	termStmt, err := tx.PrepareContext(ctx, "INSERT INTO terms (dim, term, idf) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing terms: %w", err)
	}
	defer termStmt.Close()
	for i, term := range b.Index.Terms {
		if _, err := termStmt.ExecContext(ctx, i, term, b.Index.IDF[i]); err != nil {
			return fmt.Errorf("saving term %q: %w", term, err)
		}
	}

	weightStmt, err := tx.PrepareContext(ctx, "INSERT INTO weights (seg, dim, weight) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing weights: %w", err)
	}
	defer weightStmt.Close()
	for i, row := range b.Index.Rows {
		if len(row.Indices) != len(row.Values) {
			return fmt.Errorf("%w: row %d has mismatched lengths", domain.ErrCorruptIndex, i)
		}
		for k, dim := range row.Indices {
			if _, err := weightStmt.ExecContext(ctx, i, dim, row.Values[k]); err != nil {
				return fmt.Errorf("saving weights of row %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads the bundle stored at location.
func (s *Storage) Load(location string) (indexstore.Bundle, error) {
	var b indexstore.Bundle
	if !s.Exists(location) {
		return b, fmt.Errorf("%w: %s", domain.ErrNotFound, location)
	}
	db, err := s.open(location)
	if err != nil {
		return b, err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	meta, err := loadMeta(ctx, db)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal([]byte(meta[metaBundle]), &b.Meta); err != nil {
		return indexstore.Bundle{}, fmt.Errorf("%w: meta: %v", domain.ErrCorruptIndex, err)
	}
	if err := json.Unmarshal([]byte(meta[metaOptions]), &b.Index.Options); err != nil {
		return indexstore.Bundle{}, fmt.Errorf("%w: options: %v", domain.ErrCorruptIndex, err)
	}
	rowCount, err := strconv.Atoi(meta[metaRows])
	if err != nil || rowCount < 0 {
		return indexstore.Bundle{}, fmt.Errorf("%w: row count %q", domain.ErrCorruptIndex, meta[metaRows])
	}

	if b.Segments, err = loadSegments(ctx, db); err != nil {
		return indexstore.Bundle{}, err
	}
	if b.Index.Terms, b.Index.IDF, err = loadTerms(ctx, db); err != nil {
		return indexstore.Bundle{}, err
	}
	if b.Index.Rows, err = loadWeights(ctx, db, rowCount); err != nil {
		return indexstore.Bundle{}, err
	}
	if err := indexstore.Validate(b); err != nil {
		return indexstore.Bundle{}, err
	}
	return b, nil
}

func (s *Storage) Exists(location string) bool {
	info, err := os.Stat(location)
	return err == nil && !info.IsDir()
}

func loadMeta(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("querying meta: %w", err)
	}
	defer rows.Close()
	meta := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scanning meta: %w", err)
		}
		meta[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating meta: %w", err)
	}
	for _, key := range []string{metaBundle, metaOptions, metaRows} {
		if _, ok := meta[key]; !ok {
			return nil, fmt.Errorf("%w: missing %s", domain.ErrCorruptIndex, key)
		}
	}
	return meta, nil
}

func loadSegments(ctx context.Context, db *sql.DB) ([]domain.Segment, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, title, body, level FROM segments ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying segments: %w", err)
	}
	defer rows.Close()
	var segs []domain.Segment //nolint:prealloc // size unknown from query
	for rows.Next() {
		var seg domain.Segment
		if err := rows.Scan(&seg.ID, &seg.Title, &seg.Text, &seg.Level); err != nil {
			return nil, fmt.Errorf("scanning segment: %w", err)
		}
		segs = append(segs, seg)
	}
	return segs, rows.Err()
}

func loadTerms(ctx context.Context, db *sql.DB) ([]string, []float64, error) {
	rows, err := db.QueryContext(ctx, "SELECT dim, term, idf FROM terms ORDER BY dim")
	if err != nil {
		return nil, nil, fmt.Errorf("querying terms: %w", err)
	}
	defer rows.Close()
	var (
		terms []string
		idf   []float64
	)
	for rows.Next() {
		var (
			dim  int
			term string
			w    float64
		)
		if err := rows.Scan(&dim, &term, &w); err != nil {
			return nil, nil, fmt.Errorf("scanning term: %w", err)
		}
		if dim != len(terms) {
			return nil, nil, fmt.Errorf("%w: gap in term dimensions at %d", domain.ErrCorruptIndex, dim)
		}
		terms = append(terms, term)
		idf = append(idf, w)
	}
	return terms, idf, rows.Err()
}

func loadWeights(ctx context.Context, db *sql.DB, rowCount int) ([]tfidf.SparseRow, error) {
	rows, err := db.QueryContext(ctx, "SELECT seg, dim, weight FROM weights ORDER BY seg, dim")
	if err != nil {
		return nil, fmt.Errorf("querying weights: %w", err)
	}
	defer rows.Close()
	out := make([]tfidf.SparseRow, rowCount)
	for rows.Next() {
		var (
			seg, dim int
			w        float64
		)
		if err := rows.Scan(&seg, &dim, &w); err != nil {
			return nil, fmt.Errorf("scanning weight: %w", err)
		}
		if seg < 0 || seg >= rowCount {
			return nil, fmt.Errorf("%w: weight for row %d of %d", domain.ErrCorruptIndex, seg, rowCount)
		}
		out[seg].Indices = append(out[seg].Indices, dim)
		out[seg].Values = append(out[seg].Values, w)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(domain.ErrCorruptIndex, err)
	}
	return out, nil
}
