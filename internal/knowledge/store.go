// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge archives generated research reports in a SQLite
// database and supports listing, retrieval, and full-text search.
// Implements: prd006-knowledge-base (R1-R4);
//
//	docs/ARCHITECTURE.md § Knowledge Base.
package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/deep-research/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "research.db"
)

// Store manages the report archive SQLite database.
type Store struct {
	db         *sql.DB
	baseDir    string
	maxResults int
}

// NewStore opens or creates the archive database at dir/index/research.db,
// creating the schema if it does not exist (R1.2).
func NewStore(cfg types.KnowledgeBaseConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.Dir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, baseDir: cfg.Dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			timestamp TEXT NOT NULL,
			query TEXT NOT NULL,
			title TEXT NOT NULL,
			summary TEXT NOT NULL,
			report TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON reports(timestamp)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table over query/title/summary with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='reports_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE reports_fts USING fts5(query, title, summary, content=reports, content_rowid=rowid)`,
			`CREATE TRIGGER reports_ai AFTER INSERT ON reports BEGIN
				INSERT INTO reports_fts(rowid, query, title, summary) VALUES (new.rowid, new.query, new.title, new.summary);
			END`,
			`CREATE TRIGGER reports_ad AFTER DELETE ON reports BEGIN
				INSERT INTO reports_fts(reports_fts, rowid, query, title, summary) VALUES('delete', old.rowid, old.query, old.title, old.summary);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Save archives one generated report and returns the stored record. The ID
// is assigned here; the caller supplies the research query and the report
// (R1.1, R1.3).
func (s *Store) Save(ctx context.Context, query string, report types.Report) (types.SavedReport, error) {
	saved := types.SavedReport{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Query:     query,
		Report:    report,
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return types.SavedReport{}, fmt.Errorf("marshaling report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, timestamp, query, title, summary, report)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		saved.ID, saved.Timestamp.Format(time.RFC3339Nano), saved.Query,
		report.Title, report.Summary, string(reportJSON),
	)
	if err != nil {
		return types.SavedReport{}, fmt.Errorf("inserting report: %w", err)
	}
	return saved, nil
}
