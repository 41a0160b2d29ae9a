// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

// QueryOptions holds parameters for archive queries (R2).
type QueryOptions struct {
	// Query is the FTS5 full-text search string over the research query,
	// report title, and summary (R2.1).
	Query string

	// Since filters to reports generated at or after the given time (R2.2).
	Since time.Time

	// MaxResults limits result count. Zero uses the store default (R2.3).
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Since.IsZero()
}

// List returns archived reports, newest first, or ranked by relevance when
// a full-text query is given (R2.4).
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]types.SavedReport, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT r.id, r.timestamp, r.query, r.report
			FROM reports_fts
			JOIN reports r ON r.rowid = reports_fts.rowid
			WHERE reports_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT r.id, r.timestamp, r.query, r.report
			FROM reports r
			WHERE 1=1`)
	}

	if !opts.Since.IsZero() {
		qb.WriteString(` AND r.timestamp >= ?`)
		args = append(args, opts.Since.UTC().Format(time.RFC3339Nano))
	}

	if useFTS {
		qb.WriteString(` ORDER BY reports_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.timestamp DESC`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var results []types.SavedReport
	for rows.Next() {
		saved, err := scanSavedReport(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, saved)
	}
	return results, rows.Err()
}

// Get returns one archived report by ID (R3.1).
func (s *Store) Get(ctx context.Context, id string) (types.SavedReport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, timestamp, query, report FROM reports WHERE id = ?`, id)

	var (
		saved      types.SavedReport
		ts         string
		reportJSON string
	)
	if err := row.Scan(&saved.ID, &ts, &saved.Query, &reportJSON); err != nil {
		if err == sql.ErrNoRows {
			return types.SavedReport{}, fmt.Errorf("report %s not found", id)
		}
		return types.SavedReport{}, fmt.Errorf("looking up report: %w", err)
	}
	return decodeSavedReport(saved, ts, reportJSON)
}

// Delete removes one archived report by ID (R4.1). Deleting an absent ID
// is an error so callers can distinguish it from success.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("report %s not found", id)
	}
	return nil
}

func scanSavedReport(rows *sql.Rows) (types.SavedReport, error) {
	var (
		saved      types.SavedReport
		ts         string
		reportJSON string
	)
	if err := rows.Scan(&saved.ID, &ts, &saved.Query, &reportJSON); err != nil {
		return types.SavedReport{}, fmt.Errorf("scanning row: %w", err)
	}
	return decodeSavedReport(saved, ts, reportJSON)
}

func decodeSavedReport(saved types.SavedReport, ts, reportJSON string) (types.SavedReport, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return types.SavedReport{}, fmt.Errorf("parsing timestamp: %w", err)
	}
	saved.Timestamp = t

	if err := json.Unmarshal([]byte(reportJSON), &saved.Report); err != nil {
		return types.SavedReport{}, fmt.Errorf("decoding report: %w", err)
	}
	return saved, nil
}
