// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists extraction records in a SQLite database so that
// mentions can be queried across runs, exported, and rescored.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/mutfinder/internal/corpus"
	"github.com/pdiddy/mutfinder/internal/mutation"
	"github.com/pdiddy/mutfinder/pkg/types"
)

// createdLayout keeps created_at lexically sortable.
const createdLayout = "2006-01-02T15:04:05.000000000Z"

const (
	defaultDir        = "store"
	dbFile            = "mentions.db"
	defaultMaxResults = 50
)

// Store manages the mention database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates dir/mentions.db and its schema.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = defaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, dir: dir, maxResults: maxResults}
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
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			extractor TEXT NOT NULL,
			created_at TEXT NOT NULL,
			documents INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES runs(id),
			mention_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS mentions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			mutation TEXT NOT NULL,
			position INTEGER NOT NULL,
			wildtype TEXT NOT NULL,
			mutant TEXT NOT NULL,
			span_start INTEGER,
			span_end INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mentions_doc_id ON mentions(doc_id)`,
		`CREATE INDEX IF NOT EXISTS idx_mentions_mutation ON mentions(mutation)`,
		`CREATE INDEX IF NOT EXISTS idx_mentions_position ON mentions(position)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run describes one ingestion.
type Run struct {
	ID        string    `json:"id" yaml:"id"`
	Extractor string    `json:"extractor" yaml:"extractor"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Documents int       `json:"documents" yaml:"documents"`
}

// RunInfo describes the extraction that produced a batch of records.
type RunInfo struct {
	// Extractor names the extractor, "finder" or "baseline".
	Extractor string
}

// IngestSummary holds counts from an ingestion.
type IngestSummary struct {
	RunID   string
	Indexed int
	Updated int
	Failed  int
}

// Total returns the number of records processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Failed
}

// Ingest stores records under a new run. Records sharing a document ID are
// merged first, as ParseRecords does. A document already in the store has
// its mentions replaced. Records carrying spans store one row per span;
// records with counts only store one row per mention with no span.
func (s *Store) Ingest(ctx context.Context, run RunInfo, records []corpus.Record, w io.Writer) (IngestSummary, error) {
	summary := IngestSummary{RunID: uuid.NewString()}
	records = corpus.MergeRecords(records)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, extractor, created_at) VALUES (?, ?, ?)`,
		summary.RunID, run.Extractor, time.Now().UTC().Format(createdLayout),
	)
	if err != nil {
		return summary, fmt.Errorf("recording run: %w", err)
	}

	for _, rec := range records {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		var exists int
		if err := s.db.QueryRowContext(ctx,
			`SELECT count(*) FROM documents WHERE id = ?`, rec.DocID,
		).Scan(&exists); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rec.DocID, err)
			summary.Failed++
			continue
		}

		if err := s.ingestDocument(ctx, summary.RunID, rec); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rec.DocID, err)
			summary.Failed++
			continue
		}

		if exists > 0 {
			fmt.Fprintf(w, "updated %s (%d mentions)\n", rec.DocID, rec.Counts.Total())
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s (%d mentions)\n", rec.DocID, rec.Counts.Total())
			summary.Indexed++
		}
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE runs SET documents = ? WHERE id = ?`,
		summary.Indexed+summary.Updated, summary.RunID,
	); err != nil {
		return summary, fmt.Errorf("updating run: %w", err)
	}

	fmt.Fprintf(w, "\nrun %s indexed: %d, updated: %d, failed: %d\n",
		summary.RunID, summary.Indexed, summary.Updated, summary.Failed)
	return summary, nil
}

func (s *Store) ingestDocument(ctx context.Context, runID string, rec corpus.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM mentions WHERE doc_id = ?`, rec.DocID); err != nil {
		return fmt.Errorf("deleting old mentions: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, run_id, mention_count) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			run_id=excluded.run_id, mention_count=excluded.mention_count`,
		rec.DocID, runID, rec.Counts.Total(),
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO mentions (doc_id, mutation, position, wildtype, mutant, span_start, span_end)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	insert := func(m mutation.PointMutation, start, end sql.NullInt64) error {
		_, err := stmt.ExecContext(ctx,
			rec.DocID, m.String(), m.Position(),
			string(m.Wildtype()), string(m.Mutant()), start, end,
		)
		if err != nil {
			return fmt.Errorf("inserting mention %s: %w", m, err)
		}
		return nil
	}

	if rec.Mentions != nil {
		for _, m := range mutation.Sorted(rec.Mentions) {
			for _, sp := range rec.Mentions[m] {
				if err := insert(m,
					sql.NullInt64{Int64: int64(sp.Start), Valid: true},
					sql.NullInt64{Int64: int64(sp.End), Valid: true},
				); err != nil {
					return err
				}
			}
		}
	} else {
		for _, m := range mutation.Sorted(rec.Counts) {
			for i := 0; i < rec.Counts[m]; i++ {
				if err := insert(m, sql.NullInt64{}, sql.NullInt64{}); err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit()
}

// Runs lists ingestions, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, extractor, created_at, documents FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			created string
		)
		if err := rows.Scan(&r.ID, &r.Extractor, &created, &r.Documents); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.CreatedAt, err = time.Parse(createdLayout, created)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at for run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Counts rebuilds per-document mention counts for every stored document,
// including documents with no mentions, for scoring against a gold standard.
func (s *Store) Counts(ctx context.Context) (map[string]mutation.Counts, error) {
	out := make(map[string]mutation.Counts)

	docs, err := s.db.QueryContext(ctx, `SELECT id FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	for docs.Next() {
		var id string
		if err := docs.Scan(&id); err != nil {
			docs.Close()
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		out[id] = mutation.Counts{}
	}
	docs.Close()
	if err := docs.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_id, mutation, count(*) FROM mentions GROUP BY doc_id, mutation`)
	if err != nil {
		return nil, fmt.Errorf("querying mentions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, compact string
			n           int
		)
		if err := rows.Scan(&id, &compact, &n); err != nil {
			return nil, fmt.Errorf("scanning mention count: %w", err)
		}
		m, err := mutation.ParseCompact(compact)
		if err != nil {
			return nil, fmt.Errorf("stored mention for %s: %w", id, err)
		}
		out[id][m] = n
	}
	return out, rows.Err()
}
