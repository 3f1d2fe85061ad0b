// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pdiddy/mutfinder/internal/mutation"
)

// QueryOptions holds filters for mention queries. Empty fields match
// everything.
type QueryOptions struct {
	// Mutation filters by compact form, e.g. "T22C". Case is normalized.
	Mutation string

	// DocID filters by document.
	DocID string

	// Position filters by sequence position. Zero matches any position.
	Position int

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// MentionRow is one stored mention. Start and End are nil for mentions
// ingested without spans.
type MentionRow struct {
	DocID    string `json:"doc_id" yaml:"doc_id"`
	RunID    string `json:"run_id" yaml:"run_id"`
	Mutation string `json:"mutation" yaml:"mutation"`
	Position int    `json:"position" yaml:"position"`
	Wildtype string `json:"wildtype" yaml:"wildtype"`
	Mutant   string `json:"mutant" yaml:"mutant"`
	Start    *int   `json:"start,omitempty" yaml:"start,omitempty"`
	End      *int   `json:"end,omitempty" yaml:"end,omitempty"`
}

// Span returns the mention span and whether one was stored.
func (r MentionRow) Span() (mutation.Span, bool) {
	if r.Start == nil || r.End == nil {
		return mutation.Span{}, false
	}
	return mutation.Span{Start: *r.Start, End: *r.End}, true
}

// Query returns stored mentions ordered by document, then mutation, then
// span start.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]MentionRow, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(
		`SELECT m.doc_id, d.run_id, m.mutation, m.position, m.wildtype, m.mutant,
			m.span_start, m.span_end
		FROM mentions m
		JOIN documents d ON d.id = m.doc_id
		WHERE 1=1`)

	if opts.Mutation != "" {
		pm, err := mutation.ParseCompact(opts.Mutation)
		if err != nil {
			return nil, err
		}
		qb.WriteString(` AND m.mutation = ?`)
		args = append(args, pm.String())
	}

	if opts.DocID != "" {
		qb.WriteString(` AND m.doc_id = ?`)
		args = append(args, opts.DocID)
	}

	if opts.Position > 0 {
		qb.WriteString(` AND m.position = ?`)
		args = append(args, opts.Position)
	}

	qb.WriteString(` ORDER BY m.doc_id, m.mutation, m.span_start, m.id LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying mentions: %w", err)
	}
	defer rows.Close()

	var results []MentionRow
	for rows.Next() {
		var (
			r          MentionRow
			start, end sql.NullInt64
		)
		if err := rows.Scan(
			&r.DocID, &r.RunID, &r.Mutation, &r.Position, &r.Wildtype, &r.Mutant,
			&start, &end,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if start.Valid && end.Valid {
			st, en := int(start.Int64), int(end.Int64)
			r.Start, r.End = &st, &en
		}
		results = append(results, r)
	}

	return results, rows.Err()
}
