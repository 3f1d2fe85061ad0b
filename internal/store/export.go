// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportDocument groups the stored mentions of one document.
type ExportDocument struct {
	ID       string          `json:"id" yaml:"id"`
	RunID    string          `json:"run_id" yaml:"run_id"`
	Mentions []ExportMention `json:"mentions" yaml:"mentions"`
}

// ExportMention is a mention without its document fields.
type ExportMention struct {
	Mutation string `json:"mutation" yaml:"mutation"`
	Start    *int   `json:"start,omitempty" yaml:"start,omitempty"`
	End      *int   `json:"end,omitempty" yaml:"end,omitempty"`
}

const exportLimit = 10000000

// ExportYAML writes the store to <dir>/export.yaml and returns the path.
// It supports the same filters as Query.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	docs, err := s.exportDocuments(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, "export.yaml")
	data, err := yaml.Marshal(docs)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the store to <dir>/export.json and returns the path.
// It supports the same filters as Query.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	docs, err := s.exportDocuments(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, "export.json")
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

// exportDocuments groups query results by document. Rows arrive ordered by
// document, so grouping needs only the previous entry.
func (s *Store) exportDocuments(ctx context.Context, opts QueryOptions) ([]ExportDocument, error) {
	opts.MaxResults = exportLimit
	rows, err := s.Query(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	docs := []ExportDocument{}
	for _, r := range rows {
		if n := len(docs); n == 0 || docs[n-1].ID != r.DocID {
			docs = append(docs, ExportDocument{ID: r.DocID, RunID: r.RunID})
		}
		last := &docs[len(docs)-1]
		last.Mentions = append(last.Mentions, ExportMention{
			Mutation: r.Mutation,
			Start:    r.Start,
			End:      r.End,
		})
	}
	return docs, nil
}
