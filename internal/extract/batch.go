// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/mutfinder/internal/corpus"
	"github.com/pdiddy/mutfinder/internal/mutation"
	"github.com/pdiddy/mutfinder/pkg/types"
)

// BatchSummary holds counts from a batch extraction run.
type BatchSummary struct {
	Extracted int
	Skipped   int
	Failed    int
	Mentions  int
}

// Total returns the number of documents processed.
func (s BatchSummary) Total() int {
	return s.Extracted + s.Skipped + s.Failed
}

// HasFailures reports whether any document failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

type outcome struct {
	record  corpus.Record
	err     error
	elapsed time.Duration
}

// Run extracts mentions from docs with up to cfg.Workers documents in
// flight. Records are returned in input order. Documents with empty text
// are skipped but still produce an empty record; documents whose
// extraction fails are reported to w and omitted. A nil observer is allowed.
func Run(ctx context.Context, ex Extractor, docs []corpus.Document, cfg types.BatchConfig, obs Observer, w io.Writer) ([]corpus.Record, BatchSummary, error) {
	var spanner SpanExtractor
	if cfg.Spans {
		s, ok := ex.(SpanExtractor)
		if !ok {
			return nil, BatchSummary{}, fmt.Errorf("%s: %w", ex.Name(), ErrSpansUnsupported)
		}
		spanner = s
	}
	if obs == nil {
		obs = nopObserver{}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	outcomes := make([]outcome, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, doc := range docs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			rec, err := extractDocument(ex, spanner, doc)
			outcomes[i] = outcome{record: rec, err: err, elapsed: time.Since(start)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, BatchSummary{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, BatchSummary{}, err
	}

	var (
		summary BatchSummary
		records = make([]corpus.Record, 0, len(docs))
	)
	for i, o := range outcomes {
		id := docs[i].ID
		switch {
		case o.err != nil:
			fmt.Fprintf(w, "failed  %s: %v\n", id, o.err)
			slog.Warn("extraction failed", "doc", id, "error", o.err)
			obs.Document(StatusFailed, o.elapsed)
			summary.Failed++
			continue
		case strings.TrimSpace(docs[i].Text) == "":
			fmt.Fprintf(w, "skipped %s\n", id)
			summary.Skipped++
		default:
			n := o.record.Counts.Total()
			fmt.Fprintf(w, "extracted %s (%d mentions)\n", id, n)
			obs.Document(StatusExtracted, o.elapsed)
			summary.Extracted++
			summary.Mentions += n
		}
		records = append(records, o.record)
	}

	fmt.Fprintf(w, "\nextracted: %d, skipped: %d, failed: %d, mentions: %d\n",
		summary.Extracted, summary.Skipped, summary.Failed, summary.Mentions)

	return records, summary, nil
}

func extractDocument(ex Extractor, spanner SpanExtractor, doc corpus.Document) (corpus.Record, error) {
	rec := corpus.Record{DocID: doc.ID, Counts: mutation.Counts{}}
	if strings.TrimSpace(doc.Text) == "" {
		if spanner != nil {
			rec.Mentions = mutation.Mentions{}
		}
		return rec, nil
	}

	if spanner != nil {
		mentions, err := spanner.Extract(doc.Text)
		if err != nil {
			return rec, err
		}
		rec.Mentions = mentions
		rec.Counts = mentions.Counts()
		return rec, nil
	}

	counts, err := ex.Count(doc.Text)
	if err != nil {
		return rec, err
	}
	rec.Counts = counts
	return rec, nil
}
