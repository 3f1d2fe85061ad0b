// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mutfinder/internal/corpus"
	"github.com/pdiddy/mutfinder/internal/extract"
	"github.com/pdiddy/mutfinder/internal/metrics"
	"github.com/pdiddy/mutfinder/internal/store"
	"github.com/pdiddy/mutfinder/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract INPUT",
	Short: "Recognize point-mutation mentions in a file of documents",
	Long: `Extract reads INPUT, one "doc_id<TAB>text" document per line ("-" for
stdin), and writes one record per document: the identifier followed by
every mutation mention in compact form, tab separated.

--spans appends the byte span of each mention (finder only); --normalized
lists each distinct mutation once. Documents without text are written with
no mentions. Progress goes to stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	outputPath, _ := cmd.Flags().GetString("output")
	ingest, _ := cmd.Flags().GetBool("ingest")

	out := io.Writer(os.Stdout)
	if outputPath != "" && outputPath != "-" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		out = f
	}

	records, summary, err := extractFile(cmd.Context(), cfg, args[0], out, os.Stderr)
	if err != nil {
		return err
	}

	if ingest {
		s, err := store.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()
		if _, err := s.Ingest(cmd.Context(), store.RunInfo{Extractor: string(extractorKind(cfg.Batch))}, records, os.Stderr); err != nil {
			return err
		}
	}

	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) failed extraction", summary.Failed)
	}
	return nil
}

// extractFile runs the configured extractor over the documents in
// inputPath and writes the records to out. Metrics are written when
// cfg.Metrics.File is set.
func extractFile(ctx context.Context, cfg types.Config, inputPath string, out, progress io.Writer) ([]corpus.Record, extract.BatchSummary, error) {
	format, err := corpus.ParseFormat(cfg.Batch.Spans, cfg.Batch.Normalized)
	if err != nil {
		return nil, extract.BatchSummary{}, err
	}

	docs, err := readDocuments(inputPath)
	if err != nil {
		return nil, extract.BatchSummary{}, err
	}

	m := metrics.New()
	ex, err := extract.New(cfg.Batch, m)
	if err != nil {
		return nil, extract.BatchSummary{}, err
	}

	start := time.Now()
	records, summary, err := extract.Run(ctx, ex, docs, cfg.Batch, m, progress)
	if err != nil {
		return nil, summary, err
	}
	slog.Info("extraction finished",
		"extractor", ex.Name(),
		"documents", len(docs),
		"mentions", summary.Mentions,
		"failed", summary.Failed,
		"elapsed", time.Since(start),
	)

	if err := corpus.WriteRecords(out, records, format); err != nil {
		return nil, summary, fmt.Errorf("writing records: %w", err)
	}

	if cfg.Metrics.File != "" {
		if err := m.WriteTextfile(cfg.Metrics.File); err != nil {
			return nil, summary, err
		}
	}
	return records, summary, nil
}

func readDocuments(path string) ([]corpus.Document, error) {
	if path == "-" {
		return corpus.ReadDocuments(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()
	return corpus.ReadDocuments(f)
}

func extractorKind(cfg types.BatchConfig) types.ExtractorKind {
	if cfg.Extractor == "" {
		return types.ExtractorFinder
	}
	return cfg.Extractor
}

func init() {
	extractCmd.Flags().StringP("output", "o", "", "write records to FILE instead of stdout")
	extractCmd.Flags().String("extractor", "finder", "recognizer: finder or baseline")
	extractCmd.Flags().Bool("spans", false, "append the byte span of each mention (finder only)")
	extractCmd.Flags().Bool("normalized", false, "write each distinct mutation once per document")
	extractCmd.Flags().String("patterns", "", "YAML template file replacing the default templates")
	extractCmd.Flags().Bool("skip-ambiguous", false, "skip mentions that spell known cell lines or proteins (e.g. T47D)")
	extractCmd.Flags().Duration("match-timeout", 0, "time limit for a single template match (0 = none)")
	extractCmd.Flags().IntP("workers", "w", 1, "documents processed concurrently")
	extractCmd.Flags().String("metrics-file", "", "write Prometheus metrics to FILE after the run")
	extractCmd.Flags().Bool("ingest", false, "also ingest the records into the mention store")
	extractCmd.Flags().String("store-dir", "store", "mention store directory (with --ingest)")

	rootCmd.AddCommand(extractCmd)
}
