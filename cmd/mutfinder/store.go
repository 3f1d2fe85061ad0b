// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mutfinder/internal/corpus"
	"github.com/pdiddy/mutfinder/internal/score"
	"github.com/pdiddy/mutfinder/internal/store"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the mention store (ingest, query, export, score)",
	Long: `Store keeps extraction records in a local SQLite database. Use
subcommands to ingest record files, query mentions, export the store, or
score its contents against a gold standard.`,
}

// --- ingest subcommand ---

var storeIngestCmd = &cobra.Command{
	Use:   "ingest RECORDS",
	Short: "Ingest an extraction record file",
	Long: `Ingest reads a record file written by extract and stores its mentions
under a new run. Documents already in the store have their mentions
replaced. Spans are kept when every mention on a line carries one.`,
	Args: cobra.ExactArgs(1),
	RunE: runStoreIngest,
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening records: %w", err)
	}
	defer f.Close()

	records, err := corpus.ReadRecords(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	s, err := store.NewStore(loadConfig(cmd).Store)
	if err != nil {
		return err
	}
	defer s.Close()

	extractor, _ := cmd.Flags().GetString("extractor")
	summary, err := s.Ingest(cmd.Context(), store.RunInfo{Extractor: extractor}, records, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed ingestion", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var storeQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query stored mentions by mutation, document, or position",
	RunE:  runStoreQuery,
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(loadConfig(cmd).Store)
	if err != nil {
		return err
	}
	defer s.Close()

	rows, err := s.Query(cmd.Context(), queryOptsFromFlags(cmd))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(os.Stdout, rows, jsonOutput)
}

func formatQueryOutput(w io.Writer, rows []store.MentionRow, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "No mentions found.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-10s  %-8s  %s\n", "Document", "Mutation", "Position", "Span")
	fmt.Fprintln(w, strings.Repeat("-", 56))

	for _, r := range rows {
		doc := r.DocID
		if len(doc) > 20 {
			doc = doc[:17] + "..."
		}
		span := "-"
		if sp, ok := r.Span(); ok {
			span = sp.String()
		}
		fmt.Fprintf(w, "%-20s  %-10s  %-8d  %s\n", doc, r.Mutation, r.Position, span)
	}

	fmt.Fprintf(w, "\n%d mentions\n", len(rows))
	return nil
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the store to YAML or JSON",
	Long: `Export writes stored mentions grouped by document to export.yaml or
export.json in the store directory. Supports the same filter flags as
query for partial exports.`,
	RunE: runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	s, err := store.NewStore(loadConfig(cmd).Store)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := queryOptsFromFlags(cmd)

	var path string
	switch format {
	case "yaml", "":
		path, err = s.ExportYAML(cmd.Context(), opts)
	case "json":
		path, err = s.ExportJSON(cmd.Context(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Println("Exported to", path)
	return nil
}

// --- runs subcommand ---

var storeRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List ingestion runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.NewStore(loadConfig(cmd).Store)
		if err != nil {
			return err
		}
		defer s.Close()

		runs, err := s.Runs(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Printf("%s  %-8s  %s  %d documents\n",
				r.ID, r.Extractor, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Documents)
		}
		return nil
	},
}

// --- score subcommand ---

var storeScoreCmd = &cobra.Command{
	Use:   "score GOLD",
	Short: "Score the stored mentions against a gold standard",
	Long: `Score rebuilds per-document counts from the store and compares them with
GOLD as the top-level score command does. The store must hold exactly the
documents listed in GOLD.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gold, err := readRecordFile(args[0])
		if err != nil {
			return err
		}

		s, err := store.NewStore(loadConfig(cmd).Store)
		if err != nil {
			return err
		}
		defer s.Close()

		counts, err := s.Counts(cmd.Context())
		if err != nil {
			return err
		}
		return printScore(os.Stdout, gold, score.Data(counts), scoreFormat(cmd))
	},
}

// --- shared helpers ---

func queryOptsFromFlags(cmd *cobra.Command) store.QueryOptions {
	mutation, _ := cmd.Flags().GetString("mutation")
	docID, _ := cmd.Flags().GetString("doc")
	position, _ := cmd.Flags().GetInt("position")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.QueryOptions{
		Mutation:   mutation,
		DocID:      docID,
		Position:   position,
		MaxResults: limit,
	}
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("mutation", "", "filter by compact mutation, e.g. T22C")
	cmd.Flags().String("doc", "", "filter by document ID")
	cmd.Flags().Int("position", 0, "filter by sequence position")
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	storeCmd.PersistentFlags().String("store-dir", "store", "mention store directory (contains mentions.db)")
	storeCmd.PersistentFlags().Int("max-results", 50, "default maximum number of query results")

	// Ingest flags.
	storeIngestCmd.Flags().String("extractor", "finder", "extractor that produced the records")

	// Query flags.
	addFilterFlags(storeQueryCmd)
	storeQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	addFilterFlags(storeExportCmd)
	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	// Score flags.
	addScoreFlags(storeScoreCmd)

	// Wire subcommands.
	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeQueryCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeRunsCmd)
	storeCmd.AddCommand(storeScoreCmd)

	rootCmd.AddCommand(storeCmd)
}
