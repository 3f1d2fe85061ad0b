// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mutfinder/internal/corpus"
	"github.com/pdiddy/mutfinder/internal/score"
)

var scoreCmd = &cobra.Command{
	Use:   "score EXTRACTED GOLD",
	Short: "Score extractor output against a gold standard",
	Long: `Score compares an extraction record file with a gold standard in the same
format and prints three measures: extracted mentions, normalized mutations,
and document retrieval. Both files must cover the same document
identifiers. Span suffixes are ignored.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		extracted, err := readRecordFile(args[0])
		if err != nil {
			return err
		}
		gold, err := readRecordFile(args[1])
		if err != nil {
			return err
		}
		return printScore(os.Stdout, gold, extracted, scoreFormat(cmd))
	},
}

type reportFormat int

const (
	reportText reportFormat = iota
	reportTable
	reportJSON
)

func scoreFormat(cmd *cobra.Command) reportFormat {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return reportJSON
	}
	if table, _ := cmd.Flags().GetBool("table"); table {
		return reportTable
	}
	return reportText
}

func readRecordFile(path string) (score.Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	data, err := corpus.ParseRecords(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return score.Data(data), nil
}

func printScore(w io.Writer, gold, extracted score.Data, format reportFormat) error {
	rep, err := score.NewCalculator(gold).Evaluate(extracted)
	if err != nil {
		return err
	}

	switch format {
	case reportJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case reportTable:
		_, err = io.WriteString(w, rep.RenderTable())
	default:
		_, err = io.WriteString(w, rep.String())
	}
	return err
}

func addScoreFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("table", false, "print the measures as a single table")
	cmd.Flags().Bool("json", false, "print the confusion matrices as JSON")
}

func init() {
	addScoreFlags(scoreCmd)
	rootCmd.AddCommand(scoreCmd)
}
