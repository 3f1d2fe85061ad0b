// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score compares extractor output with a curated gold standard.
// Three measures are computed: extracted mentions (per mention, counts
// matter), normalized mutations (per distinct mutation in a document), and
// document retrieval (does the document mention any mutation at all).
package score

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/pdiddy/mutfinder/internal/mutation"
)

// ErrConsistency is returned when the extractor output and the gold
// standard do not cover exactly the same document identifiers.
var ErrConsistency = errors.New("gold standard and extractor output must contain identical identifiers")

// Data maps document identifiers to the mutations found in them.
type Data map[string]mutation.Counts

// Result is a confusion matrix. TrueNegative is meaningful only when
// HasTrueNegative is set.
type Result struct {
	TruePositive    int  `json:"tp" yaml:"tp"`
	FalsePositive   int  `json:"fp" yaml:"fp"`
	FalseNegative   int  `json:"fn" yaml:"fn"`
	TrueNegative    int  `json:"tn,omitempty" yaml:"tn,omitempty"`
	HasTrueNegative bool `json:"has_tn" yaml:"has_tn"`
}

// Precision returns tp/(tp+fp). ok is false when the denominator is zero.
func (r Result) Precision() (float64, bool) {
	return ratio(r.TruePositive, r.TruePositive+r.FalsePositive)
}

// Recall returns tp/(tp+fn). ok is false when the denominator is zero.
func (r Result) Recall() (float64, bool) {
	return ratio(r.TruePositive, r.TruePositive+r.FalseNegative)
}

// FMeasure returns the harmonic mean of precision and recall. ok is false
// when either is unavailable or both are zero.
func (r Result) FMeasure() (float64, bool) {
	p, okP := r.Precision()
	rc, okR := r.Recall()
	if !okP || !okR || p+rc == 0 {
		return 0, false
	}
	return 2 * p * rc / (p + rc), true
}

func ratio(num, den int) (float64, bool) {
	if den == 0 {
		return 0, false
	}
	return float64(num) / float64(den), true
}

// ConfusionMatrix renders the matrix as
//
//	tp	fn
//	fp	tn
//	--
//	<tp>	<fn>
//	<fp>	<tn>
func (r Result) ConfusionMatrix() string {
	tn := "n/a"
	if r.HasTrueNegative {
		tn = strconv.Itoa(r.TrueNegative)
	}
	return strings.Join([]string{
		"tp\tfn",
		"fp\ttn",
		"--",
		strconv.Itoa(r.TruePositive) + "\t" + strconv.Itoa(r.FalseNegative),
		strconv.Itoa(r.FalsePositive) + "\t" + tn,
	}, "\n")
}

// PRF renders precision, recall, and F-measure to four decimal places.
func (r Result) PRF() string {
	p, okP := r.Precision()
	rc, okR := r.Recall()
	f, okF := r.FMeasure()
	return "Precision\tRecall\tF-measure\n" +
		formatValue(p, okP) + "\t" + formatValue(rc, okR) + "\t" + formatValue(f, okF)
}

func (r Result) String() string {
	return r.ConfusionMatrix() + "\n" + r.PRF()
}

func formatValue(v float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%0.4f", v)
}

// Calculator scores extractor output against a fixed gold standard.
type Calculator struct {
	gold Data
}

// NewCalculator returns a Calculator for gold.
func NewCalculator(gold Data) *Calculator {
	return &Calculator{gold: gold}
}

// checkConsistency requires equal sizes first, then every gold identifier
// to be present in out.
func (c *Calculator) checkConsistency(out Data) error {
	if len(c.gold) != len(out) {
		return fmt.Errorf("%d gold documents, %d extracted: %w", len(c.gold), len(out), ErrConsistency)
	}
	for id := range c.gold {
		if _, ok := out[id]; !ok {
			return fmt.Errorf("document %q missing from extractor output: %w", id, ErrConsistency)
		}
	}
	return nil
}

// ExtractedMentions scores every mention. Extra mentions of a gold mutation
// are false positives, missing ones false negatives.
func (c *Calculator) ExtractedMentions(out Data) (Result, error) {
	if err := c.checkConsistency(out); err != nil {
		return Result{}, err
	}

	var r Result
	for id, expected := range c.gold {
		extracted := out[id]
		for m, n := range extracted {
			want, ok := expected[m]
			switch {
			case !ok:
				r.FalsePositive += n
			case n >= want:
				r.TruePositive += want
				r.FalsePositive += n - want
			default:
				r.TruePositive += n
				r.FalseNegative += want - n
			}
		}
		for m, want := range expected {
			if _, ok := extracted[m]; !ok {
				r.FalseNegative += want
			}
		}
	}
	return r, nil
}

// NormalizedMutations scores each distinct mutation per document once.
func (c *Calculator) NormalizedMutations(out Data) (Result, error) {
	if err := c.checkConsistency(out); err != nil {
		return Result{}, err
	}

	var r Result
	for id, expected := range c.gold {
		extracted := out[id]
		for m := range extracted {
			if _, ok := expected[m]; ok {
				r.TruePositive++
			} else {
				r.FalsePositive++
			}
		}
		for m := range expected {
			if _, ok := extracted[m]; !ok {
				r.FalseNegative++
			}
		}
	}
	return r, nil
}

// DocumentRetrieval scores whether each document was correctly flagged as
// mentioning any mutation. Which mutations were found does not matter.
func (c *Calculator) DocumentRetrieval(out Data) (Result, error) {
	if err := c.checkConsistency(out); err != nil {
		return Result{}, err
	}

	r := Result{HasTrueNegative: true}
	for id, expected := range c.gold {
		found := len(out[id]) > 0
		switch {
		case len(expected) > 0 && found:
			r.TruePositive++
		case len(expected) > 0:
			r.FalseNegative++
		case found:
			r.FalsePositive++
		default:
			r.TrueNegative++
		}
	}
	return r, nil
}

// Report holds all three measures.
type Report struct {
	ExtractedMentions   Result `json:"extracted_mentions" yaml:"extracted_mentions"`
	NormalizedMutations Result `json:"normalized_mutations" yaml:"normalized_mutations"`
	DocumentRetrieval   Result `json:"document_retrieval" yaml:"document_retrieval"`
}

// Evaluate computes every measure for out.
func (c *Calculator) Evaluate(out Data) (Report, error) {
	var (
		rep Report
		err error
	)
	if rep.ExtractedMentions, err = c.ExtractedMentions(out); err != nil {
		return Report{}, err
	}
	if rep.NormalizedMutations, err = c.NormalizedMutations(out); err != nil {
		return Report{}, err
	}
	if rep.DocumentRetrieval, err = c.DocumentRetrieval(out); err != nil {
		return Report{}, err
	}
	return rep, nil
}

func (rep Report) sections() []struct {
	title  string
	result Result
} {
	return []struct {
		title  string
		result Result
	}{
		{"Extracted Mentions", rep.ExtractedMentions},
		{"Normalized Mutations", rep.NormalizedMutations},
		{"Document Retrieval", rep.DocumentRetrieval},
	}
}

const rule = "-----------------------------------"

// String renders the three measures as titled text blocks.
func (rep Report) String() string {
	var b strings.Builder
	for _, s := range rep.sections() {
		b.WriteString(rule + "\n" + s.title + "\n" + rule + "\n")
		b.WriteString(s.result.String() + "\n")
	}
	b.WriteString(rule + "\n")
	return b.String()
}

// RenderTable renders the report as one table row per measure.
func (rep Report) RenderTable() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Measure", "TP", "FP", "FN", "TN", "Precision", "Recall", "F-measure"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})

	for _, s := range rep.sections() {
		r := s.result
		tn := "n/a"
		if r.HasTrueNegative {
			tn = strconv.Itoa(r.TrueNegative)
		}
		p, okP := r.Precision()
		rc, okR := r.Recall()
		f, okF := r.FMeasure()
		table.Append([]string{
			s.title,
			strconv.Itoa(r.TruePositive),
			strconv.Itoa(r.FalsePositive),
			strconv.Itoa(r.FalseNegative),
			tn,
			formatValue(p, okP),
			formatValue(rc, okR),
			formatValue(f, okF),
		})
	}

	table.Render()
	return buf.String()
}
