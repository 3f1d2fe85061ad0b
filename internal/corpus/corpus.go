// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus reads line-oriented document collections and reads and
// writes the tab-delimited extraction record format.
//
// Input lines are "doc_id<TAB>text". Output records are
// "doc_id<TAB>m1<TAB>m2...", where each mention is a compact mutation
// ("A64G") optionally followed by its span (":start,end").
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"syscall"

	"github.com/pdiddy/mutfinder/internal/mutation"
)

// maxLineBytes bounds a single document line.
const maxLineBytes = 64 << 20

// ErrFormatConflict is returned when spans and normalized output are both requested.
var ErrFormatConflict = errors.New("spans and normalized output are mutually exclusive")

// Document is one input text with its identifier.
type Document struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// ReadDocuments reads one document per line. The identifier ends at the
// first tab; the rest of the line, tabs included, is the text. A line with
// no tab is a document with empty text. Blank lines are skipped.
func ReadDocuments(r io.Reader) ([]Document, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var docs []Document
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		id, text, _ := strings.Cut(line, "\t")
		docs = append(docs, Document{ID: strings.TrimSpace(id), Text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}
	return docs, nil
}

// Format selects how a Record is serialized.
type Format int

const (
	// FormatMentions repeats each mutation once per mention.
	FormatMentions Format = iota

	// FormatNormalized writes each distinct mutation once.
	FormatNormalized

	// FormatSpans writes every mention with its ":start,end" span.
	FormatSpans
)

// ParseFormat maps the spans and normalized switches onto a Format.
func ParseFormat(spans, normalized bool) (Format, error) {
	switch {
	case spans && normalized:
		return 0, ErrFormatConflict
	case spans:
		return FormatSpans, nil
	case normalized:
		return FormatNormalized, nil
	default:
		return FormatMentions, nil
	}
}

// Record is the extraction result for one document.
type Record struct {
	DocID string

	// Counts holds per-mutation mention counts.
	Counts mutation.Counts

	// Mentions holds spans when the extractor reports them; nil otherwise.
	Mentions mutation.Mentions
}

// Format renders r as a single output line without a trailing newline.
// Mutations are written in compact-form order.
func (r Record) Format(f Format) (string, error) {
	fields := []string{r.DocID}

	switch f {
	case FormatSpans:
		if r.Mentions == nil && len(r.Counts) > 0 {
			return "", fmt.Errorf("record %s has no spans", r.DocID)
		}
		for _, m := range mutation.Sorted(r.Mentions) {
			for _, s := range r.Mentions[m] {
				fields = append(fields, m.String()+":"+s.String())
			}
		}
	case FormatNormalized:
		for _, m := range mutation.Sorted(r.Counts) {
			fields = append(fields, m.String())
		}
	case FormatMentions:
		for _, m := range mutation.Sorted(r.Counts) {
			for i := 0; i < r.Counts[m]; i++ {
				fields = append(fields, m.String())
			}
		}
	default:
		return "", fmt.Errorf("unknown record format %d", f)
	}

	return strings.Join(fields, "\t"), nil
}

// WriteRecords writes one line per record. A closed downstream pipe ends
// the write quietly.
func WriteRecords(w io.Writer, records []Record, f Format) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		line, err := r.Format(f)
		if err != nil {
			return err
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return ignoreBrokenPipe(err)
		}
	}
	return ignoreBrokenPipe(bw.Flush())
}

// IsBrokenPipe reports whether err comes from a reader that closed early,
// such as head.
func IsBrokenPipe(err error) bool {
	return err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe))
}

func ignoreBrokenPipe(err error) error {
	if err == nil || IsBrokenPipe(err) {
		return nil
	}
	return fmt.Errorf("writing records: %w", err)
}

// ReadRecords parses extraction records in file order. A record keeps its
// spans only when every mention on the line carries one; duplicate
// identifiers yield separate records until passed through MergeRecords.
func ReadRecords(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var records []Record
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		rec := Record{
			DocID:    strings.TrimSpace(fields[0]),
			Counts:   mutation.Counts{},
			Mentions: mutation.Mentions{},
		}
		for _, field := range fields[1:] {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			compact, span, hasSpan := strings.Cut(field, ":")
			m, err := mutation.ParseCompact(compact)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			rec.Counts[m]++
			if !hasSpan {
				rec.Mentions = nil
				continue
			}
			if rec.Mentions == nil {
				continue
			}
			sp, err := parseSpan(span)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			rec.Mentions[m] = append(rec.Mentions[m], sp)
		}
		if len(rec.Counts) == 0 {
			rec.Mentions = nil
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return records, nil
}

func parseSpan(s string) (mutation.Span, error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return mutation.Span{}, fmt.Errorf("malformed span %q", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return mutation.Span{}, fmt.Errorf("malformed span %q: %w", s, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return mutation.Span{}, fmt.Errorf("malformed span %q: %w", s, err)
	}
	if start < 0 || end < start {
		return mutation.Span{}, fmt.Errorf("malformed span %q", s)
	}
	return mutation.Span{Start: start, End: end}, nil
}

// MergeRecords folds records sharing an identifier into one, in order of
// first appearance. Counts are summed and spans concatenated. The merged
// record keeps spans only if every contributing record with mentions had them.
func MergeRecords(records []Record) []Record {
	index := make(map[string]int, len(records))
	var out []Record
	for _, rec := range records {
		i, ok := index[rec.DocID]
		if !ok {
			index[rec.DocID] = len(out)
			out = append(out, Record{
				DocID:    rec.DocID,
				Counts:   mutation.Counts{},
				Mentions: mutation.Mentions{},
			})
			i = len(out) - 1
		}
		merged := &out[i]
		for m, n := range rec.Counts {
			merged.Counts[m] += n
		}
		if len(rec.Counts) == 0 {
			continue
		}
		if rec.Mentions == nil {
			merged.Mentions = nil
			continue
		}
		if merged.Mentions == nil {
			continue
		}
		for m, spans := range rec.Mentions {
			merged.Mentions[m] = append(merged.Mentions[m], spans...)
		}
	}
	for i := range out {
		if len(out[i].Counts) == 0 {
			out[i].Mentions = nil
		}
	}
	return out
}

// ParseRecords reads extraction output or a gold standard into per-document
// counts. Spans are ignored and lines sharing an identifier are merged.
func ParseRecords(r io.Reader) (map[string]mutation.Counts, error) {
	records, err := ReadRecords(r)
	if err != nil {
		return nil, err
	}

	out := make(map[string]mutation.Counts)
	for _, rec := range MergeRecords(records) {
		out[rec.DocID] = rec.Counts
	}
	return out, nil
}
