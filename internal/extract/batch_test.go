// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mutfinder/internal/corpus"
	"github.com/pdiddy/mutfinder/internal/mutation"
	"github.com/pdiddy/mutfinder/pkg/types"
)

const fakeInputFile = "id1\tThe alanine64 to glycine mutation.\n" +
	"id2\tWe constructed W42A (Trp42Ala) and\tG88Y (Gly88Tyr).\n" +
	"id3\tNo mutation mentions here.\n" +
	"id4\t\n" +
	"id5\n"

func fakeDocs(t *testing.T) []corpus.Document {
	t.Helper()
	docs, err := corpus.ReadDocuments(strings.NewReader(fakeInputFile))
	require.NoError(t, err)
	return docs
}

func runBatch(t *testing.T, ex Extractor, cfg types.BatchConfig, format corpus.Format) string {
	t.Helper()
	var progress bytes.Buffer
	records, summary, err := Run(context.Background(), ex, fakeDocs(t), cfg, nil, &progress)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Total())
	assert.False(t, summary.HasFailures())

	var out bytes.Buffer
	require.NoError(t, corpus.WriteRecords(&out, records, format))
	return out.String()
}

func TestRun_FinderMentions(t *testing.T) {
	got := runBatch(t, defaultFinder(t), types.BatchConfig{Workers: 3}, corpus.FormatMentions)
	want := "id1\tA64G\n" +
		"id2\tG88Y\tG88Y\tW42A\tW42A\n" +
		"id3\n" +
		"id4\n" +
		"id5\n"
	assert.Equal(t, want, got)
}

func TestRun_FinderSpans(t *testing.T) {
	got := runBatch(t, defaultFinder(t), types.BatchConfig{Workers: 2, Spans: true}, corpus.FormatSpans)
	want := "id1\tA64G:4,24\n" +
		"id2\tG88Y:35,39\tG88Y:41,49\tW42A:15,19\tW42A:21,29\n" +
		"id3\n" +
		"id4\n" +
		"id5\n"
	assert.Equal(t, want, got)
}

func TestRun_FinderNormalized(t *testing.T) {
	got := runBatch(t, defaultFinder(t), types.BatchConfig{}, corpus.FormatNormalized)
	want := "id1\tA64G\n" +
		"id2\tG88Y\tW42A\n" +
		"id3\n" +
		"id4\n" +
		"id5\n"
	assert.Equal(t, want, got)
}

func TestRun_Baseline(t *testing.T) {
	got := runBatch(t, NewBaseline(), types.BatchConfig{Workers: 4}, corpus.FormatMentions)
	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "id2\tG88Y\tG88Y\tW42A\tW42A", lines[1])
}

func TestRun_BaselineRejectsSpans(t *testing.T) {
	_, _, err := Run(context.Background(), NewBaseline(), fakeDocs(t), types.BatchConfig{Spans: true}, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrSpansUnsupported)
}

func TestRun_SummaryAndProgress(t *testing.T) {
	obs := newRecordingObserver()
	var progress bytes.Buffer
	_, summary, err := Run(context.Background(), defaultFinder(t), fakeDocs(t), types.BatchConfig{Workers: 2}, obs, &progress)
	require.NoError(t, err)

	assert.Equal(t, BatchSummary{Extracted: 3, Skipped: 2, Mentions: 5}, summary)
	assert.Contains(t, progress.String(), "extracted id2 (4 mentions)")
	assert.Contains(t, progress.String(), "skipped id4")
	assert.Contains(t, progress.String(), "extracted: 3, skipped: 2, failed: 0, mentions: 5")
	assert.Len(t, obs.statuses, 3)
}

type failingExtractor struct{ bad string }

func (f failingExtractor) Name() string { return "failing" }

func (f failingExtractor) Count(text string) (mutation.Counts, error) {
	if strings.Contains(text, f.bad) {
		return nil, errors.New("boom")
	}
	return mutation.Counts{}, nil
}

func TestRun_FailedDocumentsOmitted(t *testing.T) {
	obs := newRecordingObserver()
	var progress bytes.Buffer
	records, summary, err := Run(context.Background(), failingExtractor{bad: "constructed"}, fakeDocs(t), types.BatchConfig{Workers: 3}, obs, &progress)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.True(t, summary.HasFailures())
	require.Len(t, records, 4)
	assert.Equal(t, []string{"id1", "id3", "id4", "id5"}, []string{records[0].DocID, records[1].DocID, records[2].DocID, records[3].DocID})
	assert.Contains(t, progress.String(), "failed  id2: boom")
	assert.Contains(t, obs.statuses, StatusFailed)
}

func TestRun_OrderIndependentOfWorkers(t *testing.T) {
	var docs []corpus.Document
	for i := 0; i < 50; i++ {
		docs = append(docs, corpus.Document{ID: strings.Repeat("d", i+1), Text: "S42T and Trp36Tyr"})
	}
	records, _, err := Run(context.Background(), defaultFinder(t), docs, types.BatchConfig{Workers: 8}, nil, &bytes.Buffer{})
	require.NoError(t, err)
	require.Len(t, records, len(docs))
	for i, r := range records {
		assert.Equal(t, docs[i].ID, r.DocID)
		assert.Equal(t, 2, r.Counts.Total())
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Run(ctx, defaultFinder(t), fakeDocs(t), types.BatchConfig{}, nil, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_SelectsExtractor(t *testing.T) {
	ex, err := New(types.BatchConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "finder", ex.Name())

	ex, err = New(types.BatchConfig{Extractor: types.ExtractorBaseline}, nil)
	require.NoError(t, err)
	assert.Equal(t, "baseline", ex.Name())

	_, err = New(types.BatchConfig{Extractor: "neural"}, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestNewFinderFromConfig_Options(t *testing.T) {
	f, err := NewFinderFromConfig(types.FinderConfig{SkipAmbiguous: true, MatchTimeout: 2 * time.Second}, nil)
	require.NoError(t, err)
	assert.NotNil(t, f.ambiguous)
	assert.Equal(t, 2*time.Second, f.templates[0].re.MatchTimeout)
}
