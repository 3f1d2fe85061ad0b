package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mutfinder/internal/corpus"
	"github.com/pdiddy/mutfinder/internal/mutation"
	"github.com/pdiddy/mutfinder/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "store")

	store, err := NewStore(types.StoreConfig{Dir: dir, MaxResults: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store, dir
}

func pm(t *testing.T, compact string) mutation.PointMutation {
	t.Helper()
	m, err := mutation.ParseCompact(compact)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// sampleRecords returns a spans record, a counts-only record, and an empty one.
func sampleRecords(t *testing.T) []corpus.Record {
	t.Helper()
	spans := mutation.Mentions{
		pm(t, "W42A"): {{Start: 15, End: 19}, {Start: 21, End: 29}},
		pm(t, "G88Y"): {{Start: 35, End: 39}},
	}
	return []corpus.Record{
		{DocID: "id2", Counts: spans.Counts(), Mentions: spans},
		{DocID: "id1", Counts: mutation.Counts{pm(t, "A64G"): 2}},
		{DocID: "id3", Counts: mutation.Counts{}},
	}
}

func ingestHelper(t *testing.T, store *Store, records []corpus.Record) IngestSummary {
	t.Helper()
	var buf strings.Builder
	summary, err := store.Ingest(context.Background(), RunInfo{Extractor: "finder"}, records, &buf)
	if err != nil {
		t.Fatal(err)
	}
	return summary
}

// --- schema tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store, _ := testSetup(t)

	for _, table := range []string{"runs", "documents", "mentions"} {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestNewStoreCreatesDBFile(t *testing.T) {
	_, dir := testSetup(t)
	if _, err := os.Stat(filepath.Join(dir, dbFile)); os.IsNotExist(err) {
		t.Errorf("database file not created in %s", dir)
	}
}

func TestNewStoreDefaults(t *testing.T) {
	store, _ := testSetup(t)
	if store.maxResults != 20 {
		t.Errorf("maxResults = %d, want 20", store.maxResults)
	}

	other, err := NewStore(types.StoreConfig{Dir: filepath.Join(t.TempDir(), "s")})
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()
	if other.maxResults != defaultMaxResults {
		t.Errorf("maxResults = %d, want %d", other.maxResults, defaultMaxResults)
	}
}

// --- ingest tests ---

func TestIngest(t *testing.T) {
	store, _ := testSetup(t)

	var buf strings.Builder
	summary, err := store.Ingest(context.Background(), RunInfo{Extractor: "finder"}, sampleRecords(t), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Indexed != 3 || summary.Updated != 0 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.RunID == "" {
		t.Error("RunID is empty")
	}

	out := buf.String()
	for _, want := range []string{
		"indexed id2 (3 mentions)",
		"indexed id1 (2 mentions)",
		"indexed id3 (0 mentions)",
		"indexed: 3, updated: 0, failed: 0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	var rows int
	if err := store.db.QueryRow(`SELECT count(*) FROM mentions`).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 5 {
		t.Errorf("mention rows = %d, want 5", rows)
	}
}

func TestIngestReplacesDocument(t *testing.T) {
	store, _ := testSetup(t)
	first := ingestHelper(t, store, sampleRecords(t))

	second := ingestHelper(t, store, []corpus.Record{
		{DocID: "id1", Counts: mutation.Counts{pm(t, "S42T"): 1}},
	})
	if second.Updated != 1 || second.Indexed != 0 {
		t.Errorf("summary = %+v", second)
	}
	if first.RunID == second.RunID {
		t.Error("run IDs must differ between ingestions")
	}

	rows, err := store.Query(context.Background(), QueryOptions{DocID: "id1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Mutation != "S42T" {
		t.Errorf("rows = %+v", rows)
	}
	if rows[0].RunID != second.RunID {
		t.Errorf("RunID = %s, want %s", rows[0].RunID, second.RunID)
	}

	runs, err := store.Runs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != second.RunID || runs[0].Documents != 1 || runs[0].Extractor != "finder" {
		t.Errorf("latest run = %+v", runs[0])
	}
}

func TestIngestMergesDuplicateIDs(t *testing.T) {
	store, _ := testSetup(t)

	records, err := corpus.ReadRecords(strings.NewReader("d1\tA64G\nd1\tW36Y\n"))
	if err != nil {
		t.Fatal(err)
	}
	summary := ingestHelper(t, store, records)
	if summary.Indexed != 1 || summary.Updated != 0 {
		t.Errorf("summary = %+v, want one indexed document", summary)
	}

	got, err := store.Counts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want, err := corpus.ParseRecords(strings.NewReader("d1\tA64G\nd1\tW36Y\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got["d1"]) != 2 || got["d1"][pm(t, "A64G")] != want["d1"][pm(t, "A64G")] ||
		got["d1"][pm(t, "W36Y")] != want["d1"][pm(t, "W36Y")] {
		t.Errorf("stored counts = %v, want %v", got["d1"], want["d1"])
	}
}

func TestIngestMergesDuplicateSpans(t *testing.T) {
	store, _ := testSetup(t)

	records, err := corpus.ReadRecords(strings.NewReader("d1\tA64G:0,4\nd1\tA64G:10,14\n"))
	if err != nil {
		t.Fatal(err)
	}
	ingestHelper(t, store, records)

	rows, err := store.Query(context.Background(), QueryOptions{DocID: "d1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Start == nil || *rows[0].Start != 0 || rows[1].Start == nil || *rows[1].Start != 10 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestRunsMalformedTimestamp(t *testing.T) {
	store, _ := testSetup(t)
	if _, err := store.db.Exec(
		`INSERT INTO runs (id, extractor, created_at) VALUES ('r1', 'finder', 'yesterday')`,
	); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Runs(context.Background()); err == nil {
		t.Error("expected error for malformed created_at")
	}
}

func TestIngestCancelled(t *testing.T) {
	store, _ := testSetup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf strings.Builder
	if _, err := store.Ingest(ctx, RunInfo{Extractor: "finder"}, sampleRecords(t), &buf); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestIngestSummaryTotal(t *testing.T) {
	s := IngestSummary{Indexed: 2, Updated: 3, Failed: 1}
	if s.Total() != 6 {
		t.Errorf("Total() = %d, want 6", s.Total())
	}
}

// --- query tests ---

func TestQuery(t *testing.T) {
	store, _ := testSetup(t)
	ingestHelper(t, store, sampleRecords(t))

	tests := []struct {
		name string
		opts QueryOptions
		want []string
	}{
		{"all", QueryOptions{}, []string{"id1/A64G", "id1/A64G", "id2/G88Y", "id2/W42A", "id2/W42A"}},
		{"by mutation", QueryOptions{Mutation: "w42a"}, []string{"id2/W42A", "id2/W42A"}},
		{"by document", QueryOptions{DocID: "id1"}, []string{"id1/A64G", "id1/A64G"}},
		{"by position", QueryOptions{Position: 88}, []string{"id2/G88Y"}},
		{"max results", QueryOptions{MaxResults: 1}, []string{"id1/A64G"}},
		{"no match", QueryOptions{DocID: "missing"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := store.Query(context.Background(), tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, r := range rows {
				got = append(got, r.DocID+"/"+r.Mutation)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuerySpans(t *testing.T) {
	store, _ := testSetup(t)
	ingestHelper(t, store, sampleRecords(t))

	rows, err := store.Query(context.Background(), QueryOptions{Mutation: "W42A"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	sp, ok := rows[1].Span()
	if !ok || sp != (mutation.Span{Start: 21, End: 29}) {
		t.Errorf("span = %v, %v", sp, ok)
	}
	if rows[0].Wildtype != "W" || rows[0].Mutant != "A" || rows[0].Position != 42 {
		t.Errorf("row = %+v", rows[0])
	}

	rows, err = store.Query(context.Background(), QueryOptions{DocID: "id1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rows[0].Span(); ok {
		t.Error("counts-only mention should have no span")
	}
}

func TestQueryInvalidMutation(t *testing.T) {
	store, _ := testSetup(t)
	if _, err := store.Query(context.Background(), QueryOptions{Mutation: "Ala64Gly"}); err == nil {
		t.Error("expected error for non-compact mutation")
	}
}

func TestCounts(t *testing.T) {
	store, _ := testSetup(t)
	ingestHelper(t, store, sampleRecords(t))

	got, err := store.Counts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d documents, want 3", len(got))
	}
	if got["id2"][pm(t, "W42A")] != 2 || got["id2"][pm(t, "G88Y")] != 1 {
		t.Errorf("id2 counts = %v", got["id2"])
	}
	if got["id1"][pm(t, "A64G")] != 2 {
		t.Errorf("id1 counts = %v", got["id1"])
	}
	if len(got["id3"]) != 0 {
		t.Errorf("id3 counts = %v, want empty", got["id3"])
	}
}

// --- export tests ---

func TestExportYAML(t *testing.T) {
	store, dir := testSetup(t)
	ingestHelper(t, store, sampleRecords(t))

	path, err := store.ExportYAML(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "export.yaml") {
		t.Errorf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var docs []ExportDocument
	if err := yaml.Unmarshal(data, &docs); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if docs[0].ID != "id1" || len(docs[0].Mentions) != 2 {
		t.Errorf("docs[0] = %+v", docs[0])
	}
	if docs[1].ID != "id2" || len(docs[1].Mentions) != 3 {
		t.Errorf("docs[1] = %+v", docs[1])
	}
	if docs[1].Mentions[0].Start == nil {
		t.Error("span missing from export")
	}
}

func TestExportJSON(t *testing.T) {
	store, _ := testSetup(t)
	ingestHelper(t, store, sampleRecords(t))

	path, err := store.ExportJSON(context.Background(), QueryOptions{Mutation: "G88Y"})
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var docs []ExportDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(docs) != 1 || docs[0].Mentions[0].Mutation != "G88Y" {
		t.Errorf("docs = %+v", docs)
	}
	if *docs[0].Mentions[0].Start != 35 {
		t.Errorf("start = %d, want 35", *docs[0].Mentions[0].Start)
	}
}
